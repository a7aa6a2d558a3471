package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/storage"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// Server 任务编排HTTP服务
type Server struct {
	store        *TaskStore
	orchestrator *Orchestrator
	engine       *gin.Engine
}

// NewServer 组装路由
func NewServer(store *TaskStore, orchestrator *Orchestrator) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), corsMiddleware())

	s := &Server{store: store, orchestrator: orchestrator, engine: engine}

	engine.GET("/health", s.handleHealth)
	api := engine.Group("/api")
	{
		api.POST("/crawl", s.handleSubmit)
		api.GET("/status/:task_id", s.handleStatus)
		api.GET("/result/:task_id", s.handleResult)
		api.GET("/result/:task_id/excel", s.handleExcel)
		api.DELETE("/task/:task_id", s.handleDelete)
	}
	return s
}

// Run 启动HTTP监听
func (s *Server) Run(addr string) error {
	utils.Infof("🌐 HTTP服务启动: %s", addr)
	return s.engine.Run(addr)
}

// Engine 返回底层gin实例,测试用
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleSubmit 受理抓取任务
func (s *Server) handleSubmit(c *gin.Context) {
	var req models.CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求体格式不正确: " + err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID, err := s.orchestrator.Submit(req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "status": models.StatusPending})
}

// handleStatus 查询任务进度
func (s *Server) handleStatus(c *gin.Context) {
	progress, err := s.store.Progress(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	c.JSON(http.StatusOK, progress)
}

// handleResult 查询任务结果
// 任务进行中返回202,失败或不存在返回404
func (s *Server) handleResult(c *gin.Context) {
	result, progress, err := s.store.Result(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	if progress.Status == models.StatusFailed {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务已失败", "detail": progress.Error})
		return
	}
	if result == nil {
		c.JSON(http.StatusAccepted, gin.H{
			"status":  progress.Status,
			"percent": progress.Percent,
			"message": progress.Message,
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleExcel 下载任务结果的xlsx文件
func (s *Server) handleExcel(c *gin.Context) {
	result, progress, err := s.store.Result(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
		return
	}
	if result == nil {
		if progress.Status == models.StatusFailed {
			c.JSON(http.StatusNotFound, gin.H{"error": "任务已失败"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": progress.Status, "percent": progress.Percent})
		return
	}

	buf, err := storage.RenderServiceWorkbook(result)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成表格失败: " + err.Error()})
		return
	}

	filename := fmt.Sprintf("comments_%s.xlsx", result.TaskID[:8])
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// handleDelete 删除任务记录
func (s *Server) handleDelete(c *gin.Context) {
	taskID := c.Param("task_id")
	if err := s.store.Delete(taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": taskID})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
