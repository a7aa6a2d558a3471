package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/RecoveryAshes/KeywordSpider/internal/crawlers"
	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// 进度里程碑
// 登录5→15, 滚动20→40, 展开回复45, 提取50→55, 关注核验60→95, 完成100
const (
	pctLaunch        = 5
	pctLoginSubmit   = 10
	pctLoggedIn      = 15
	pctScrollStart   = 20
	pctScrollEnd     = 40
	pctRepliesDone   = 45
	pctExtractStart  = 50
	pctExtractDone   = 55
	pctFollowerStart = 60
	pctFollowerEnd   = 95
)

type queuedTask struct {
	taskID  string
	request models.CrawlRequest
}

// Orchestrator 服务模式的任务编排器
// 固定数量的worker消费任务队列,每个任务独享一个浏览器会话,
// 无论成败任务都会达到终态,浏览器都会被回收
type Orchestrator struct {
	store       *TaskStore
	queue       chan queuedTask
	headless    bool
	followerRPS float64
}

// OrchestratorConfig 编排器参数
type OrchestratorConfig struct {
	Workers     int
	QueueSize   int
	Headless    bool
	FollowerRPS float64
	TaskTTL     time.Duration
}

// NewOrchestrator 创建编排器并启动worker
func NewOrchestrator(ctx context.Context, store *TaskStore, cfg OrchestratorConfig) *Orchestrator {
	o := &Orchestrator{
		store:       store,
		queue:       make(chan queuedTask, cfg.QueueSize),
		headless:    cfg.Headless,
		followerRPS: cfg.FollowerRPS,
	}
	for i := 0; i < cfg.Workers; i++ {
		go o.worker(ctx, i)
	}
	if cfg.TaskTTL > 0 {
		go o.janitor(ctx, cfg.TaskTTL)
	}
	return o
}

// Submit 登记任务并入队,队列满时返回错误
func (o *Orchestrator) Submit(req models.CrawlRequest) (string, error) {
	taskID := models.NewTaskID()
	o.store.Create(taskID)

	select {
	case o.queue <- queuedTask{taskID: taskID, request: req}:
		utils.Infof("📥 任务已入队: %s", taskID)
		return taskID, nil
	default:
		o.store.Fail(taskID, fmt.Errorf("任务队列已满"))
		return "", fmt.Errorf("任务队列已满, 稍后重试")
	}
}

func (o *Orchestrator) worker(ctx context.Context, id int) {
	utils.Infof("👷 worker-%d 启动", id)
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-o.queue:
			o.execute(ctx, task)
		}
	}
}

// janitor 周期清理过期终态任务
func (o *Orchestrator) janitor(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := o.store.Sweep(ttl); n > 0 {
				utils.Infof("🧹 清理了%d个过期任务", n)
			}
		}
	}
}

// execute 执行单个任务的完整流水线
// defer兜底: 没走到Complete的任务一律置失败,浏览器必然回收
func (o *Orchestrator) execute(ctx context.Context, task queuedTask) {
	utils.Infof("🚀 开始执行任务 %s: %s", task.taskID, task.request.PostURL)

	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("任务异常退出: %v", r)
		}
		if runErr != nil {
			utils.Errorf("❌ 任务 %s 失败: %v", task.taskID, runErr)
			o.store.Fail(task.taskID, runErr)
		}
	}()

	session := crawlers.NewSession(crawlers.SessionConfig{
		Headless:        o.headless,
		PageLoadTimeout: 30 * time.Second,
		ElementTimeout:  10 * time.Second,
		RestartInterval: time.Hour,
		CookieDir:       os.TempDir(),
		ScreenshotDir:   os.TempDir(),
	}, models.AccountCredential{Group: "svc-" + task.taskID[:8], ID: task.request.Username, Password: task.request.Password})
	defer session.Close()

	runErr = o.runPipeline(ctx, session, task)
}

func (o *Orchestrator) runPipeline(ctx context.Context, session *crawlers.Session, task queuedTask) error {
	taskID, req := task.taskID, task.request

	o.store.Update(taskID, models.StatusLoggingIn, pctLaunch, "브라우저를 시작하는 중입니다")
	extractor, err := o.startAndLogin(ctx, session, taskID, req)
	if err != nil {
		return err
	}
	defer extractor.Close()

	// 滚动加载全部评论
	o.store.Update(taskID, models.StatusScrolling, pctScrollStart, "댓글을 불러오는 중입니다")
	if err := extractor.OpenPost(ctx, req.PostURL); err != nil {
		return err
	}
	err = extractor.ScrollAllComments(ctx, func(ratio float64) {
		pct := pctScrollStart + int(ratio*float64(pctScrollEnd-pctScrollStart))
		o.store.Update(taskID, models.StatusScrolling, pct, "댓글을 불러오는 중입니다")
	})
	if err != nil {
		return err
	}

	extractor.ExpandReplies(ctx)
	o.store.Update(taskID, models.StatusExtracting, pctRepliesDone, "답글을 펼치는 중입니다")

	// 结构化提取
	o.store.Update(taskID, models.StatusExtracting, pctExtractStart, "댓글을 추출하는 중입니다")
	comments, err := extractor.ExtractComments()
	if err != nil {
		return err
	}
	o.store.Update(taskID, models.StatusExtracting, pctExtractDone, fmt.Sprintf("댓글 %d개 추출 완료", len(comments)))

	// 关注关系核验(可选)
	if req.CheckFollowers && len(comments) > 0 {
		if err := o.checkFollowers(ctx, extractor, taskID, comments); err != nil {
			return err
		}
	}

	result := buildResult(taskID, req.PostURL, comments)
	o.store.Complete(taskID, result)
	utils.Infof("✅ 任务 %s 完成: %d条评论", taskID, result.TotalCount)
	return nil
}

func (o *Orchestrator) startAndLogin(ctx context.Context, session *crawlers.Session, taskID string, req models.CrawlRequest) (*crawlers.SNSExtractor, error) {
	if err := session.Launch(); err != nil {
		return nil, err
	}
	o.store.Update(taskID, models.StatusLoggingIn, pctLoginSubmit, "로그인하는 중입니다")

	extractor := crawlers.NewSNSExtractor(session)
	if err := extractor.Login(ctx, req.Username, req.Password); err != nil {
		return nil, err
	}
	o.store.Update(taskID, models.StatusLoggingIn, pctLoggedIn, "로그인 완료")
	return extractor, nil
}

// checkFollowers 核验每个评论者与帖子作者的关注关系
func (o *Orchestrator) checkFollowers(ctx context.Context, extractor *crawlers.SNSExtractor, taskID string, comments []models.SNSComment) error {
	author, err := extractor.PostAuthor()
	if err != nil {
		utils.Warnf("⚠️ 无法确定帖子作者, 跳过关注核验: %v", err)
		return nil
	}

	usernames := uniqueUsernames(comments)
	o.store.Update(taskID, models.StatusCheckingFollowers, pctFollowerStart,
		fmt.Sprintf("팔로워 여부를 확인하는 중입니다 (%d명)", len(usernames)))

	checker := crawlers.NewFollowerChecker(extractor.Page(), o.followerRPS)
	hits, err := checker.CheckAll(ctx, author, usernames, func(ratio float64) {
		pct := pctFollowerStart + int(ratio*float64(pctFollowerEnd-pctFollowerStart))
		o.store.Update(taskID, models.StatusCheckingFollowers, pct, "팔로워 여부를 확인하는 중입니다")
	})
	if err != nil {
		return err
	}

	for i := range comments {
		comments[i].IsFollower = hits[comments[i].Username]
	}
	return nil
}

func buildResult(taskID, postURL string, comments []models.SNSComment) *models.CrawlResult {
	result := &models.CrawlResult{
		TaskID:      taskID,
		PostURL:     postURL,
		Comments:    comments,
		TotalCount:  len(comments),
		CompletedAt: time.Now(),
	}
	for _, c := range comments {
		if c.IsReply {
			result.ReplyCount++
		}
		if c.IsFollower {
			result.FollowerCount++
		} else {
			result.NonFollowerCount++
		}
	}
	return result
}

func uniqueUsernames(comments []models.SNSComment) []string {
	seen := make(map[string]bool, len(comments))
	var names []string
	for _, c := range comments {
		if !seen[c.Username] {
			seen[c.Username] = true
			names = append(names, c.Username)
		}
	}
	return names
}
