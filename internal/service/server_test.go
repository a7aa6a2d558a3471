package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
)

// newTestServer worker数为0, 任务只入队不执行, 便于单测路由行为
func newTestServer(t *testing.T) (*Server, *TaskStore) {
	t.Helper()
	store := NewTaskStore()
	orchestrator := NewOrchestrator(context.Background(), store, OrchestratorConfig{
		Workers:   0,
		QueueSize: 4,
	})
	return NewServer(store, orchestrator), store
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestSubmitTask(t *testing.T) {
	s, store := newTestServer(t)

	body := `{"post_url":"https://www.instagram.com/p/abc/","username":"user","password":"pass"}`
	w := doRequest(s, http.MethodPost, "/api/crawl", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	taskID := resp["task_id"]
	if taskID == "" {
		t.Fatal("响应应包含task_id")
	}
	if _, err := store.Progress(taskID); err != nil {
		t.Errorf("任务应已登记: %v", err)
	}
}

func TestSubmitTaskValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"非法JSON", `{broken`},
		{"缺少字段", `{"post_url":"https://example.com/p/1"}`},
		{"非法URL", `{"post_url":"ftp://x/p","username":"u","password":"p"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, "/api/crawl", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSubmitQueueFull(t *testing.T) {
	store := NewTaskStore()
	orchestrator := NewOrchestrator(context.Background(), store, OrchestratorConfig{
		Workers:   0,
		QueueSize: 1,
	})
	s := NewServer(store, orchestrator)

	body := `{"post_url":"https://www.instagram.com/p/abc/","username":"u","password":"p"}`
	if w := doRequest(s, http.MethodPost, "/api/crawl", body); w.Code != http.StatusOK {
		t.Fatalf("首个任务应入队成功: %d", w.Code)
	}
	if w := doRequest(s, http.MethodPost, "/api/crawl", body); w.Code != http.StatusServiceUnavailable {
		t.Errorf("队列满应返回503, got %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	s, store := newTestServer(t)

	if w := doRequest(s, http.MethodGet, "/api/status/absent", ""); w.Code != http.StatusNotFound {
		t.Errorf("不存在的任务应返回404, got %d", w.Code)
	}

	id := models.NewTaskID()
	store.Create(id)
	store.Update(id, models.StatusScrolling, 30, "댓글을 불러오는 중입니다")

	w := doRequest(s, http.MethodGet, "/api/status/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var progress models.CrawlProgress
	if err := json.Unmarshal(w.Body.Bytes(), &progress); err != nil {
		t.Fatal(err)
	}
	if progress.Status != models.StatusScrolling || progress.Percent != 30 {
		t.Errorf("进度快照不正确: %+v", progress)
	}
}

func TestResultEndpoint(t *testing.T) {
	s, store := newTestServer(t)

	if w := doRequest(s, http.MethodGet, "/api/result/absent", ""); w.Code != http.StatusNotFound {
		t.Errorf("不存在的任务应返回404, got %d", w.Code)
	}

	// 进行中 → 202
	id := models.NewTaskID()
	store.Create(id)
	if w := doRequest(s, http.MethodGet, "/api/result/"+id, ""); w.Code != http.StatusAccepted {
		t.Errorf("进行中任务应返回202, got %d", w.Code)
	}

	// 失败 → 404
	store.Fail(id, nil)
	if w := doRequest(s, http.MethodGet, "/api/result/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("失败任务应返回404, got %d", w.Code)
	}

	// 完成 → 200带结果
	doneID := models.NewTaskID()
	store.Create(doneID)
	store.Complete(doneID, &models.CrawlResult{
		TaskID:     doneID,
		Comments:   []models.SNSComment{{Username: "u1", Text: "좋아요"}},
		TotalCount: 1,
	})
	w := doRequest(s, http.MethodGet, "/api/result/"+doneID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var result models.CrawlResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalCount != 1 {
		t.Errorf("结果不正确: %+v", result)
	}
}

func TestExcelEndpoint(t *testing.T) {
	s, store := newTestServer(t)

	id := models.NewTaskID()
	store.Create(id)
	store.Complete(id, &models.CrawlResult{
		TaskID:     id,
		Comments:   []models.SNSComment{{Username: "u1", Text: "댓글"}},
		TotalCount: 1,
	})

	w := doRequest(s, http.MethodGet, "/api/result/"+id+"/excel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type不正确: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition不正确: %s", cd)
	}
	if w.Body.Len() == 0 {
		t.Error("响应体不应为空")
	}
}

func TestDeleteEndpoint(t *testing.T) {
	s, store := newTestServer(t)

	id := models.NewTaskID()
	store.Create(id)

	if w := doRequest(s, http.MethodDelete, "/api/task/"+id, ""); w.Code != http.StatusOK {
		t.Errorf("删除应成功, got %d", w.Code)
	}
	if w := doRequest(s, http.MethodDelete, "/api/task/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("重复删除应返回404, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	if w := doRequest(s, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}
