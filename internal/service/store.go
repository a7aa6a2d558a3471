package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
)

// ErrTaskNotFound 任务不存在或已被删除
var ErrTaskNotFound = fmt.Errorf("任务不存在")

type taskEntry struct {
	progress models.CrawlProgress
	result   *models.CrawlResult
}

// TaskStore 进程内任务状态表
// 进度只增不减,终态写入后整条任务只读
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*taskEntry
}

// NewTaskStore 创建空任务表
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*taskEntry)}
}

// Create 登记新任务,初始为pending/0%
func (s *TaskStore) Create(taskID string) models.CrawlProgress {
	now := time.Now()
	progress := models.CrawlProgress{
		TaskID:    taskID,
		Status:    models.StatusPending,
		Percent:   0,
		Message:   "작업이 대기열에 등록되었습니다",
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[taskID] = &taskEntry{progress: progress}
	return progress
}

// Update 更新任务状态与进度
// 终态任务忽略一切后续更新;进度回退会被钳制到已有值
func (s *TaskStore) Update(taskID string, status models.TaskStatus, percent int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tasks[taskID]
	if !ok || entry.progress.Status.IsTerminal() {
		return
	}
	if percent < entry.progress.Percent {
		percent = entry.progress.Percent
	}
	if percent > 100 {
		percent = 100
	}

	entry.progress.Status = status
	entry.progress.Percent = percent
	entry.progress.Message = message
	entry.progress.UpdatedAt = time.Now()
}

// Complete 写入结果并置为完成态
func (s *TaskStore) Complete(taskID string, result *models.CrawlResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tasks[taskID]
	if !ok || entry.progress.Status.IsTerminal() {
		return
	}
	entry.result = result
	entry.progress.Status = models.StatusCompleted
	entry.progress.Percent = 100
	entry.progress.Message = "작업이 완료되었습니다"
	entry.progress.UpdatedAt = time.Now()
}

// Fail 置为失败态并记录原因
func (s *TaskStore) Fail(taskID string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tasks[taskID]
	if !ok || entry.progress.Status.IsTerminal() {
		return
	}
	entry.progress.Status = models.StatusFailed
	entry.progress.Message = "작업이 실패했습니다"
	if cause != nil {
		entry.progress.Error = cause.Error()
	}
	entry.progress.UpdatedAt = time.Now()
}

// Progress 查询任务进度快照
func (s *TaskStore) Progress(taskID string) (models.CrawlProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tasks[taskID]
	if !ok {
		return models.CrawlProgress{}, ErrTaskNotFound
	}
	return entry.progress, nil
}

// Result 查询任务结果
// 任务存在但未完成时返回进行中标记(result为nil且err为nil)
func (s *TaskStore) Result(taskID string) (*models.CrawlResult, models.CrawlProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.tasks[taskID]
	if !ok {
		return nil, models.CrawlProgress{}, ErrTaskNotFound
	}
	return entry.result, entry.progress, nil
}

// Delete 删除任务记录
func (s *TaskStore) Delete(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[taskID]; !ok {
		return ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// Sweep 清理超过ttl未更新的终态任务,返回清理条数
func (s *TaskStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-ttl)
	for id, entry := range s.tasks {
		if entry.progress.Status.IsTerminal() && entry.progress.UpdatedAt.Before(cutoff) {
			delete(s.tasks, id)
			removed++
		}
	}
	return removed
}
