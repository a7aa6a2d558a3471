package service

import (
	"errors"
	"testing"
	"time"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
)

func TestTaskStoreLifecycle(t *testing.T) {
	s := NewTaskStore()
	id := models.NewTaskID()

	progress := s.Create(id)
	if progress.Status != models.StatusPending || progress.Percent != 0 {
		t.Fatalf("新建任务状态不正确: %+v", progress)
	}

	s.Update(id, models.StatusLoggingIn, 10, "로그인 중")
	progress, err := s.Progress(id)
	if err != nil {
		t.Fatal(err)
	}
	if progress.Status != models.StatusLoggingIn || progress.Percent != 10 {
		t.Errorf("更新后状态不正确: %+v", progress)
	}
}

func TestTaskStoreProgressMonotonic(t *testing.T) {
	s := NewTaskStore()
	id := models.NewTaskID()
	s.Create(id)

	s.Update(id, models.StatusScrolling, 40, "")
	// 进度回退应被钳制
	s.Update(id, models.StatusScrolling, 25, "")
	progress, _ := s.Progress(id)
	if progress.Percent != 40 {
		t.Errorf("进度不应回退: %d, want 40", progress.Percent)
	}

	// 超过100应被钳制
	s.Update(id, models.StatusExtracting, 150, "")
	progress, _ = s.Progress(id)
	if progress.Percent != 100 {
		t.Errorf("进度不应超过100: %d", progress.Percent)
	}
}

func TestTaskStoreTerminalImmutable(t *testing.T) {
	s := NewTaskStore()
	id := models.NewTaskID()
	s.Create(id)

	s.Complete(id, &models.CrawlResult{TaskID: id})
	s.Update(id, models.StatusScrolling, 30, "변경 시도")
	s.Fail(id, errors.New("변경 시도"))

	progress, _ := s.Progress(id)
	if progress.Status != models.StatusCompleted {
		t.Errorf("终态任务不应被改写: %s", progress.Status)
	}
	if progress.Percent != 100 {
		t.Errorf("完成任务进度应为100: %d", progress.Percent)
	}

	result, _, err := s.Result(id)
	if err != nil || result == nil {
		t.Fatalf("完成任务应有结果: result=%v err=%v", result, err)
	}
}

func TestTaskStoreFail(t *testing.T) {
	s := NewTaskStore()
	id := models.NewTaskID()
	s.Create(id)

	s.Fail(id, errors.New("로그인 실패"))
	progress, _ := s.Progress(id)
	if progress.Status != models.StatusFailed {
		t.Errorf("状态应为failed: %s", progress.Status)
	}
	if progress.Error == "" {
		t.Error("失败原因应被记录")
	}

	result, _, err := s.Result(id)
	if err != nil {
		t.Fatal(err)
	}
	if result != nil {
		t.Error("失败任务不应有结果")
	}
}

func TestTaskStoreNotFound(t *testing.T) {
	s := NewTaskStore()

	if _, err := s.Progress("absent"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Progress应返回ErrTaskNotFound: %v", err)
	}
	if _, _, err := s.Result("absent"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Result应返回ErrTaskNotFound: %v", err)
	}
	if err := s.Delete("absent"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Delete应返回ErrTaskNotFound: %v", err)
	}
}

func TestTaskStoreDelete(t *testing.T) {
	s := NewTaskStore()
	id := models.NewTaskID()
	s.Create(id)

	if err := s.Delete(id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Progress(id); !errors.Is(err, ErrTaskNotFound) {
		t.Error("删除后不应再查到任务")
	}
}

func TestTaskStoreSweep(t *testing.T) {
	s := NewTaskStore()

	doneID := models.NewTaskID()
	s.Create(doneID)
	s.Complete(doneID, &models.CrawlResult{TaskID: doneID})

	runningID := models.NewTaskID()
	s.Create(runningID)
	s.Update(runningID, models.StatusScrolling, 30, "")

	// ttl为0, 终态任务立即过期
	time.Sleep(time.Millisecond)
	if n := s.Sweep(0); n != 1 {
		t.Errorf("Sweep应清理1个终态任务, got %d", n)
	}
	if _, err := s.Progress(doneID); err == nil {
		t.Error("终态任务应被清理")
	}
	if _, err := s.Progress(runningID); err != nil {
		t.Error("进行中任务不应被清理")
	}
}
