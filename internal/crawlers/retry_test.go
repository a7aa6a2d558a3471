package crawlers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), fastRetryConfig(), "测试操作", func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("%w: 第%d次", ErrPageTimeout, attempts)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithRetry() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	attempts := 0
	wantErr := fmt.Errorf("%w: 持续失败", ErrElementNotFound)
	err := WithRetry(context.Background(), fastRetryConfig(), "测试操作", func() error {
		attempts++
		return wantErr
	})
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	// 最后一次的错误必须原样返回
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("错误链应保留哨兵, got %v", err)
	}
	if err.Error() != wantErr.Error() {
		t.Errorf("错误不应被包装: %v", err)
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	permanent := errors.New("参数不合法")
	err := WithRetry(context.Background(), fastRetryConfig(), "测试操作", func() error {
		attempts++
		return permanent
	})
	if attempts != 1 {
		t.Errorf("不可重试错误应只执行一次, attempts = %d", attempts)
	}
	if !errors.Is(err, permanent) {
		t.Errorf("错误应原样返回: %v", err)
	}
}

func TestWithRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, fastRetryConfig(), "测试操作", func() error {
		t.Error("上下文已取消不应执行")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"浏览器崩溃", fmt.Errorf("包装: %w", ErrBrowserCrashed), true},
		{"页面超时", ErrPageTimeout, true},
		{"元素未找到", ErrElementNotFound, true},
		{"登录失败", ErrLoginFailed, false},
		{"普通错误", errors.New("其他"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBackoffDelay(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:  5,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
	}
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // 封顶
	}
	for _, tt := range tests {
		if got := backoffDelay(cfg, tt.attempt); got != tt.want {
			t.Errorf("backoffDelay(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
