package crawlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// 可重试错误哨兵
var (
	// ErrBrowserCrashed 浏览器连接断开,需要重建会话
	ErrBrowserCrashed = errors.New("浏览器连接已断开")
	// ErrPageTimeout 页面加载或元素等待超时
	ErrPageTimeout = errors.New("页面操作超时")
	// ErrElementNotFound 选择器链全部未命中
	ErrElementNotFound = errors.New("未找到目标元素")
	// ErrLoginFailed 登录流程在限定时间内未完成
	ErrLoginFailed = errors.New("登录失败")
)

// RetryConfig 重试策略配置
type RetryConfig struct {
	MaxAttempts  int           // 最大尝试次数(含首次)
	InitialDelay time.Duration // 首次失败后的等待
	MaxDelay     time.Duration // 退避上限
}

// DefaultRetryConfig 默认策略: 3次尝试,1s起步指数退避,封顶10s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// IsRetryable 判断错误是否值得重试
// 参数类错误(非法URL等)重试没有意义,直接向上返回
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBrowserCrashed) ||
		errors.Is(err, ErrPageTimeout) ||
		errors.Is(err, ErrElementNotFound)
}

// WithRetry 按指数退避执行fn
// 不可重试的错误和最后一次失败的错误原样返回,不做包装
func WithRetry(ctx context.Context, cfg RetryConfig, label string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := backoffDelay(cfg, attempt)
		utils.Warnf("⚠️ %s 第%d次失败: %v, %v后重试", label, attempt, lastErr, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	utils.Errorf("❌ %s 重试%d次后仍然失败: %v", label, cfg.MaxAttempts, lastErr)
	return lastErr
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	d := time.Duration(float64(cfg.InitialDelay) * math.Pow(2, float64(attempt-1)))
	if d > cfg.MaxDelay {
		d = cfg.MaxDelay
	}
	return d
}

// wrapTimeout 将底层超时错误规整为哨兵,保留原始信息
func wrapTimeout(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", ErrPageTimeout, op)
	}
	return fmt.Errorf("%s: %w", op, err)
}
