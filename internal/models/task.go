package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus 任务所处阶段
type TaskStatus string

const (
	StatusPending           TaskStatus = "pending"
	StatusLoggingIn         TaskStatus = "logging_in"
	StatusScrolling         TaskStatus = "scrolling"
	StatusExtracting        TaskStatus = "extracting"
	StatusCheckingFollowers TaskStatus = "checking_followers"
	StatusCompleted         TaskStatus = "completed"
	StatusFailed            TaskStatus = "failed"
)

// IsTerminal 终态任务不再接受任何状态或进度更新
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CrawlRequest 评论抓取任务请求
type CrawlRequest struct {
	PostURL        string `json:"post_url" binding:"required"`
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password" binding:"required"`
	CheckFollowers bool   `json:"check_followers"`
}

// Validate 校验请求参数
func (r *CrawlRequest) Validate() error {
	u, err := url.Parse(r.PostURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("post_url 不是合法的URL: %s", r.PostURL)
	}
	if !strings.HasPrefix(u.Scheme, "http") {
		return fmt.Errorf("post_url 仅支持http/https: %s", r.PostURL)
	}
	if strings.TrimSpace(r.Username) == "" || strings.TrimSpace(r.Password) == "" {
		return fmt.Errorf("账号和密码不能为空")
	}
	return nil
}

// CrawlProgress 任务进度快照
type CrawlProgress struct {
	TaskID    string     `json:"task_id"`
	Status    TaskStatus `json:"status"`
	Percent   int        `json:"percent"`
	Message   string     `json:"message"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CrawlResult 任务最终产出
type CrawlResult struct {
	TaskID           string       `json:"task_id"`
	PostURL          string       `json:"post_url"`
	Comments         []SNSComment `json:"comments"`
	TotalCount       int          `json:"total_count"`
	ReplyCount       int          `json:"reply_count"`
	FollowerCount    int          `json:"follower_count"`
	NonFollowerCount int          `json:"non_follower_count"`
	CompletedAt      time.Time    `json:"completed_at"`
}

// NewTaskID 生成任务标识
func NewTaskID() string {
	return uuid.New().String()
}
