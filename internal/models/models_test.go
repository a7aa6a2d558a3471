package models

import "testing"

func TestCrawlRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CrawlRequest
		wantErr bool
	}{
		{
			"合法请求",
			CrawlRequest{PostURL: "https://www.instagram.com/p/abc123/", Username: "user", Password: "pass"},
			false,
		},
		{
			"非法URL",
			CrawlRequest{PostURL: "://bad", Username: "user", Password: "pass"},
			true,
		},
		{
			"非http协议",
			CrawlRequest{PostURL: "ftp://example.com/p/1", Username: "user", Password: "pass"},
			true,
		},
		{
			"缺少账号",
			CrawlRequest{PostURL: "https://example.com/p/1", Username: "  ", Password: "pass"},
			true,
		},
		{
			"缺少密码",
			CrawlRequest{PostURL: "https://example.com/p/1", Username: "user", Password: ""},
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTaskStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status TaskStatus
		want   bool
	}{
		{StatusPending, false},
		{StatusLoggingIn, false},
		{StatusScrolling, false},
		{StatusExtracting, false},
		{StatusCheckingFollowers, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestRecordHasIdentity(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"作者标题齐全", Record{Author: "작성자", Title: "제목"}, true},
		{"仅有作者", Record{Author: "작성자"}, true},
		{"仅有标题", Record{Title: "제목"}, true},
		{"全部缺失", Record{Content: "내용만 있음"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.HasIdentity(); got != tt.want {
				t.Errorf("HasIdentity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewTaskID(t *testing.T) {
	a, b := NewTaskID(), NewTaskID()
	if a == "" || b == "" {
		t.Fatal("任务ID不应为空")
	}
	if a == b {
		t.Errorf("两次生成的任务ID不应相同: %s", a)
	}
	if len(a) != 36 {
		t.Errorf("任务ID应为UUID格式, 长度 = %d", len(a))
	}
}
