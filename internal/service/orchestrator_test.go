package service

import (
	"testing"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
)

func TestBuildResultCounts(t *testing.T) {
	comments := []models.SNSComment{
		{Username: "u1", Text: "댓글1", IsReply: false, IsFollower: true},
		{Username: "u2", Text: "댓글2", IsReply: true, IsFollower: false},
		{Username: "u3", Text: "댓글3", IsReply: true, IsFollower: true},
		{Username: "u4", Text: "댓글4", IsReply: false, IsFollower: false},
	}

	result := buildResult("task-1", "https://www.instagram.com/p/abc/", comments)

	if result.TotalCount != 4 {
		t.Errorf("TotalCount = %d, want 4", result.TotalCount)
	}
	if result.ReplyCount != 2 {
		t.Errorf("ReplyCount = %d, want 2", result.ReplyCount)
	}
	if result.FollowerCount != 2 {
		t.Errorf("FollowerCount = %d, want 2", result.FollowerCount)
	}
	if result.NonFollowerCount != 2 {
		t.Errorf("NonFollowerCount = %d, want 2", result.NonFollowerCount)
	}
	if result.FollowerCount+result.NonFollowerCount != result.TotalCount {
		t.Error("关注与未关注之和应等于总数")
	}
	if result.CompletedAt.IsZero() {
		t.Error("CompletedAt应被填充")
	}
}

func TestBuildResultEmpty(t *testing.T) {
	result := buildResult("task-2", "https://www.instagram.com/p/xyz/", nil)
	if result.TotalCount != 0 || result.NonFollowerCount != 0 {
		t.Errorf("空评论的计数应全为0: %+v", result)
	}
}
