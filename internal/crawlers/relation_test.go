package crawlers

import (
	"context"
	"testing"
)

func TestCheckAllDegradesWhenListUnavailable(t *testing.T) {
	// 页面不可用时OpenFollowerList必然失败,
	// 核验结果应整体降级为未关注,而不是把错误抛给任务
	fc := NewFollowerChecker(nil, 1.0)
	names := []string{"user1", "user2", "user3"}

	progressed := false
	results, err := fc.CheckAll(context.Background(), "author", names, func(float64) {
		progressed = true
	})
	if err != nil {
		t.Fatalf("粉丝列表打不开不应返回错误, got %v", err)
	}
	if len(results) != len(names) {
		t.Fatalf("结果数 = %d, want %d", len(results), len(names))
	}
	for _, name := range names {
		hit, ok := results[name]
		if !ok {
			t.Errorf("缺少 %s 的结果", name)
		}
		if hit {
			t.Errorf("%s 应按未关注处理", name)
		}
	}
	if !progressed {
		t.Error("降级路径也应上报进度")
	}
}
