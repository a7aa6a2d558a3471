package crawlers

import (
	"os"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
)

func TestMemoryPressure(t *testing.T) {
	tests := []struct {
		name    string
		limitMB uint64
		want    bool
	}{
		{"极低阈值必触发", 1, true},
		{"极高阈值不触发", 1 << 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MemoryPressure(tt.limitMB); got != tt.want {
				t.Errorf("MemoryPressure(%d) = %v, 期望 %v", tt.limitMB, got, tt.want)
			}
		})
	}
}

func TestTreeRSSIncludesSelf(t *testing.T) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		t.Fatalf("获取当前进程失败: %v", err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil || mem == nil {
		t.Skip("当前平台不支持MemoryInfo")
	}
	if total := treeRSS(proc, childDepthLimit); total < mem.RSS {
		t.Errorf("进程树RSS %d 不应小于自身RSS %d", total, mem.RSS)
	}
}
