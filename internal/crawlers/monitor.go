package crawlers

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// 子进程遍历深度, Chrome的进程树为 launcher -> chrome -> renderer
const childDepthLimit = 2

// MemoryPressure 检查进程树RSS总和是否超过limitMB
// 浏览器内存大头在Chrome子进程里,只看自身RSS会严重低估,
// 超限后由会话层安排重启释放
func MemoryPressure(limitMB uint64) bool {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return false
	}
	return treeRSS(proc, childDepthLimit)/1024/1024 >= limitMB
}

// treeRSS 累加进程自身与子进程的RSS, 单个子进程采样失败不影响整体
func treeRSS(proc *process.Process, depth int) uint64 {
	var total uint64
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		total += mem.RSS
	}
	if depth <= 0 {
		return total
	}
	children, err := proc.Children()
	if err != nil {
		return total
	}
	for _, child := range children {
		total += treeRSS(child, depth-1)
	}
	return total
}
