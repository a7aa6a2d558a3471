package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// 批量模式的进程隔离:
// 协调进程为每个账号重新拉起自身二进制(run --account <组名>),
// 浏览器崩溃、内存泄漏都被圈在子进程里,互不影响。

// BatchResult 单账号子进程的执行结果
type BatchResult struct {
	Group string
	Err   error
}

// RunBatch 并发拉起全部账号子进程并等待收尾
// 任一子进程失败不影响其他进程,全部结束后统一汇总
func RunBatch(ctx context.Context, cfg *Config, configPath string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("定位自身二进制失败: %w", err)
	}

	utils.Infof("🚀 批量协调启动: %d个账号, 每账号独立进程", len(cfg.Accounts))

	var wg sync.WaitGroup
	results := make(chan BatchResult, len(cfg.Accounts))

	for _, acc := range cfg.Accounts {
		wg.Add(1)
		go func(group string) {
			defer wg.Done()
			results <- BatchResult{Group: group, Err: runChild(ctx, self, configPath, group)}
		}(acc.Group)
	}

	wg.Wait()
	close(results)

	failed := 0
	for res := range results {
		if res.Err != nil {
			failed++
			utils.Errorf("❌ 账号组 %s 执行失败: %v", res.Group, res.Err)
		} else {
			utils.Infof("✅ 账号组 %s 执行完成", res.Group)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d/%d个账号组执行失败", failed, len(cfg.Accounts))
	}
	utils.Infof("🎉 全部%d个账号组执行完成", len(cfg.Accounts))
	return nil
}

// runChild 拉起单账号子进程并转发其输出
func runChild(ctx context.Context, binary, configPath, group string) error {
	args := []string{"run", "--account", group}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		_ = pw.Close()
		return fmt.Errorf("启动子进程失败: %w", err)
	}

	done := make(chan struct{})
	go func() {
		forwardOutput(group, pr)
		close(done)
	}()

	waitErr := cmd.Wait()
	_ = pw.Close()
	<-done

	if waitErr != nil {
		return fmt.Errorf("子进程退出异常: %w", waitErr)
	}
	return nil
}

// forwardOutput 给子进程输出加组名前缀后转发
func forwardOutput(group string, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		fmt.Printf("[%s] %s\n", group, scanner.Text())
	}
}
