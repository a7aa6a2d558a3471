package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/KeywordSpider/internal/core"
	"github.com/RecoveryAshes/KeywordSpider/internal/service"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

var (
	version = "1.0.0"

	configPath string
	account    string
)

func main() {
	root := &cobra.Command{
		Use:   "keywordspider",
		Short: "关键字监控抓取引擎",
		Long:  "多账号批量关键字抓取与按需评论抓取服务",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "执行批量关键字抓取",
		Long:  "不带--account时作为协调进程为每个账号拉起子进程, 带--account时只跑指定账号组",
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&account, "account", "", "仅运行指定账号组(子进程模式)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动任务编排HTTP服务",
		RunE:  runServe,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "打印版本号",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("keywordspider v%s\n", version)
		},
	}

	root.AddCommand(runCmd, serveCmd, versionCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// signalContext 响应Ctrl+C和SIGTERM的根上下文
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func setupLogger(cfg *core.Config, group string) error {
	return utils.InitLogger(utils.LogConfig{
		Level:      cfg.Log.Level,
		LogDir:     cfg.LogFolder,
		Group:      group,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// 子进程模式: 只跑一个账号组
	if account != "" {
		if err := setupLogger(cfg, account); err != nil {
			return err
		}
		acc, err := cfg.AccountByGroup(account)
		if err != nil {
			return err
		}
		crawler := core.NewCafeCrawler(cfg, acc)
		summary, err := crawler.Run(ctx)
		if summary != nil {
			if werr := core.WriteSummary(cfg.OutputFolder, summary); werr != nil {
				utils.Warnf("⚠️ 写入运行汇总失败: %v", werr)
			}
		}
		return err
	}

	// 协调进程模式
	if err := setupLogger(cfg, "coordinator"); err != nil {
		return err
	}
	return core.RunBatch(ctx, cfg, configPath)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg, "serve"); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	store := service.NewTaskStore()
	orchestrator := service.NewOrchestrator(ctx, store, service.OrchestratorConfig{
		Workers:     cfg.Serve.Workers,
		QueueSize:   cfg.Serve.QueueSize,
		Headless:    cfg.Serve.Headless,
		FollowerRPS: cfg.Serve.FollowerRPS,
		TaskTTL:     time.Duration(cfg.Serve.TaskTTLMinute) * time.Minute,
	})

	server := service.NewServer(store, orchestrator)
	return server.Run(cfg.Serve.Listen)
}
