package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/RecoveryAshes/KeywordSpider/internal/crawlers"
	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/storage"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// CafeCrawler 单账号的批量抓取执行体
// 一个进程只跑一个账号,板块×关键字顺序推进,每个关键字抓完落盘一次
type CafeCrawler struct {
	cfg     *Config
	account models.AccountCredential
	session *crawlers.Session
	writer  *storage.BatchWriter
	dedup   *storage.DedupSet
	summary models.RunSummary
}

// NewCafeCrawler 创建执行体
func NewCafeCrawler(cfg *Config, account models.AccountCredential) *CafeCrawler {
	outputPath := filepath.Join(cfg.OutputFolder, utils.WeeklyFilename(account.Group, time.Now()))
	return &CafeCrawler{
		cfg:     cfg,
		account: account,
		writer:  storage.NewBatchWriter(outputPath),
		dedup:   storage.NewDedupSet(),
		summary: models.RunSummary{
			Group:      account.Group,
			Cafes:      len(cfg.Cafes),
			Keywords:   len(cfg.Keywords),
			OutputFile: outputPath,
		},
	}
}

// Run 执行完整抓取流程
func (c *CafeCrawler) Run(ctx context.Context) (*models.RunSummary, error) {
	started := time.Now()
	utils.Infof("🚀 [%s] 批量抓取启动: %d个板块 × %d个关键字",
		c.account.Group, len(c.cfg.Cafes), len(c.cfg.Keywords))

	if err := os.MkdirAll(c.cfg.OutputFolder, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := c.dedup.LoadFromWorkbook(c.summary.OutputFile); err != nil {
		utils.Warnf("⚠️ [%s] 去重回填失败: %v", c.account.Group, err)
	}

	sessCfg := crawlers.SessionConfig{
		Headless:        c.cfg.Crawl.Headless,
		PageLoadTimeout: c.cfg.Crawl.PageLoadTimeout(),
		ElementTimeout:  c.cfg.Crawl.ElementTimeout(),
		RestartInterval: c.cfg.Crawl.RestartInterval(),
		CookieDir:       c.cfg.CookieFolder,
		ScreenshotDir:   c.cfg.LogFolder,
		MemoryLimitMB:   uint64(c.cfg.Crawl.MemoryLimitMB),
	}
	c.session = crawlers.NewSession(sessCfg, c.account)
	if err := c.session.Start(ctx); err != nil {
		return nil, err
	}
	defer c.session.Close()

	for _, cafe := range c.assignedCafes() {
		for _, keyword := range c.cfg.Keywords {
			if err := ctx.Err(); err != nil {
				return c.finish(started), err
			}
			kwErr := c.crawlKeyword(ctx, cafe, keyword)
			if kwErr != nil {
				utils.Errorf("❌ [%s] %s/%s 抓取中断: %v", c.account.Group, cafe.Name, keyword, kwErr)
				c.summary.Failed++
			}
			// 关键字级落盘,失败的关键字也先把已有结果写掉
			if err := c.writer.Flush(); err != nil {
				utils.Errorf("❌ [%s] 落盘失败: %v", c.account.Group, err)
			}
			// 登录态彻底丢失时继续跑下去没有意义
			if errors.Is(kwErr, crawlers.ErrLoginFailed) {
				return c.finish(started), kwErr
			}
		}
	}

	summary := c.finish(started)
	utils.Infof("📊 [%s] 抓取完成: 新增%d条, 跳过%d条, 失败%d次, 重启%d次, 耗时%.0fs",
		summary.Group, summary.NewRecords, summary.Skipped, summary.Failed, summary.Restarts, summary.ElapsedSec)
	return summary, nil
}

// crawlKeyword 单板块单关键字的完整翻页抓取
func (c *CafeCrawler) crawlKeyword(ctx context.Context, cafe models.CafeInfo, keyword string) error {
	extractor := crawlers.NewExtractor(c.session)
	retryCfg := crawlers.DefaultRetryConfig()
	if c.cfg.Crawl.RetryAttempts > 0 {
		retryCfg.MaxAttempts = c.cfg.Crawl.RetryAttempts
	}

	for pageNum := 1; pageNum <= c.cfg.Crawl.MaxPages; pageNum++ {
		if err := c.maybeRestart(ctx); err != nil {
			return err
		}

		var targets []models.Target
		err := crawlers.WithRetry(ctx, retryCfg, "搜索列表页", func() error {
			var inner error
			targets, inner = extractor.CollectTargets(ctx, cafe, keyword, pageNum)
			return inner
		})
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			break
		}

		bar := utils.NewProgressBar(len(targets), cafe.Name+"/"+keyword)
		for _, target := range targets {
			_ = bar.Add(1)
			if c.dedup.Has(target.URL) {
				c.summary.Skipped++
				continue
			}
			if err := c.maybeRestart(ctx); err != nil {
				return err
			}
			c.crawlTarget(ctx, extractor, retryCfg, target)
		}

		time.Sleep(crawlers.PageDelay())
	}
	return nil
}

// crawlTarget 抓取单个帖子,失败只记数不中断关键字
func (c *CafeCrawler) crawlTarget(ctx context.Context, extractor *crawlers.Extractor, retryCfg crawlers.RetryConfig, target models.Target) {
	var rec *models.Record
	err := crawlers.WithRetry(ctx, retryCfg, "抓取帖子", func() error {
		var inner error
		rec, inner = extractor.CollectPost(ctx, target)
		return inner
	})
	if err != nil {
		if errors.Is(err, crawlers.ErrNoIdentity) {
			utils.Warnf("⚠️ [%s] 帖子身份信息缺失, 放弃: %s", c.account.Group, target.URL)
		}
		c.summary.Failed++
		return
	}

	// 先登记去重再交给写入器,同一URL绝不二次入库
	if !c.dedup.Add(target.URL) {
		c.summary.Skipped++
		return
	}
	c.writer.Add(rec)
	c.summary.NewRecords++
}

// maybeRestart 达到重启条件时重建会话
// 重启前先把缓冲落盘,重启后重新回填去重集合,再继续下一个目标
func (c *CafeCrawler) maybeRestart(ctx context.Context) error {
	if !c.session.NeedsRestart() {
		return nil
	}
	if err := c.writer.Flush(); err != nil {
		utils.Warnf("⚠️ [%s] 重启前落盘失败: %v", c.account.Group, err)
	}
	if err := c.session.Restart(ctx); err != nil {
		return err
	}
	return c.dedup.LoadFromWorkbook(c.summary.OutputFile)
}

// assignedCafes 账号配置了专属板块时只跑这些板块,否则跑全部
func (c *CafeCrawler) assignedCafes() []models.CafeInfo {
	if len(c.account.Cafes) == 0 {
		return c.cfg.Cafes
	}
	assigned := make(map[string]bool, len(c.account.Cafes))
	for _, name := range c.account.Cafes {
		assigned[name] = true
	}
	var cafes []models.CafeInfo
	for _, cafe := range c.cfg.Cafes {
		if assigned[cafe.Name] {
			cafes = append(cafes, cafe)
		}
	}
	return cafes
}

func (c *CafeCrawler) finish(started time.Time) *models.RunSummary {
	c.summary.Restarts = c.session.Restarts()
	c.summary.ElapsedSec = time.Since(started).Seconds()
	return &c.summary
}
