package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// WriteSummary 把运行汇总写成JSON,供协调进程或人工复盘
func WriteSummary(dir string, summary *models.RunSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("创建汇总目录失败: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("summary_%s.json", summary.Group))
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入汇总文件失败: %w", err)
	}
	utils.Infof("📄 运行汇总已写入: %s", path)
	return nil
}
