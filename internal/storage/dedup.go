package storage

import (
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// DedupSet 已抓取URL集合
// 启动时从历史产出文件回填,运行中先占位再抓取,保证同一URL只入库一次
type DedupSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDedupSet 创建空集合
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// Add 登记URL,已存在返回false
func (d *DedupSet) Add(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[url]; ok {
		return false
	}
	d.seen[url] = struct{}{}
	return true
}

// Has 查询URL是否已登记
func (d *DedupSet) Has(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[url]
	return ok
}

// Len 当前集合大小
func (d *DedupSet) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// LoadFromWorkbook 从历史产出文件的URL列回填集合
// 文件不存在视为首次运行,不算错误
func (d *DedupSet) LoadFromWorkbook(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		utils.Infof("📂 历史文件不存在, 去重集合从空开始: %s", path)
		return nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	urlCol := -1
	for i, header := range rows[0] {
		if header == "URL" {
			urlCol = i
			break
		}
	}
	if urlCol < 0 {
		utils.Warnf("⚠️ 历史文件没有URL列, 跳过去重回填: %s", path)
		return nil
	}

	loaded := 0
	for _, row := range rows[1:] {
		if urlCol < len(row) && row[urlCol] != "" {
			if d.Add(row[urlCol]) {
				loaded++
			}
		}
	}
	utils.Infof("📂 从历史文件回填%d条已抓取URL", loaded)
	return nil
}
