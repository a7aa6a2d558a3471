package storage

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// 批量产出的固定表头,评论列按需在其后增长
var batchHeaders = []string{"채널", "키워드", "닉네임", "날짜", "제목", "내용", "좋아요", "URL"}

const (
	sheetName   = "Sheet1"
	maxColWidth = 50.0
)

// BatchWriter 增量落盘的周报表写入器
// 记录先进缓冲,每个关键字抓完调用Flush追加写入,进程中途退出最多丢一个关键字
type BatchWriter struct {
	mu     sync.Mutex
	path   string
	buffer []*models.Record
}

// NewBatchWriter 创建写入器,目标文件已存在则追加
func NewBatchWriter(path string) *BatchWriter {
	return &BatchWriter{path: path}
}

// Add 缓冲一条记录
func (w *BatchWriter) Add(rec *models.Record) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = append(w.buffer, rec)
}

// Pending 当前缓冲条数
func (w *BatchWriter) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}

// Flush 把缓冲追加到产出文件并清空缓冲
// 缓冲为空时不碰文件
func (w *BatchWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buffer) == 0 {
		return nil
	}

	f, existing, err := w.openWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("读取现有表格: %w", err)
	}

	// 评论列数取现有表头与新记录的最大值,只增不减
	commentCols := 0
	if len(rows) > 0 && len(rows[0]) > len(batchHeaders) {
		commentCols = len(rows[0]) - len(batchHeaders)
	}
	for _, rec := range w.buffer {
		if len(rec.Comments) > commentCols {
			commentCols = len(rec.Comments)
		}
	}

	if err := w.writeHeader(f, commentCols); err != nil {
		return err
	}

	startRow := len(rows)
	if startRow == 0 {
		startRow = 1
	}
	for i, rec := range w.buffer {
		if err := w.writeRecord(f, startRow+i+1, rec); err != nil {
			return err
		}
	}

	if err := w.applyColumnWidths(f, commentCols); err != nil {
		return err
	}

	if existing {
		err = f.Save()
	} else {
		err = f.SaveAs(w.path)
	}
	if err != nil {
		return fmt.Errorf("保存产出文件: %w", err)
	}

	utils.Infof("💾 已落盘%d条记录 → %s", len(w.buffer), w.path)
	w.buffer = w.buffer[:0]
	return nil
}

func (w *BatchWriter) openWorkbook() (*excelize.File, bool, error) {
	if _, err := os.Stat(w.path); err == nil {
		f, err := excelize.OpenFile(w.path)
		if err != nil {
			return nil, false, fmt.Errorf("打开产出文件: %w", err)
		}
		return f, true, nil
	}
	return excelize.NewFile(), false, nil
}

// writeHeader 覆写表头行,评论列数变化时自动扩展
func (w *BatchWriter) writeHeader(f *excelize.File, commentCols int) error {
	headers := make([]string, 0, len(batchHeaders)+commentCols)
	headers = append(headers, batchHeaders...)
	for i := 1; i <= commentCols; i++ {
		headers = append(headers, fmt.Sprintf("댓글%d", i))
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	lastCell, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, "A1", lastCell, style)
}

func (w *BatchWriter) writeRecord(f *excelize.File, row int, rec *models.Record) error {
	values := []interface{}{
		rec.Channel, rec.Keyword, rec.Author, rec.Date,
		rec.Title, rec.Content, rec.Likes, rec.URL,
	}
	for _, c := range rec.Comments {
		values = append(values, c)
	}
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, v); err != nil {
			return err
		}
	}
	return nil
}

// applyColumnWidths 按列内容长度调整列宽,封顶50
func (w *BatchWriter) applyColumnWidths(f *excelize.File, commentCols int) error {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return err
	}
	total := len(batchHeaders) + commentCols
	for col := 0; col < total; col++ {
		maxLen := 0
		for _, row := range rows {
			if col < len(row) && len(row[col]) > maxLen {
				maxLen = len(row[col])
			}
		}
		width := float64(maxLen) + 2
		if width > maxColWidth {
			width = maxColWidth
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

// 服务模式导出表头与列宽
var (
	serviceHeaders   = []string{"번호", "닉네임", "댓글 내용", "작성시간", "답글 여부", "팔로우 여부"}
	serviceColWidths = []float64{8, 20, 60, 20, 12, 12}
)

// RenderServiceWorkbook 把任务结果渲染成xlsx并返回内存缓冲
// 服务模式按请求生成,不落盘
func RenderServiceWorkbook(result *models.CrawlResult) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, err
	}
	bodyStyle, err := f.NewStyle(&excelize.Style{Border: thinBorders()})
	if err != nil {
		return nil, err
	}

	for i, h := range serviceHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, err
		}
	}

	for i, c := range result.Comments {
		row := i + 2
		values := []interface{}{
			i + 1, c.Username, c.Text, c.Timestamp,
			yesNo(c.IsReply), yesNo(c.IsFollower),
		}
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, err
			}
		}
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(serviceHeaders), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, err
	}
	if len(result.Comments) > 0 {
		lastCell, err := excelize.CoordinatesToCellName(len(serviceHeaders), len(result.Comments)+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheetName, "A2", lastCell, bodyStyle); err != nil {
			return nil, err
		}
	}

	for i, width := range serviceColWidths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	borders := make([]excelize.Border, 0, len(sides))
	for _, s := range sides {
		borders = append(borders, excelize.Border{Type: s, Style: 1, Color: "000000"})
	}
	return borders
}

func yesNo(b bool) string {
	if b {
		return "O"
	}
	return "X"
}
