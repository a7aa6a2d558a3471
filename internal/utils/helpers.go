package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	nonDigitRegex   = regexp.MustCompile(`\D`)
	articleIDRegex  = regexp.MustCompile(`/articles/(\d+)`)
)

// NormalizeText 文本归一化
// 将换行/回车替换为空格,压缩连续空白为单个空格,去除首尾空白
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\r", " ")
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// DigitsOnly 仅保留数字字符,结果为空时返回"0"
// 用于点赞数等计数字段的提取
func DigitsOnly(text string) string {
	digits := nonDigitRegex.ReplaceAllString(strings.TrimSpace(text), "")
	if digits == "" {
		return "0"
	}
	return digits
}

// ExtractArticleID 从URL中提取帖子ID
// 匹配 /articles/<数字> 路径段,未匹配返回空字符串
func ExtractArticleID(urlStr string) string {
	match := articleIDRegex.FindStringSubmatch(urlStr)
	if match == nil {
		return ""
	}
	return match[1]
}

// WeekRange 计算输出文件名用的周区间(上周二~本周一)
func WeekRange(now time.Time) (time.Time, time.Time) {
	weekday := int(now.Weekday())
	// Go的Weekday: Sunday=0, Monday=1 ... 换算为Monday=0
	offset := (weekday + 6) % 7
	thisMonday := now.AddDate(0, 0, -offset)
	lastTuesday := thisMonday.AddDate(0, 0, -6)
	return lastTuesday, thisMonday
}

// WeeklyFilename 生成周报xlsx文件名
// 格式: 키워드모니터링_<分组>_<上周二>~<本周一日>.xlsx (沿用原有产物命名,保证增量续写)
func WeeklyFilename(group string, now time.Time) string {
	lastTuesday, thisMonday := WeekRange(now)
	return fmt.Sprintf("키워드모니터링_%s_%s~%s.xlsx",
		group,
		lastTuesday.Format("2006-01-02"),
		thisMonday.Format("02"))
}

// ConvertUTCToKST UTC时间字符串转KST(UTC+9)
// 输入为ISO-8601格式,转换失败时原样返回
func ConvertUTCToKST(utcStr string) string {
	if utcStr == "" {
		return ""
	}
	cleaned := strings.ReplaceAll(utcStr, ".000", "")
	t, err := time.Parse(time.RFC3339, cleaned)
	if err != nil {
		return utcStr
	}
	return t.Add(9 * time.Hour).Format("2006-01-02 15:04:05")
}

// NewProgressBar 创建进度条
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
