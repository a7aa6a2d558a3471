package crawlers

import (
	"fmt"
	"strings"

	"github.com/go-rod/rod"

	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// 目标站点把帖子正文渲染在嵌套iframe里,且iframe的name在改版中变动过。
// 这里不依赖固定name,而是枚举当前层的全部iframe,按URL特征匹配,
// 最深两层寻找,都找不到时回退到顶层页面让选择器链自行兜底。

// FindArticleFrame 在page中寻找承载帖子正文的iframe
// 依据: frame内URL包含 /articles/<目标ID> 路径
func FindArticleFrame(page *rod.Page, articleID string) *rod.Page {
	marker := "/articles/" + articleID
	if frame := findFrameByURL(page, marker, 2); frame != nil {
		return frame
	}
	utils.Debugf("未找到帖子iframe(ID=%s), 回退顶层页面", articleID)
	return page
}

// FindFrameByName 按name属性寻找iframe,未命中返回nil
func FindFrameByName(page *rod.Page, name string) *rod.Page {
	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}
	for _, el := range iframes {
		attr, err := el.Attribute("name")
		if err != nil || attr == nil || *attr != name {
			continue
		}
		frame, err := el.Frame()
		if err != nil {
			continue
		}
		return frame
	}
	return nil
}

// findFrameByURL 递归枚举iframe,按URL子串匹配,depth为剩余下钻层数
func findFrameByURL(page *rod.Page, marker string, depth int) *rod.Page {
	if depth <= 0 {
		return nil
	}
	iframes, err := page.Elements("iframe")
	if err != nil {
		return nil
	}
	for _, el := range iframes {
		frame, err := el.Frame()
		if err != nil {
			continue
		}
		info, err := frame.Info()
		if err == nil && strings.Contains(info.URL, marker) {
			return frame
		}
		if inner := findFrameByURL(frame, marker, depth-1); inner != nil {
			return inner
		}
	}
	return nil
}

// DescribeFrames 列出页面当前各iframe的URL,定位排查用
func DescribeFrames(page *rod.Page) []string {
	var urls []string
	iframes, err := page.Elements("iframe")
	if err != nil {
		return urls
	}
	for i, el := range iframes {
		frame, err := el.Frame()
		if err != nil {
			continue
		}
		info, err := frame.Info()
		if err != nil {
			continue
		}
		urls = append(urls, fmt.Sprintf("[%d] %s", i, info.URL))
	}
	return urls
}
