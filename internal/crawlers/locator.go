package crawlers

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"

	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

// FirstMatch 在page上按顺序尝试选择器链,返回第一个命中的元素
// 单个选择器的等待时间由timeout控制,全链未命中返回ErrElementNotFound
func FirstMatch(page *rod.Page, selectors []string, timeout time.Duration) (*rod.Element, error) {
	for _, sel := range selectors {
		el, err := waitElement(page, sel, timeout)
		if err == nil && el != nil {
			return el, nil
		}
		utils.Debugf("选择器未命中: %s", sel)
	}
	return nil, fmt.Errorf("%w: 链内%d个选择器全部失败", ErrElementNotFound, len(selectors))
}

// FirstMatchIn 在元素范围内执行链式定位
func FirstMatchIn(root *rod.Element, selectors []string) (*rod.Element, error) {
	for _, sel := range selectors {
		var el *rod.Element
		err := rod.Try(func() {
			el = root.MustElement(sel)
		})
		if err == nil && el != nil {
			return el, nil
		}
	}
	return nil, fmt.Errorf("%w: 链内%d个选择器全部失败", ErrElementNotFound, len(selectors))
}

// AllMatches 返回链上第一个命中且结果非空的选择器的全部元素
func AllMatches(page *rod.Page, selectors []string) (rod.Elements, error) {
	for _, sel := range selectors {
		var els rod.Elements
		err := rod.Try(func() {
			els = page.MustElements(sel)
		})
		if err == nil && len(els) > 0 {
			return els, nil
		}
	}
	return nil, fmt.Errorf("%w: 链内%d个选择器均无结果", ErrElementNotFound, len(selectors))
}

// HasAny 链上任一选择器当前命中即返回true,不等待
func HasAny(page *rod.Page, selectors []string) bool {
	for _, sel := range selectors {
		if has, _, err := page.Has(sel); err == nil && has {
			return true
		}
	}
	return false
}

// TextOf 链式定位并取规整后的文本,未命中时返回空串不报错
// 适用于标题、昵称这类缺失可容忍的字段
func TextOf(page *rod.Page, selectors []string, timeout time.Duration) string {
	el, err := FirstMatch(page, selectors, timeout)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return utils.NormalizeText(text)
}

// waitElement 带超时等待单个选择器
// rod的元素等待以panic表达失败,这里统一转为error
func waitElement(page *rod.Page, selector string, timeout time.Duration) (*rod.Element, error) {
	var el *rod.Element
	err := rod.Try(func() {
		el = page.Timeout(timeout).MustElement(selector)
	})
	if err != nil {
		return nil, wrapTimeout(fmt.Sprintf("等待元素 %s", selector), err)
	}
	return el, nil
}
