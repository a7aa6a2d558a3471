package crawlers

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/KeywordSpider/internal/config"
	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

const (
	searchURLFormat = "https://cafe.naver.com/f-e/cafes/%s/menus/0?viewType=L&ta=ARTICLE_COMMENT&page=%d&q=%s&p=7d"

	commentLoadTimeout    = 3 * time.Second
	afterIframeSwitchWait = 1 * time.Second
	afterCommentClickWait = 2 * time.Second
	scrollInterval        = 300 * time.Millisecond
	maxScrollAttempts     = 5
	betweenPagesWait      = 1 * time.Second
)

// ErrNoIdentity 帖子关键身份信息(作者/标题)全部缺失
var ErrNoIdentity = fmt.Errorf("帖子身份信息缺失")

// Extractor 帖子数据提取器
type Extractor struct {
	session *Session
}

// NewExtractor 创建提取器
func NewExtractor(session *Session) *Extractor {
	return &Extractor{session: session}
}

// SearchURL 构造板块内关键字搜索列表页URL(近7天,含评论命中)
func SearchURL(cafeID string, keyword string, page int) string {
	return fmt.Sprintf(searchURLFormat, cafeID, page, keyword)
}

// CollectTargets 打开搜索列表页,解析命中的帖子链接
// 列表为空时返回空切片,由调用方决定翻页终止
func (e *Extractor) CollectTargets(ctx context.Context, cafe models.CafeInfo, keyword string, pageNum int) ([]models.Target, error) {
	page, err := e.session.NewPage(ctx, SearchURL(cafe.ID, keyword, pageNum))
	if err != nil {
		return nil, err
	}
	defer page.Close()

	// 列表同样渲染在iframe里,找不到时在顶层页面直接找链接
	listPage := FindFrameByName(page, "cafe_main")
	if listPage == nil {
		listPage = page
	} else {
		time.Sleep(afterIframeSwitchWait)
	}

	links, err := AllMatches(listPage, config.ArticleSelectors.ListLinks)
	if err != nil {
		utils.Debugf("[%s/%s] 第%d页无搜索结果", cafe.Name, keyword, pageNum)
		return nil, nil
	}

	var targets []models.Target
	seen := make(map[string]bool)
	for _, link := range links {
		href, err := link.Attribute("href")
		if err != nil || href == nil || *href == "" {
			continue
		}
		articleURL := *href
		if strings.HasPrefix(articleURL, "/") {
			articleURL = "https://cafe.naver.com" + articleURL
		}
		id := utils.ExtractArticleID(articleURL)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, models.Target{
			URL:       articleURL,
			ArticleID: id,
			Cafe:      cafe.Name,
			Keyword:   keyword,
		})
	}
	utils.Infof("📋 [%s/%s] 第%d页发现%d个帖子", cafe.Name, keyword, pageNum, len(targets))
	return targets, nil
}

// CollectPost 打开单个帖子并提取完整记录
// 提取按阶段推进: 定位iframe → 元数据 → 正文 → 点赞数 → 评论,
// 元数据全部缺失时视为页面异常放弃该目标
func (e *Extractor) CollectPost(ctx context.Context, target models.Target) (*models.Record, error) {
	page, err := e.session.NewPage(ctx, target.URL)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	article := FindArticleFrame(page, target.ArticleID)
	if article != page {
		time.Sleep(afterIframeSwitchWait)
	}

	timeout := e.session.cfg.ElementTimeout
	rec := &models.Record{
		Channel: target.Cafe,
		Keyword: target.Keyword,
		URL:     target.URL,
		Title:   TextOf(article, config.ArticleSelectors.Title, timeout),
		Author:  TextOf(article, config.ArticleSelectors.Author, timeout),
		Date:    TextOf(article, config.ArticleSelectors.Date, timeout),
	}
	if !rec.HasIdentity() {
		return nil, fmt.Errorf("%w: %s", ErrNoIdentity, target.URL)
	}

	rec.Content = TextOf(article, config.ArticleSelectors.Content, timeout)
	rec.Likes = utils.DigitsOnly(TextOf(article, config.ArticleSelectors.Likes, timeout))
	rec.Comments = e.collectComments(article)

	utils.Infof("📥 [%s/%s] %s (评论%d条)", target.Cafe, target.Keyword, rec.Title, len(rec.Comments))
	return rec, nil
}

// collectComments 展开评论区并逐条提取
// 评论缺失不算错误,返回空切片
func (e *Extractor) collectComments(article *rod.Page) []string {
	if btn, err := FirstMatch(article, config.CommentSelectors.OpenButton, commentLoadTimeout); err == nil {
		if err := btn.Click(proto.InputMouseButtonLeft, 1); err == nil {
			time.Sleep(afterCommentClickWait)
		}
	}

	e.scrollToBottom(article)

	items, err := AllMatches(article, config.CommentSelectors.Items)
	if err != nil {
		return nil
	}

	var comments []string
	for _, item := range items {
		author := elementText(item, config.CommentSelectors.Author)
		text := elementText(item, config.CommentSelectors.Text)
		if text == "" {
			continue
		}
		comments = append(comments, fmt.Sprintf("%s : %s", author, text))
	}
	return comments
}

// scrollToBottom 分段滚动触发评论懒加载
func (e *Extractor) scrollToBottom(page *rod.Page) {
	for i := 0; i < maxScrollAttempts; i++ {
		err := rod.Try(func() {
			page.MustEval(`() => window.scrollTo(0, document.body.scrollHeight)`)
		})
		if err != nil {
			return
		}
		time.Sleep(scrollInterval)
	}
}

// PageDelay 列表翻页间隔,固定1s加0.5~2s随机抖动
func PageDelay() time.Duration {
	return betweenPagesWait + time.Duration(500+rand.Intn(1500))*time.Millisecond
}

func elementText(root *rod.Element, selectors []string) string {
	el, err := FirstMatchIn(root, selectors)
	if err != nil {
		return ""
	}
	text, err := el.Text()
	if err != nil {
		return ""
	}
	return utils.NormalizeText(text)
}
