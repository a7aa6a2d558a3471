package crawlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"

	"github.com/RecoveryAshes/KeywordSpider/internal/config"
	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

const (
	snsLoginURL       = "https://www.instagram.com/accounts/login/"
	maxScrollRounds   = 500
	maxExpandAttempts = 200
	snsScrollPause    = 1500 * time.Millisecond
)

// SNSExtractor 社交平台帖子评论提取器
// 评论容器为虚拟滚动,必须滚到"隐藏评论"标记出现才算加载完整
type SNSExtractor struct {
	session *Session
	page    *rod.Page
}

// NewSNSExtractor 创建社交平台提取器
func NewSNSExtractor(session *Session) *SNSExtractor {
	return &SNSExtractor{session: session}
}

// Login 登录社交平台账号
func (e *SNSExtractor) Login(ctx context.Context, username, password string) error {
	page, err := e.session.NewPage(ctx, snsLoginURL)
	if err != nil {
		return err
	}

	err = rod.Try(func() {
		page.Timeout(e.session.cfg.ElementTimeout).
			MustElement(`input[name="username"]`).MustInput(username)
		page.MustElement(`input[name="password"]`).MustInput(password)
		page.MustElement(`button[type="submit"]`).MustClick()
	})
	if err != nil {
		_ = page.Close()
		return wrapTimeout("提交登录表单", err)
	}

	// 等待跳出登录页,可能出现"保存登录信息"弹窗
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(2 * time.Second)
		info, err := page.Info()
		if err != nil {
			_ = page.Close()
			return fmt.Errorf("%w: 读取页面状态失败: %v", ErrBrowserCrashed, err)
		}
		if !strings.Contains(info.URL, "/accounts/login") {
			e.page = page
			utils.Infof("✅ 社交平台账号登录成功")
			return nil
		}
	}
	_ = page.Close()
	return fmt.Errorf("%w: 社交平台登录未完成", ErrLoginFailed)
}

// OpenPost 打开目标帖子页
func (e *SNSExtractor) OpenPost(ctx context.Context, postURL string) error {
	if e.page == nil {
		return ErrBrowserCrashed
	}
	err := rod.Try(func() {
		e.page.Timeout(e.session.cfg.PageLoadTimeout).MustNavigate(postURL).MustWaitLoad()
	})
	if err != nil {
		return wrapTimeout(fmt.Sprintf("打开帖子 %s", postURL), err)
	}
	time.Sleep(3 * time.Second)
	return nil
}

// ScrollAllComments 滚动评论容器直到全部加载
// onProgress 每轮上报 0.0~1.0 的完成度估计
func (e *SNSExtractor) ScrollAllComments(ctx context.Context, onProgress func(float64)) error {
	container, err := FirstMatch(e.page, config.SNSSelectors.ScrollContainer, e.session.cfg.ElementTimeout)
	if err != nil {
		return fmt.Errorf("定位评论滚动容器: %w", err)
	}

	for i := 0; i < maxScrollRounds; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		scrollErr := rod.Try(func() {
			container.MustEval(`function() { this.scrollTop = this.scrollHeight }`)
		})
		if scrollErr != nil {
			return wrapTimeout("滚动评论容器", scrollErr)
		}
		time.Sleep(snsScrollPause)

		if onProgress != nil {
			onProgress(float64(i+1) / float64(maxScrollRounds))
		}

		// "隐藏评论"标记是评论流的终点
		if HasAny(e.page, config.SNSSelectors.HiddenCommentMark) {
			utils.Infof("📜 评论滚动完成 (第%d轮到达底部)", i+1)
			return nil
		}
	}
	utils.Warnf("⚠️ 滚动达到%d轮上限, 评论可能未完全加载", maxScrollRounds)
	return nil
}

// ExpandReplies 逐个点开"查看全部回复"按钮
func (e *SNSExtractor) ExpandReplies(ctx context.Context) {
	for i := 0; i < maxExpandAttempts; i++ {
		if ctx.Err() != nil {
			return
		}

		spans, err := AllMatches(e.page, config.SNSSelectors.ReplyExpandSpan)
		if err != nil {
			spans = nil
		}
		clicked := false
		for _, span := range spans {
			text, err := span.Text()
			if err != nil {
				continue
			}
			if !containsAll(text, config.ReplyExpandTexts) {
				continue
			}
			if rod.Try(func() { span.MustClick() }) == nil {
				clicked = true
				time.Sleep(800 * time.Millisecond)
				break
			}
		}
		if !clicked {
			utils.Infof("💬 回复已全部展开 (共%d次点击)", i)
			return
		}
	}
}

// rawComment JS提取脚本的输出结构
type rawComment struct {
	Username  string `json:"username"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
	IsReply   bool   `json:"is_reply"`
}

// ExtractComments 在页面内执行启发式脚本提取全部评论
// 站点类名不可依赖,改为按结构特征识别: dir=auto的span +
// line-clamp样式的正文 + 祖先链里带href的用户名链接
func (e *SNSExtractor) ExtractComments() ([]models.SNSComment, error) {
	var payload string
	err := rod.Try(func() {
		payload = e.page.MustEval(extractCommentsJS,
			config.CommentUITexts,
			strings.Join(config.SNSSelectors.CommentSpan, ", "),
			strings.Join(config.SNSSelectors.TimeElement, ", ")).Str()
	})
	if err != nil {
		return nil, wrapTimeout("执行评论提取脚本", err)
	}

	var raws []rawComment
	if err := json.Unmarshal([]byte(payload), &raws); err != nil {
		return nil, fmt.Errorf("解析评论提取结果: %w", err)
	}

	comments := make([]models.SNSComment, 0, len(raws))
	for _, rc := range raws {
		text := utils.NormalizeText(rc.Text)
		if text == "" || rc.Username == "" {
			continue
		}
		comments = append(comments, models.SNSComment{
			Username:  rc.Username,
			Text:      text,
			Timestamp: utils.ConvertUTCToKST(rc.Timestamp),
			IsReply:   rc.IsReply,
		})
	}
	utils.Infof("📊 提取到%d条评论", len(comments))
	return comments, nil
}

// PostAuthor 从帖子页头部取作者用户名
func (e *SNSExtractor) PostAuthor() (string, error) {
	var author string
	err := rod.Try(func() {
		author = e.page.MustEval(`() => {
			const header = document.querySelector('article header, header');
			if (!header) return '';
			const link = header.querySelector('a[href^="/"]');
			if (!link) return '';
			const m = (link.getAttribute('href') || '').match(/^\/([^\/]+)\/?$/);
			return m ? m[1] : '';
		}`).Str()
	})
	if err != nil {
		return "", wrapTimeout("读取帖子作者", err)
	}
	if author == "" {
		return "", fmt.Errorf("%w: 帖子作者", ErrElementNotFound)
	}
	return author, nil
}

// Page 返回当前帖子页,关注关系核验复用同一会话
func (e *SNSExtractor) Page() *rod.Page {
	return e.page
}

// Close 关闭帖子页
func (e *SNSExtractor) Close() {
	if e.page != nil {
		_ = e.page.Close()
		e.page = nil
	}
}

func containsAll(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, kw) {
			return false
		}
	}
	return true
}

const extractCommentsJS = `(uiTexts, commentSel, timeSel) => {
	const results = [];
	const seen = new Set();
	const spans = document.querySelectorAll(commentSel);
	for (const span of spans) {
		const text = (span.textContent || '').trim();
		if (!text || uiTexts.includes(text)) continue;

		// 评论正文统一带line-clamp截断样式
		const style = span.getAttribute('style') || '';
		const cls = span.className || '';
		if (!style.includes('line-clamp') && !cls.includes('x1lliihq')) continue;

		// 沿祖先链找用户名链接与时间戳
		let username = '', timestamp = '', depth = 0;
		let node = span.parentElement;
		while (node && depth < 12) {
			if (!username) {
				const link = node.querySelector('a[href^="/"]');
				if (link) {
					const href = link.getAttribute('href') || '';
					const m = href.match(/^\/([^\/]+)\/?$/);
					if (m) username = m[1];
				}
			}
			if (!timestamp) {
				const t = node.querySelector(timeSel);
				if (t) timestamp = t.getAttribute('datetime') || '';
			}
			if (username && timestamp) break;
			node = node.parentElement;
			depth++;
		}
		if (!username || username === text) continue;

		const key = username + '|' + text;
		if (seen.has(key)) continue;
		seen.add(key);

		// 回复在DOM里有额外的缩进容器层
		const isReply = depth > 8;
		results.push({ username, text, timestamp, is_reply: isReply });
	}
	return JSON.stringify(results);
}`
