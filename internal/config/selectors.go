package config

// 选择器链配置
// 目标站点改版频繁,所有定位统一使用链式后备:依次尝试,第一个命中的生效。
// 新增选择器只需追加到对应链尾,不需要改动提取逻辑。

// LoginSelectors 登录页选择器
var LoginSelectors = struct {
	IDInput       []string
	PasswordInput []string
	SubmitButton  []string
}{
	IDInput:       []string{"#id"},
	PasswordInput: []string{"#pw"},
	SubmitButton:  []string{`#log\.login`, `button[type="submit"]`},
}

// ArticleSelectors 帖子列表与正文选择器
var ArticleSelectors = struct {
	ListLinks []string
	Title     []string
	Author    []string
	Date      []string
	Content   []string
	Likes     []string
}{
	ListLinks: []string{
		"div.inner_list a.article",
		"a.article",
		".article_list a",
		"td.td_article a",
	},
	Title: []string{
		"h3.title_text",
		".title_text",
		".title_area",
	},
	Author: []string{
		"button.nickname",
		".nickname",
		".nick_name",
		".article_writer .nickname",
	},
	Date: []string{
		"span.date",
		".date",
		".article_info .date",
		".user_info .date",
	},
	Content: []string{
		".article_viewer",
		".se-main-container",
		".content",
		"#content",
	},
	Likes: []string{
		"em._count",
		".like_article em",
		".u_cnt._count",
		".like_no em",
	},
}

// CommentSelectors 评论区选择器
var CommentSelectors = struct {
	OpenButton []string
	Items      []string
	Author     []string
	Text       []string
}{
	OpenButton: []string{
		"a.button_comment",
		".button_comment",
		"a.comment",
		".comment_area a",
	},
	Items: []string{
		"ul.comment_list li.CommentItem",
		".comment_list li",
		"li.CommentItem",
		".CommentBox li",
	},
	Author: []string{"a.comment_nickname", ".comment_nickname"},
	Text:   []string{"span.text_comment", ".text_comment", ".comment_text_view"},
}

// SNSSelectors 社交平台评论抓取选择器
// 该站点类名为混淆产物,随前端发布轮换,失效后需人工更新链条。
var SNSSelectors = struct {
	ScrollContainer   []string
	HiddenCommentMark []string
	ReplyExpandSpan   []string
	CommentSpan       []string
	TimeElement       []string
	FollowerSearch    []string
}{
	ScrollContainer:   []string{"div.x5yr21d.xw2csxc.x1odjw0f.x1n2onr6"},
	HiddenCommentMark: []string{`svg[aria-label="숨겨진 댓글 보기"]`},
	ReplyExpandSpan:   []string{"span.x1lliihq"},
	CommentSpan:       []string{`span[dir="auto"]`},
	TimeElement:       []string{"time[datetime]"},
	FollowerSearch:    []string{`input[placeholder="검색"]`},
}

// CommentUITexts 评论区UI文案排除表
// 启发式提取时凡命中以下文案的span视为界面元素而非评论正文
var CommentUITexts = []string{
	"답글 달기",
	"좋아요",
	"번역 보기",
	"답글 숨기기",
	"팔로우",
	"더 보기",
	"좋아요 취소",
	"공유하기",
	"신고",
}

// ReplyExpandTexts 展开回复按钮需同时包含的关键字
var ReplyExpandTexts = []string{"답글", "모두 보기"}
