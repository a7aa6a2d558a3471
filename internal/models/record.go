package models

// Target 单个待抓取帖子
type Target struct {
	URL       string `json:"url"`
	ArticleID string `json:"article_id"`
	Cafe      string `json:"cafe"`
	Keyword   string `json:"keyword"`
}

// Record 抓取到的一条帖子记录
// Comments 以 "昵称 : 正文" 形式保存,导出时按序展开为动态列
type Record struct {
	Channel  string   `json:"channel"`
	Keyword  string   `json:"keyword"`
	Author   string   `json:"author"`
	Date     string   `json:"date"`
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Likes    string   `json:"likes"`
	URL      string   `json:"url"`
	Comments []string `json:"comments"`
}

// HasIdentity 判断记录是否具备最低身份信息
// 作者和标题全部缺失的记录没有排查价值,调用方应放弃该目标
func (r *Record) HasIdentity() bool {
	return r.Author != "" || r.Title != ""
}

// SNSComment 社交平台单条评论
type SNSComment struct {
	Username   string `json:"username"`
	Text       string `json:"text"`
	Timestamp  string `json:"timestamp"`
	IsReply    bool   `json:"is_reply"`
	IsFollower bool   `json:"is_follower"`
}

// AccountCredential 单个抓取账号
// Cafes非空时该账号只负责列出的板块
type AccountCredential struct {
	Group    string   `json:"group" mapstructure:"group"`
	ID       string   `json:"id" mapstructure:"id"`
	Password string   `json:"-" mapstructure:"password"`
	Cafes    []string `json:"cafes,omitempty" mapstructure:"cafes"`
}

// CafeInfo 目标板块信息
type CafeInfo struct {
	Name string `json:"name" mapstructure:"name"`
	ID   string `json:"id" mapstructure:"id"`
	URL  string `json:"url,omitempty" mapstructure:"url"`
}

// RunSummary 单账号批量任务运行汇总
type RunSummary struct {
	Group      string  `json:"group"`
	Cafes      int     `json:"cafes"`
	Keywords   int     `json:"keywords"`
	NewRecords int     `json:"new_records"`
	Skipped    int     `json:"skipped"`
	Failed     int     `json:"failed"`
	Restarts   int     `json:"restarts"`
	ElapsedSec float64 `json:"elapsed_sec"`
	OutputFile string  `json:"output_file"`
}
