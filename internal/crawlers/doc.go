// Package crawlers 实现浏览器会话管理与页面数据提取。
//
// 会话层(session.go)负责浏览器启动、登录、Cookie复用和周期性重启;
// 定位层(locator.go/frames.go)提供链式选择器后备与嵌套iframe解析;
// 提取层(extractor.go)在定位层之上完成帖子正文与评论的结构化提取;
// relation.go 在限速约束下批量核验评论者与目标账号的关注关系。
package crawlers
