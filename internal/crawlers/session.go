package crawlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/KeywordSpider/internal/config"
	"github.com/RecoveryAshes/KeywordSpider/internal/models"
	"github.com/RecoveryAshes/KeywordSpider/internal/utils"
)

const (
	loginURL       = "https://nid.naver.com/nidlogin.login"
	loginURLMarker = "nid.naver.com/nidlogin"
	loginPollEvery = 10 * time.Second
	loginWaitMax   = 120 * time.Second
	afterLoginWait = 2 * time.Second

	// 伪装常规桌面浏览器,无头模式默认UA会被登录页风控拦截
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
)

// SessionConfig 会话参数
type SessionConfig struct {
	Headless        bool
	PageLoadTimeout time.Duration // 页面加载超时
	ElementTimeout  time.Duration // 元素等待超时
	RestartInterval time.Duration // 周期性重启间隔
	CookieDir       string        // Cookie缓存目录
	ScreenshotDir   string        // 登录失败截图目录,空则不截图
	MemoryLimitMB   uint64        // 进程内存压力阈值,0表示不启用
}

// DefaultSessionConfig 默认会话参数
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Headless:        true,
		PageLoadTimeout: 30 * time.Second,
		ElementTimeout:  5 * time.Second,
		RestartInterval: 1800 * time.Second,
		CookieDir:       ".",
	}
}

// Session 管理单个账号的浏览器会话
// 同一Session不支持并发使用,批量模式下每个账号独占一个进程
type Session struct {
	cfg       SessionConfig
	account   models.AccountCredential
	redactor  *utils.SecretRedactor
	browser   *rod.Browser
	launcher  *launcher.Launcher
	startedAt time.Time
	restarts  int
}

// NewSession 创建会话管理器,浏览器在Start时才真正启动
func NewSession(cfg SessionConfig, account models.AccountCredential) *Session {
	return &Session{
		cfg:      cfg,
		account:  account,
		redactor: utils.NewSecretRedactor(),
	}
}

// Start 启动浏览器并完成登录,优先复用缓存Cookie
func (s *Session) Start(ctx context.Context) error {
	if err := s.Launch(); err != nil {
		return err
	}

	if s.tryRestoreCookies(ctx) {
		utils.Infof("✅ [%s] 使用缓存Cookie登录成功", s.account.Group)
		return nil
	}

	utils.Infof("🔐 [%s] 缓存Cookie无效, 进入账号登录流程", s.account.Group)
	if err := s.login(ctx); err != nil {
		s.Close()
		return err
	}
	s.saveCookies()
	return nil
}

// Launch 启动浏览器进程并建立连接,不执行登录流程
// 登录交给调用方的场景(服务模式)直接使用本方法
func (s *Session) Launch() error {
	l := launcher.New().
		Headless(s.cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("disable-extensions").
		Set("no-sandbox").
		Set("user-agent", defaultUserAgent)

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return fmt.Errorf("%w: 连接浏览器失败: %v", ErrBrowserCrashed, err)
	}

	s.launcher = l
	s.browser = browser
	s.startedAt = time.Now()
	utils.Infof("🚀 [%s] 浏览器已启动 (headless=%v)", s.account.Group, s.cfg.Headless)
	return nil
}

// NewPage 打开新页面并导航,统一套用页面加载超时
func (s *Session) NewPage(ctx context.Context, url string) (*rod.Page, error) {
	if s.browser == nil {
		return nil, ErrBrowserCrashed
	}
	var page *rod.Page
	err := rod.Try(func() {
		page = s.browser.MustPage()
		page = page.Context(ctx)
		page.Timeout(s.cfg.PageLoadTimeout).MustNavigate(url).MustWaitLoad()
	})
	if err != nil {
		if page != nil {
			_ = page.Close()
		}
		return nil, wrapTimeout(fmt.Sprintf("打开页面 %s", url), err)
	}
	time.Sleep(500 * time.Millisecond)
	return page, nil
}

// login 填表登录并轮询等待跳转
// 登录页可能出现验证码/二次验证,轮询窗口留得比较宽
func (s *Session) login(ctx context.Context) error {
	page, err := s.NewPage(ctx, loginURL)
	if err != nil {
		return err
	}
	defer page.Close()

	if err := s.fillCredentials(page); err != nil {
		return err
	}

	deadline := time.Now().Add(loginWaitMax)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(loginPollEvery):
		}

		info, err := page.Info()
		if err != nil {
			return fmt.Errorf("%w: 读取页面状态失败: %v", ErrBrowserCrashed, err)
		}
		if !strings.Contains(info.URL, loginURLMarker) {
			time.Sleep(afterLoginWait)
			utils.Infof("✅ [%s] 账号 %s 登录成功", s.account.Group, s.redactor.RedactAccount(s.account.ID))
			return nil
		}
		utils.Infof("⏳ [%s] 等待登录完成中... (剩余%.0fs)", s.account.Group, time.Until(deadline).Seconds())
	}

	s.captureLoginFailure(page)
	return fmt.Errorf("%w: %v内未完成登录", ErrLoginFailed, loginWaitMax)
}

// captureLoginFailure 登录超时后截图留档,便于排查验证码/风控拦截
// 截图失败只记日志,不影响错误返回
func (s *Session) captureLoginFailure(page *rod.Page) {
	if s.cfg.ScreenshotDir == "" {
		return
	}
	var data []byte
	err := rod.Try(func() {
		data = page.MustScreenshot()
	})
	if err != nil {
		utils.Warnf("⚠️ [%s] 登录失败截图失败: %v", s.account.Group, err)
		return
	}
	path, err := saveLoginShot(s.cfg.ScreenshotDir, data)
	if err != nil {
		utils.Warnf("⚠️ [%s] 登录失败截图保存失败: %v", s.account.Group, err)
		return
	}
	utils.Infof("📸 [%s] 登录失败截图已保存: %s", s.account.Group, path)
}

// saveLoginShot 把截图写入目录,文件名带时间戳
func saveLoginShot(dir string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("login_%d.png", time.Now().Unix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// fillCredentials 按选择器链填入账号密码并提交
func (s *Session) fillCredentials(page *rod.Page) error {
	idInput, err := FirstMatch(page, config.LoginSelectors.IDInput, s.cfg.ElementTimeout)
	if err != nil {
		return fmt.Errorf("定位账号输入框: %w", err)
	}
	pwInput, err := FirstMatch(page, config.LoginSelectors.PasswordInput, s.cfg.ElementTimeout)
	if err != nil {
		return fmt.Errorf("定位密码输入框: %w", err)
	}

	err = rod.Try(func() {
		idInput.MustSelectAllText().MustInput(s.account.ID)
		pwInput.MustSelectAllText().MustInput(s.account.Password)
	})
	if err != nil {
		return wrapTimeout("填写登录表单", err)
	}

	submit, err := FirstMatch(page, config.LoginSelectors.SubmitButton, s.cfg.ElementTimeout)
	if err != nil {
		return fmt.Errorf("定位登录按钮: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return wrapTimeout("点击登录按钮", err)
	}
	return nil
}

// cookiePath 每个账号组独立一份Cookie文件
func (s *Session) cookiePath() string {
	return filepath.Join(s.cfg.CookieDir, fmt.Sprintf("cookies_%s.json", s.account.Group))
}

// tryRestoreCookies 注入缓存Cookie并验证登录态
// Cookie整体读写,不做逐条筛选 —— 失效时重新登录整体覆盖即可
func (s *Session) tryRestoreCookies(ctx context.Context) bool {
	data, err := os.ReadFile(s.cookiePath())
	if err != nil {
		return false
	}
	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		utils.Warnf("⚠️ [%s] Cookie文件解析失败: %v", s.account.Group, err)
		return false
	}
	if err := s.browser.SetCookies(proto.CookiesToParams(cookies)); err != nil {
		return false
	}
	return s.verifyLoggedIn(ctx)
}

// verifyLoggedIn 访问登录页确认是否会被重定向走
func (s *Session) verifyLoggedIn(ctx context.Context) bool {
	page, err := s.NewPage(ctx, loginURL)
	if err != nil {
		return false
	}
	defer page.Close()

	time.Sleep(afterLoginWait)
	info, err := page.Info()
	if err != nil {
		return false
	}
	return !strings.Contains(info.URL, loginURLMarker)
}

// saveCookies 登录成功后整体落盘
func (s *Session) saveCookies() {
	cookies, err := s.browser.GetCookies()
	if err != nil {
		utils.Warnf("⚠️ [%s] 读取Cookie失败: %v", s.account.Group, err)
		return
	}
	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(s.cookiePath(), data, 0o600); err != nil {
		utils.Warnf("⚠️ [%s] 保存Cookie失败: %v", s.account.Group, err)
		return
	}
	utils.Infof("💾 [%s] Cookie已缓存: %s", s.account.Group, s.cookiePath())
}

// NeedsRestart 判断是否达到重启条件(运行时长或内存压力)
func (s *Session) NeedsRestart() bool {
	if s.browser == nil {
		return true
	}
	if time.Since(s.startedAt) >= s.cfg.RestartInterval {
		utils.Infof("⏰ [%s] 会话运行满%v, 触发周期性重启", s.account.Group, s.cfg.RestartInterval)
		return true
	}
	if s.cfg.MemoryLimitMB > 0 && MemoryPressure(s.cfg.MemoryLimitMB) {
		utils.Warnf("⚠️ [%s] 内存压力超过阈值%dMB, 触发重启", s.account.Group, s.cfg.MemoryLimitMB)
		return true
	}
	return false
}

// Restart 关闭当前浏览器并重建会话,登录态靠Cookie续接
func (s *Session) Restart(ctx context.Context) error {
	s.Close()
	s.restarts++
	utils.Infof("🔄 [%s] 重启浏览器会话 (第%d次)", s.account.Group, s.restarts)
	return s.Start(ctx)
}

// Restarts 返回累计重启次数
func (s *Session) Restarts() int {
	return s.restarts
}

// Browser 返回底层浏览器实例
func (s *Session) Browser() *rod.Browser {
	return s.browser
}

// Close 释放浏览器进程,可重复调用
func (s *Session) Close() {
	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
		s.launcher = nil
	}
}
