package core

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
)

// Config 全局配置
type Config struct {
	Accounts []models.AccountCredential `mapstructure:"accounts"`
	Cafes    []models.CafeInfo          `mapstructure:"cafes"`
	Keywords []string                   `mapstructure:"keywords"`

	OutputFolder string `mapstructure:"output_folder"`
	LogFolder    string `mapstructure:"log_folder"`
	CookieFolder string `mapstructure:"cookie_folder"`

	Crawl CrawlConfig `mapstructure:"crawl"`
	Serve ServeConfig `mapstructure:"serve"`
	Log   LogSection  `mapstructure:"log"`
}

// CrawlConfig 批量抓取参数
type CrawlConfig struct {
	Headless           bool `mapstructure:"headless"`
	MaxPages           int  `mapstructure:"max_pages"`
	PageLoadTimeoutSec int  `mapstructure:"page_load_timeout_sec"`
	ElementTimeoutSec  int  `mapstructure:"element_timeout_sec"`
	RestartIntervalSec int  `mapstructure:"restart_interval_sec"`
	MemoryLimitMB      int  `mapstructure:"memory_limit_mb"`
	RetryAttempts      int  `mapstructure:"retry_attempts"`
}

// ServeConfig 服务模式参数
type ServeConfig struct {
	Listen        string  `mapstructure:"listen"`
	Workers       int     `mapstructure:"workers"`
	QueueSize     int     `mapstructure:"queue_size"`
	Headless      bool    `mapstructure:"headless"`
	FollowerRPS   float64 `mapstructure:"follower_rps"`
	TaskTTLMinute int     `mapstructure:"task_ttl_minute"`
}

// LogSection 日志参数
type LogSection struct {
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoadConfig 读取配置文件
// path为空时按约定在当前目录和./config下找config.yaml
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("output_folder", "output")
	v.SetDefault("log_folder", "logs")
	v.SetDefault("cookie_folder", ".")

	v.SetDefault("crawl.headless", true)
	v.SetDefault("crawl.max_pages", 10)
	v.SetDefault("crawl.page_load_timeout_sec", 30)
	v.SetDefault("crawl.element_timeout_sec", 5)
	v.SetDefault("crawl.restart_interval_sec", 1800)
	v.SetDefault("crawl.memory_limit_mb", 2048)
	v.SetDefault("crawl.retry_attempts", 3)

	v.SetDefault("serve.listen", ":8000")
	v.SetDefault("serve.workers", 2)
	v.SetDefault("serve.queue_size", 50)
	v.SetDefault("serve.headless", true)
	v.SetDefault("serve.follower_rps", 0.2)
	v.SetDefault("serve.task_ttl_minute", 120)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.compress", true)
}

func (c *Config) validate() error {
	if len(c.Accounts) == 0 {
		return fmt.Errorf("配置中缺少accounts")
	}
	groups := make(map[string]bool)
	for _, acc := range c.Accounts {
		if acc.Group == "" || acc.ID == "" || acc.Password == "" {
			return fmt.Errorf("账号配置不完整: group=%q id=%q", acc.Group, acc.ID)
		}
		if groups[acc.Group] {
			return fmt.Errorf("账号组重复: %s", acc.Group)
		}
		groups[acc.Group] = true
	}
	for _, cafe := range c.Cafes {
		if cafe.Name == "" || cafe.ID == "" {
			return fmt.Errorf("板块配置不完整: name=%q id=%q", cafe.Name, cafe.ID)
		}
	}
	if c.Crawl.MaxPages <= 0 {
		return fmt.Errorf("crawl.max_pages必须为正数: %d", c.Crawl.MaxPages)
	}
	if c.Serve.Workers <= 0 {
		return fmt.Errorf("serve.workers必须为正数: %d", c.Serve.Workers)
	}
	return nil
}

// AccountByGroup 按组名取账号
func (c *Config) AccountByGroup(group string) (models.AccountCredential, error) {
	for _, acc := range c.Accounts {
		if acc.Group == group {
			return acc, nil
		}
	}
	return models.AccountCredential{}, fmt.Errorf("未找到账号组: %s", group)
}

// PageLoadTimeout 页面加载超时
func (c *CrawlConfig) PageLoadTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeoutSec) * time.Second
}

// ElementTimeout 元素等待超时
func (c *CrawlConfig) ElementTimeout() time.Duration {
	return time.Duration(c.ElementTimeoutSec) * time.Second
}

// RestartInterval 会话周期性重启间隔
func (c *CrawlConfig) RestartInterval() time.Duration {
	return time.Duration(c.RestartIntervalSec) * time.Second
}
