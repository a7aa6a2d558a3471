package core

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `
accounts:
  - group: groupA
    id: usera@naver.com
    password: secretA
  - group: groupB
    id: userb@naver.com
    password: secretB
cafes:
  - name: 테스트카페
    id: "12345"
keywords:
  - 키워드1
  - 키워드2
`

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Accounts) != 2 {
		t.Errorf("accounts = %d, want 2", len(cfg.Accounts))
	}
	if cfg.Accounts[0].Group != "groupA" || cfg.Accounts[0].Password != "secretA" {
		t.Errorf("账号解析不正确: %+v", cfg.Accounts[0])
	}
	if len(cfg.Cafes) != 1 || cfg.Cafes[0].ID != "12345" {
		t.Errorf("板块解析不正确: %+v", cfg.Cafes)
	}
	if len(cfg.Keywords) != 2 {
		t.Errorf("keywords = %d, want 2", len(cfg.Keywords))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Crawl.MaxPages != 10 {
		t.Errorf("crawl.max_pages默认值 = %d, want 10", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.RestartIntervalSec != 1800 {
		t.Errorf("crawl.restart_interval_sec默认值 = %d, want 1800", cfg.Crawl.RestartIntervalSec)
	}
	if !cfg.Crawl.Headless {
		t.Error("crawl.headless默认应为true")
	}
	if cfg.Serve.Listen != ":8000" {
		t.Errorf("serve.listen默认值 = %s, want :8000", cfg.Serve.Listen)
	}
	if cfg.Serve.Workers != 2 {
		t.Errorf("serve.workers默认值 = %d, want 2", cfg.Serve.Workers)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log.level默认值 = %s, want info", cfg.Log.Level)
	}
	if cfg.OutputFolder != "output" {
		t.Errorf("output_folder默认值 = %s, want output", cfg.OutputFolder)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig+`
crawl:
  max_pages: 3
  headless: false
serve:
  listen: ":9090"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Crawl.MaxPages != 3 {
		t.Errorf("crawl.max_pages = %d, want 3", cfg.Crawl.MaxPages)
	}
	if cfg.Crawl.Headless {
		t.Error("crawl.headless应被覆盖为false")
	}
	if cfg.Serve.Listen != ":9090" {
		t.Errorf("serve.listen = %s, want :9090", cfg.Serve.Listen)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"缺少账号", `cafes: []`},
		{
			"账号不完整",
			`
accounts:
  - group: g
    id: ""
    password: p
`,
		},
		{
			"账号组重复",
			`
accounts:
  - group: same
    id: a
    password: p
  - group: same
    id: b
    password: p
`,
		},
		{
			"板块不完整",
			`
accounts:
  - group: g
    id: a
    password: p
cafes:
  - name: ""
    id: "1"
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.content)); err == nil {
				t.Error("应返回校验错误")
			}
		})
	}
}

func TestAccountByGroup(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}

	acc, err := cfg.AccountByGroup("groupB")
	if err != nil {
		t.Fatalf("AccountByGroup() error = %v", err)
	}
	if acc.ID != "userb@naver.com" {
		t.Errorf("account = %+v", acc)
	}

	if _, err := cfg.AccountByGroup("absent"); err == nil {
		t.Error("不存在的组应返回错误")
	}
}
