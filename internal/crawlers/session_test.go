package crawlers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/RecoveryAshes/KeywordSpider/internal/models"
)

func TestSaveLoginShot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	data := []byte{0x89, 'P', 'N', 'G'}

	path, err := saveLoginShot(dir, data)
	if err != nil {
		t.Fatalf("saveLoginShot() error = %v", err)
	}

	base := filepath.Base(path)
	if !strings.HasPrefix(base, "login_") || !strings.HasSuffix(base, ".png") {
		t.Errorf("截图文件名格式不正确: %s", base)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取截图失败: %v", err)
	}
	if string(got) != string(data) {
		t.Error("截图内容与写入不一致")
	}
}

func TestCaptureLoginFailureDisabled(t *testing.T) {
	// 未配置截图目录时直接跳过,页面为nil也不应panic
	s := NewSession(SessionConfig{}, models.AccountCredential{Group: "test"})
	s.captureLoginFailure(nil)
}
