package utils

import (
	"strings"
)

// SecretRedactor 凭据脱敏器
// 账号密码和Cookie值禁止以明文进入日志,统一经过脱敏处理
type SecretRedactor struct{}

// NewSecretRedactor 创建凭据脱敏器
func NewSecretRedactor() *SecretRedactor {
	return &SecretRedactor{}
}

// RedactSecret 脱敏单个敏感值
// 策略: 长值显示前2位+后2位,短值完全隐藏
func (sr *SecretRedactor) RedactSecret(value string) string {
	if len(value) > 8 {
		return value[:2] + "***" + value[len(value)-2:]
	}
	return "***"
}

// RedactAccount 脱敏账号标识(保留前缀便于日志排查)
func (sr *SecretRedactor) RedactAccount(id string) string {
	if idx := strings.Index(id, "@"); idx > 0 {
		return sr.RedactSecret(id[:idx]) + id[idx:]
	}
	return sr.RedactSecret(id)
}
