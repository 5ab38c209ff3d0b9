package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 8
	// bcrypt 只接受 72 字节以内的输入
	MaxPasswordBytes = 72
	tokenBytes       = 32
)

// 密码规则提示，按此顺序返回
const (
	RuleMinLength = "password must be at least 8 characters long"
	RuleMaxBytes  = "password must be at most 72 bytes long"
	RuleUppercase = "password must contain at least one uppercase letter"
	RuleLowercase = "password must contain at least one lowercase letter"
	RuleDigit     = "password must contain at least one digit"
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateToken 32 字节随机数，hex 编码
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashToken 数据库只保存令牌的 SHA-256 摘要
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type StrengthResult struct {
	IsValid bool
	Errors  []string
}

// ValidatePasswordStrength 返回所有不满足的规则
func ValidatePasswordStrength(password string) StrengthResult {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	var errs []string
	if len([]rune(password)) < MinPasswordLength {
		errs = append(errs, RuleMinLength)
	}
	if len(password) > MaxPasswordBytes {
		errs = append(errs, RuleMaxBytes)
	}
	if !hasUpper {
		errs = append(errs, RuleUppercase)
	}
	if !hasLower {
		errs = append(errs, RuleLowercase)
	}
	if !hasDigit {
		errs = append(errs, RuleDigit)
	}

	return StrengthResult{IsValid: len(errs) == 0, Errors: errs}
}
