package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// パスワードポリシー: 8文字以上の英数字で、英字と数字を各1文字以上含む。
var passwordPolicy = regexp.MustCompile(`^[A-Za-z\d]{8,}$`)

var (
	hasLetter = regexp.MustCompile(`[A-Za-z]`)
	hasDigit  = regexp.MustCompile(`\d`)
)

// ValidatePasswordPolicy はパスワードがポリシーを満たすかどうかを返す。
func ValidatePasswordPolicy(password string) bool {
	return passwordPolicy.MatchString(password) &&
		hasLetter.MatchString(password) &&
		hasDigit.MatchString(password)
}

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword はパスワードがハッシュと一致するかどうかを返す。
// 不一致は(false, nil)とし、ハッシュ自体が不正な場合のみerrorを返す。
func VerifyPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify password: %w", err)
}

// GenerateResetCode は暗号的に安全なパスワードリセットコードを生成する。
func GenerateResetCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GeneratePlaceholderPassword はAuth0経由で自動登録されるユーザー用の
// ランダムなパスワードハッシュを生成する。ローカルログインには使用できない。
func GeneratePlaceholderPassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate placeholder password: %w", err)
	}
	return HashPassword(hex.EncodeToString(b))
}
