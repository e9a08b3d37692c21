package validator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"datesshop/internal/repository"
)

const MinPasswordLength = 12

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")

	// emailが既に使用済み
	ErrEmailAlreadyUsed = errors.New("email already used")
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// よくある弱いパスワード（小文字で比較）
var weakPasswords = map[string]bool{
	"password1234":     true,
	"123456789012":     true,
	"qwertyuiop12":     true,
	"passwordpassword": true,
	"iloveyou1234":     true,
	"adminadmin12":     true,
	"welcome12345":     true,
	"letmein12345":     true,
	"abcdefghijkl":     true,
	"111111111111":     true,
}

// 入力のエラーをまとめて返す
type FieldErrors struct {
	Fields []string
}

func (e *FieldErrors) Error() string {
	return "validation error: " + strings.Join(e.Fields, ", ")
}

type AuthValidator struct {
	users repository.UserRepository
}

func NewAuthValidator(users repository.UserRepository) *AuthValidator {
	return &AuthValidator{users: users}
}

// サインアップの入力を検証（email重複はErrEmailAlreadyUsed）
func (v *AuthValidator) ValidateRegister(ctx context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	var fields []string
	if !IsEmail(email) {
		fields = append(fields, "invalid email")
	}
	fields = append(fields, PasswordProblems(password)...)
	if len(fields) > 0 {
		return &FieldErrors{Fields: fields}
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return ErrEmailAlreadyUsed
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	return nil
}

// ログインの入力を検証
func (v *AuthValidator) ValidateLogin(_ context.Context, email string, password string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" || password == "" {
		return ErrInvalidInput
	}

	// email形式
	if !IsEmail(email) {
		return ErrInvalidInput
	}

	return nil
}

// 簡易メール形式をチェック
func IsEmail(s string) bool {
	return len(s) <= 255 && emailRe.MatchString(s)
}

func PasswordProblems(pw string) []string {
	var out []string
	if len(pw) < MinPasswordLength {
		out = append(out, "password must be at least 12 characters")
	}
	if len(pw) > 72 {
		// bcryptは72バイトまで
		out = append(out, "password too long")
	}
	if weakPasswords[strings.ToLower(pw)] {
		out = append(out, "password too common")
	}
	return out
}
