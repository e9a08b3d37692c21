package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	"datesshop/internal/repository"
	"datesshop/internal/validator"

	"golang.org/x/crypto/bcrypt"
)

// 会員登録の入力
type RegisterUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// 会員登録の出力
type RegisterUserOutput struct {
	User model.User `json:"user"`
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// 入力検証の約束（email重複チェック込み）
type RegisterValidator interface {
	ValidateRegister(ctx context.Context, email string, password string) error
}

// RegisterUserUsecaseは会員登録の処理。
type RegisterUserUsecase struct {
	userRepo  repository.UserRepository
	validator RegisterValidator
	hasher    PasswordHasher
	clock     Clock
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	v RegisterValidator,
	hasher PasswordHasher,
	clock Clock,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo:  userRepo,
		validator: v,
		hasher:    hasher,
		clock:     clock,
	}
}

// 会員登録実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))

	// email形式・パスワード強度・重複
	if err := u.validator.ValidateRegister(ctx, email, in.Password); err != nil {
		return out, err
	}

	var fields []string
	if len(strings.TrimSpace(in.FirstName)) > 100 {
		fields = append(fields, "first_name too long")
	}
	if len(strings.TrimSpace(in.LastName)) > 100 {
		fields = append(fields, "last_name too long")
	}
	if len(strings.TrimSpace(in.Phone)) > 30 {
		fields = append(fields, "phone too long")
	}
	if len(fields) > 0 {
		return out, &validator.FieldErrors{Fields: fields}
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	now := u.clock.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: hashed,         // 平文は保存しない
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         model.RoleUser, // 初期はUSER
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// 同時登録はunique制約で弾かれる
	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return out, validator.ErrEmailAlreadyUsed
		}
		return out, err
	}

	out.User = *user
	return out, nil
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
