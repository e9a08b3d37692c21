package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	"datesshop/internal/repository"

	"github.com/rs/zerolog"
)

// handlerからusecaseに渡す入力
type LoginInput struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	GuestToken string `json:"guest_token"`
}

type JwtAccessToken struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

// handlerがJSONにして返す
type LoginOutput struct {
	User  model.User     `json:"user"`
	Token JwtAccessToken `json:"token"`
}

// メールまたはパスワードが違う
var ErrInvalidCredentials = errors.New("invalid credentials")

// 停止済みユーザー
var ErrUserInactive = errors.New("user is inactive")

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID int64, role model.Role, tokenVersion int, now time.Time) (token string, expiresAt time.Time, err error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

type LoginValidator interface {
	ValidateLogin(ctx context.Context, email string, password string) error
}

// ゲストカートをログインユーザーへ移す
type CartMerger interface {
	MergeGuestCart(ctx context.Context, userID int64, guestToken string) error
}

type LoginUsecase struct {
	userRepo  repository.UserRepository
	validator LoginValidator
	verifier  PasswordVerifier
	issuer    AccessTokenIssuer
	carts     CartMerger
	clock     Clock
}

func NewLoginUsecase(
	userRepo repository.UserRepository,
	v LoginValidator,
	verifier PasswordVerifier,
	issuer AccessTokenIssuer,
	carts CartMerger,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo:  userRepo,
		validator: v,
		verifier:  verifier,
		issuer:    issuer,
		carts:     carts,
		clock:     clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (LoginOutput, error) {
	var out LoginOutput

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.ValidateLogin(ctx, email, in.Password); err != nil {
		return out, err
	}

	//emailでユーザー取得
	user, err := u.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return out, ErrInvalidCredentials
		}
		return out, err
	}

	//パスワード照合
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, ErrInvalidCredentials
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return out, ErrUserInactive
	}

	//AccessToken発行
	now := u.clock.Now()
	accessToken, accessExp, err := u.issuer.Issue(user.ID, user.Role, user.TokenVersion, now)
	if err != nil {
		return out, err
	}

	//最終ログイン時刻更新
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return out, err
	}

	// カート統合の失敗でログインは止めない
	if in.GuestToken != "" && u.carts != nil {
		if err := u.carts.MergeGuestCart(ctx, user.ID, in.GuestToken); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Int64("user_id", user.ID).Msg("guest cart merge failed")
		}
	}

	out.User = *user
	out.Token = JwtAccessToken{
		AccessToken:  accessToken,
		ExpiresIn:    int(accessExp.Sub(now).Seconds()),
		TokenVersion: user.TokenVersion,
	}
	return out, nil
}
