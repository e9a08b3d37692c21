package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"datesshop/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var (
	errNoToken      = errors.New("no token")
	errInvalidToken = errors.New("invalid token")
)

// アクセストークンから取り出す値
type accessClaims struct {
	UserID       int64
	Role         string
	TokenVersion int
}

// Bearer必須。失敗は中身を問わず401
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, cfg.JWTSecret); err != nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

// ヘッダ無しはゲストで通す。付いていて壊れているトークンは401（カート・チェックアウト用）
func OptionalAuth(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := authenticate(c, cfg.JWTSecret)
			if err != nil && !errors.Is(err, errNoToken) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, secret string) error {
	raw, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return err
	}

	ac, err := parseAccessToken(raw, []byte(secret))
	if err != nil {
		return err
	}

	c.Set(CtxUserIDKey, ac.UserID)
	c.Set(CtxUserRoleKey, ac.Role)
	c.Set(CtxTokenVersionKey, ac.TokenVersion)
	return nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errInvalidToken
	}
	return token, nil
}

// HS256のみ。expは必須（jwt/v4は無いexpを素通しする）
func parseAccessToken(raw string, secret []byte) (accessClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return accessClaims{}, errInvalidToken
	}
	if !claims.VerifyExpiresAt(jwt.TimeFunc().Unix(), true) {
		return accessClaims{}, errInvalidToken
	}

	var ac accessClaims
	var ok bool
	if ac.UserID, ok = claimInt64(claims["sub"]); !ok || ac.UserID <= 0 {
		return accessClaims{}, errInvalidToken
	}
	if ac.Role, _ = claims["role"].(string); ac.Role == "" {
		return accessClaims{}, errInvalidToken
	}
	tv, ok := claimInt64(claims["tv"])
	if !ok || tv < 0 {
		return accessClaims{}, errInvalidToken
	}
	ac.TokenVersion = int(tv)
	return ac, nil
}

// subは文字列で発行しているが数値も受ける
func claimInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// handlerと同じ形のエラーレスポンス
type errorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Data    any      `json:"data"`
	Errors  []string `json:"errors"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Message: msg, Errors: []string{}}
}
