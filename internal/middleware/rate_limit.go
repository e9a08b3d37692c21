package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// IPごとのトークンバケット。超えたら429
func RateLimit(perSecond float64, burst int, skipper echomw.Skipper) echo.MiddlewareFunc {
	if skipper == nil {
		skipper = echomw.DefaultSkipper
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(perSecond),
		Burst:     burst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: skipper,
		Store:   store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, errorJSON("forbidden"))
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, errorJSON("too many requests"))
		},
	})
}

// ログイン・お問い合わせ用。1分に5回まで
func StrictRateLimit() echo.MiddlewareFunc {
	return RateLimit(float64(rate.Every(12*time.Second)), 5, nil)
}
