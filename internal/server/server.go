package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"datesshop/internal/config"
	"datesshop/internal/handler"
	"datesshop/internal/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

// Newは共通ミドルウェアを載せたechoを作る。ルートはRegisterRoutesで足す
func New(cfg config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: allowedOrigins(cfg),
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handler.HeaderCartToken,
			handler.HeaderIdempotencyKey,
		},
		ExposeHeaders: []string{handler.HeaderCartToken, echo.HeaderXRequestID, echo.HeaderContentDisposition},
	}))
	e.Use(echomw.BodyLimit(bodyLimit(cfg)))
	if cfg.RateLimitPerSecond > 0 {
		burst := int(cfg.RateLimitPerSecond * 2)
		if burst < 1 {
			burst = 1
		}
		// プロバイダからのwebhookとアップロード画像は制限しない
		e.Use(middleware.RateLimit(cfg.RateLimitPerSecond, burst, func(c echo.Context) bool {
			p := c.Request().URL.Path
			return p == "/payments/webhook" || strings.HasPrefix(p, "/uploads/")
		}))
	}

	e.Static("/uploads", cfg.UploadDir)
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.Envelope{Success: true, Message: "ok", Errors: []string{}})
	})
	return e
}

func allowedOrigins(cfg config.Config) []string {
	var out []string
	for _, o := range []string{cfg.FEURL, cfg.AdminURL} {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// アップロード上限 + multipartのヘッダー分
func bodyLimit(cfg config.Config) string {
	return strconv.FormatInt(cfg.UploadMaxBytes>>20+1, 10) + "M"
}

// ctxが終わるまで待ってから止める
func Start(ctx context.Context, e *echo.Echo, addr string, log zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return e.Shutdown(shutdownCtx)
}
