package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// リクエストごとのロガーをcontextに載せ、終わったら1行ログを出す。
// RequestIDミドルウェアより後ろに置く
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			l := base.With().Str("request_id", reqID).Logger()
			c.SetRequest(req.WithContext(l.WithContext(req.Context())))

			err := next(c)
			if err != nil {
				// HTTPErrorHandlerでステータスを確定させる
				c.Error(err)
			}

			status := c.Response().Status
			ev := l.Info()
			switch {
			case status >= 500:
				ev = l.Error()
			case status >= 400:
				ev = l.Warn()
			}
			if uid, ok := c.Get(CtxUserIDKey).(int64); ok {
				ev = ev.Int64("user_id", uid)
			}
			ev.Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Msg("request")
			return nil
		}
	}
}
