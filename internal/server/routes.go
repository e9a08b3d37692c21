package server

import (
	"datesshop/internal/config"
	"datesshop/internal/repository"

	"github.com/labstack/echo/v4"
)

// 各handlerは自分のルートとミドルウェアを登録する
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository)
}

// 公開のみのhandler（/products）
type PublicRouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository, public []PublicRouteRegistrar, hs ...RouteRegistrar) {
	for _, h := range public {
		h.RegisterRoutes(e)
	}
	for _, h := range hs {
		h.RegisterRoutes(e, cfg, userRepo)
	}
}
