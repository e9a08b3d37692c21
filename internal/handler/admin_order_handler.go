package handler

import (
	"strings"

	"datesshop/internal/config"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc    *usecase.AdminOrderUsecase
	audit *usecase.AuditLogUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, audit *usecase.AuditLogUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, audit: audit}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)

	admin.GET("/orders", h.list)
	admin.GET("/orders/:id", h.detail)
	admin.PUT("/orders/:id/status", h.updateStatus)
	admin.POST("/orders/:id/refund", h.refund)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	p, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}
	in := usecase.AdminListOrdersInput{PageInput: p, Status: c.QueryParam("status")}
	if in.UserID, err = queryInt64(c, "user_id"); err != nil {
		return writeError(c, err)
	}
	if in.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, err)
	}
	if in.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AdminOrderHandler) detail(c echo.Context) error {
	orderID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	// 操作した管理者IDを取得（監査ログ用）
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.AdminUpdateOrderStatusInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	if err := h.uc.UpdateStatus(c.Request().Context(), adminID, orderID, req); err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.Get(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *AdminOrderHandler) refund(c echo.Context) error {
	adminID, err := mustAdmin(c)
	if err != nil {
		return writeError(c, err)
	}
	orderID, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Refund(c.Request().Context(), adminID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// GET /admin/audit-logs
func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	p, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}
	in := usecase.ListAuditLogsInput{
		PageInput:    p,
		Action:       strings.TrimSpace(c.QueryParam("action")),
		ResourceType: strings.TrimSpace(c.QueryParam("resource_type")),
	}
	if in.ActorUserID, err = queryInt64(c, "actor_user_id"); err != nil {
		return writeError(c, err)
	}
	if in.ResourceID, err = queryInt64(c, "resource_id"); err != nil {
		return writeError(c, err)
	}
	if in.From, err = queryTime(c, "from"); err != nil {
		return writeError(c, err)
	}
	if in.To, err = queryTime(c, "to"); err != nil {
		return writeError(c, err)
	}

	logs, err := h.audit.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, logs)
}
