package handler

import (
	"datesshop/internal/config"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// お問い合わせとニュースレター購読
type ContactHandler struct {
	contact      *usecase.ContactUsecase
	subs         *usecase.SubscriptionUsecase
	contactLimit echo.MiddlewareFunc
}

func NewContactHandler(contact *usecase.ContactUsecase, subs *usecase.SubscriptionUsecase, contactLimit echo.MiddlewareFunc) *ContactHandler {
	return &ContactHandler{contact: contact, subs: subs, contactLimit: contactLimit}
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type unsubscribeRequest struct {
	Token string `json:"token"`
}

func (h *ContactHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	var limit []echo.MiddlewareFunc
	if h.contactLimit != nil {
		limit = append(limit, h.contactLimit)
	}
	e.POST("/contact", h.submit, limit...)
	e.POST("/subscriptions", h.subscribe, limit...)
	e.POST("/subscriptions/unsubscribe", h.unsubscribe)

	admin := adminGroup(e, cfg, userRepo)
	admin.GET("/contact-messages", h.listMessages)
	admin.PUT("/contact-messages/:id/read", h.markRead)
	admin.DELETE("/contact-messages/:id", h.deleteMessage)
	admin.GET("/subscriptions", h.listSubscriptions)
}

func (h *ContactHandler) submit(c echo.Context) error {
	var req usecase.ContactInput
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.contact.Submit(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}

func (h *ContactHandler) listMessages(c echo.Context) error {
	p, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}
	in := usecase.ListContactMessagesInput{PageInput: p}
	unread, err := queryBool(c, "unread")
	if err != nil {
		return writeError(c, err)
	}
	in.UnreadOnly = unread != nil && *unread

	out, err := h.contact.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *ContactHandler) markRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.contact.MarkRead(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return ok(c, nil)
}

func (h *ContactHandler) deleteMessage(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.contact.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return deleted(c, "message")
}

func (h *ContactHandler) subscribe(c echo.Context) error {
	var req subscribeRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	out, err := h.subs.Subscribe(c.Request().Context(), req.Email)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *ContactHandler) unsubscribe(c echo.Context) error {
	var req unsubscribeRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := h.subs.Unsubscribe(c.Request().Context(), req.Token); err != nil {
		return writeError(c, err)
	}
	return ok(c, nil)
}

func (h *ContactHandler) listSubscriptions(c echo.Context) error {
	p, err := pageInput(c)
	if err != nil {
		return writeError(c, err)
	}
	in := usecase.ListSubscriptionsInput{PageInput: p}
	if in.Active, err = queryBool(c, "active"); err != nil {
		return writeError(c, err)
	}

	out, err := h.subs.List(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
