package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// handlerはこれを見てステータスと本文を決める
type HTTPError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

// 400 + 項目ごとのエラー
func NewValidationError(errs ...string) error {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: "validation error",
		Errors:  errs,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 想定外のエラーはログに残して500
func internalError(ctx context.Context, err error, msg string) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg(msg)
	return NewHTTPError(http.StatusInternalServerError, msg)
}

func dbError(ctx context.Context, err error) error {
	return internalError(ctx, err, "db error")
}

// 入力チェックを貯めて最後にまとめて返す
type fieldErrors []string

func (f *fieldErrors) add(cond bool, msg string) {
	if cond {
		*f = append(*f, msg)
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return NewValidationError(f...)
}
