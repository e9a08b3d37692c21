package usecase

import "net/http"

type PageInput struct {
	Page  int
	Limit int
}

func (p PageInput) validate() error {
	if p.Page < 1 {
		return NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if p.Limit < 1 || p.Limit > 100 {
		return NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	return nil
}

// 一覧レスポンスの共通形
type Paged[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newPaged[T any](items []T, total int64, p PageInput) Paged[T] {
	if items == nil {
		items = []T{}
	}
	return Paged[T]{Items: items, Total: total, Page: p.Page, Limit: p.Limit}
}
