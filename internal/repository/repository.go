package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 重複（unique制約違反など）
var ErrConflict = errors.New("conflict")

// 一覧取得の共通ページング
type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
