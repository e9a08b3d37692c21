package repository

import (
	"errors"
	"strings"

	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

// gormのNotFoundをリポジトリのエラーへ
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrNotFound
	}
	return err
}

// unique違反はErrConflict
func conflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

// 1行も更新できなければErrNotFound
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		p := repo.Page{Page: page, Limit: limit}
		return db.Limit(limit).Offset(p.Offset())
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// 部分一致用。ユーザー入力の%と_はそのままの文字として扱う
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(s)) + "%"
}

// いずれかのカラムに部分一致（ILIKE）。qが空なら絞り込まない
func searchAny(q string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if strings.TrimSpace(q) == "" || len(columns) == 0 {
			return db
		}
		pattern := containsPattern(q)
		conds := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, c := range columns {
			conds[i] = c + " ILIKE ?"
			args[i] = pattern
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}
