package repository

import (
	"context"
	"errors"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// テーブルごとの違い（検索対象の列・preload）
type ContentOptions struct {
	SearchColumns []string
	Preloads      []string
}

// 文言・画像系テーブルの共通実装
type ContentGormRepository[T any] struct {
	db   *gorm.DB
	opts ContentOptions
}

func NewContentGormRepository[T any](db *gorm.DB, opts ContentOptions) *ContentGormRepository[T] {
	return &ContentGormRepository[T]{db: db, opts: opts}
}

func (r *ContentGormRepository[T]) preload(tx *gorm.DB) *gorm.DB {
	for _, p := range r.opts.Preloads {
		tx = tx.Preload(p)
	}
	return tx
}

func (r *ContentGormRepository[T]) List(ctx context.Context, q repo.ContentListQuery) ([]T, int64, error) {
	tx := r.db.WithContext(ctx).Model(new(T))

	if !q.IncludeInactive {
		tx = tx.Where("is_active = ?", true)
	}

	tx = tx.Scopes(searchAny(q.Q, r.opts.SearchColumns...))

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []T{}, 0, err
	}

	items := []T{}
	offset := (q.Page - 1) * q.Limit
	if err := r.preload(tx).Order("sort_order asc").Order("id asc").Offset(offset).Limit(q.Limit).Find(&items).Error; err != nil {
		return []T{}, 0, err
	}
	return items, total, nil
}

func (r *ContentGormRepository[T]) FindByID(ctx context.Context, id int64) (T, error) {
	return r.FindBy(ctx, "id", id)
}

// column は呼び出し側の固定値のみ（ユーザー入力を入れない）
func (r *ContentGormRepository[T]) FindBy(ctx context.Context, column string, value any) (T, error) {
	var v T
	err := r.preload(r.db.WithContext(ctx)).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return v, repo.ErrNotFound
	}
	return v, err
}

func (r *ContentGormRepository[T]) Create(ctx context.Context, v *T) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(v).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

// 全列更新（created_atと関連は触らない）
func (r *ContentGormRepository[T]) Update(ctx context.Context, v *T) error {
	res := r.db.WithContext(ctx).Model(v).Select("*").Omit("id", "created_at", clause.Associations).Updates(v)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return repo.ErrConflict
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 中間テーブルの行も一緒に消す
func (r *ContentGormRepository[T]) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var v T
		if err := tx.First(&v, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}
		return tx.Select(clause.Associations).Delete(&v).Error
	})
}

// コレクションのデーツを入れ替え
type CollectionDatesGormRepository struct {
	db *gorm.DB
}

func NewCollectionDatesGormRepository(db *gorm.DB) *CollectionDatesGormRepository {
	return &CollectionDatesGormRepository{db: db}
}

func (r *CollectionDatesGormRepository) ReplaceDates(ctx context.Context, collectionID int64, dateIDs []int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.DatesCollection
		if err := tx.First(&c, collectionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		dates := []model.Date{}
		if len(dateIDs) > 0 {
			if err := tx.Where("id IN ?", dateIDs).Find(&dates).Error; err != nil {
				return err
			}
			if len(dates) != len(uniqueIDs(dateIDs)) {
				return repo.ErrNotFound
			}
		}

		return tx.Model(&c).Association("Dates").Replace(dates)
	})
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
