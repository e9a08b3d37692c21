package repository

import (
	"context"
	"errors"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

type LookupGormRepository struct {
	db *gorm.DB
}

func NewLookupGormRepository(db *gorm.DB) *LookupGormRepository {
	return &LookupGormRepository{db: db}
}

func (r *LookupGormRepository) List(ctx context.Context, kind model.LookupKind, includeInactive bool) ([]model.Lookup, error) {
	q := r.db.WithContext(ctx).Model(&model.Lookup{})
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var items []model.Lookup
	if err := q.Order("kind asc").Order("sort_order asc").Order("id asc").Find(&items).Error; err != nil {
		return []model.Lookup{}, err
	}
	return items, nil
}

func (r *LookupGormRepository) FindByID(ctx context.Context, id int64) (model.Lookup, error) {
	var l model.Lookup
	err := r.db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Lookup{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Lookup{}, err
	}
	return l, nil
}

func (r *LookupGormRepository) Create(ctx context.Context, l model.Lookup) (model.Lookup, error) {
	if err := r.db.WithContext(ctx).Create(&l).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Lookup{}, repo.ErrConflict
		}
		return model.Lookup{}, err
	}
	return l, nil
}

func (r *LookupGormRepository) Update(ctx context.Context, l model.Lookup) error {
	res := r.db.WithContext(ctx).Model(&model.Lookup{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"code":       l.Code,
		"name_en":    l.NameEn,
		"name_sv":    l.NameSv,
		"sort_order": l.SortOrder,
		"is_active":  l.IsActive,
	})
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

func (r *LookupGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Lookup{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
