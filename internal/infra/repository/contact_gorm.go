package repository

import (
	"context"
	"errors"
	"strings"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

type ContactMessageGormRepository struct {
	db *gorm.DB
}

func NewContactMessageGormRepository(db *gorm.DB) *ContactMessageGormRepository {
	return &ContactMessageGormRepository{db: db}
}

func (r *ContactMessageGormRepository) Create(ctx context.Context, m *model.ContactMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *ContactMessageGormRepository) List(ctx context.Context, f repo.ContactMessageFilter) ([]model.ContactMessage, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.ContactMessage{})
	if f.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.ContactMessage{}, 0, err
	}

	var items []model.ContactMessage
	if err := q.Order("created_at desc").Order("id desc").Limit(f.Limit).Offset(f.Offset()).Find(&items).Error; err != nil {
		return []model.ContactMessage{}, 0, err
	}
	return items, total, nil
}

func (r *ContactMessageGormRepository) MarkRead(ctx context.Context, id int64) error {
	// 既に既読でも対象があればOK
	res := r.db.WithContext(ctx).Model(&model.ContactMessage{}).Where("id = ?", id).Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *ContactMessageGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.ContactMessage{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type EmailSubscriptionGormRepository struct {
	db *gorm.DB
}

func NewEmailSubscriptionGormRepository(db *gorm.DB) *EmailSubscriptionGormRepository {
	return &EmailSubscriptionGormRepository{db: db}
}

func (r *EmailSubscriptionGormRepository) findOne(ctx context.Context, query string, arg any) (model.EmailSubscription, error) {
	var s model.EmailSubscription
	err := r.db.WithContext(ctx).Where(query, arg).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.EmailSubscription{}, repo.ErrNotFound
	}
	if err != nil {
		return model.EmailSubscription{}, err
	}
	return s, nil
}

func (r *EmailSubscriptionGormRepository) FindByEmail(ctx context.Context, email string) (model.EmailSubscription, error) {
	return r.findOne(ctx, "lower(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *EmailSubscriptionGormRepository) FindByToken(ctx context.Context, token string) (model.EmailSubscription, error) {
	if token == "" {
		return model.EmailSubscription{}, repo.ErrNotFound
	}
	return r.findOne(ctx, "unsubscribe_token = ?", token)
}

func (r *EmailSubscriptionGormRepository) Create(ctx context.Context, s *model.EmailSubscription) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return repo.ErrConflict
	}
	return err
}

func (r *EmailSubscriptionGormRepository) Update(ctx context.Context, s *model.EmailSubscription) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *EmailSubscriptionGormRepository) List(ctx context.Context, f repo.SubscriptionFilter) ([]model.EmailSubscription, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.EmailSubscription{})
	if f.Active != nil {
		q = q.Where("is_active = ?", *f.Active)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.EmailSubscription{}, 0, err
	}

	var items []model.EmailSubscription
	if err := q.Order("id desc").Limit(f.Limit).Offset(f.Offset()).Find(&items).Error; err != nil {
		return []model.EmailSubscription{}, 0, err
	}
	return items, total, nil
}
