package repository

import (
	"context"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

const (
	auditDefaultLimit = 50
	auditMaxLimit     = 200
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

// 監査ログは追記のみ
func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{}).Scopes(auditFilter(f))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []model.AuditLog{}
	err := q.Scopes(auditWindow(f)).
		Order("created_at desc").
		Order("id desc").
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// nilの条件は絞り込まない
func auditFilter(f repo.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.ActorUserID != nil {
			db = db.Where("actor_user_id = ?", *f.ActorUserID)
		}
		if f.Action != nil {
			db = db.Where("action = ?", *f.Action)
		}
		if f.ResourceType != nil {
			db = db.Where("resource_type = ?", *f.ResourceType)
		}
		if f.ResourceID != nil {
			db = db.Where("resource_id = ?", *f.ResourceID)
		}
		if f.CreatedFrom != nil {
			db = db.Where("created_at >= ?", *f.CreatedFrom)
		}
		if f.CreatedTo != nil {
			db = db.Where("created_at <= ?", *f.CreatedTo)
		}
		return db
	}
}

func auditWindow(f repo.AuditLogFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		limit := f.Limit
		if limit <= 0 || limit > auditMaxLimit {
			limit = auditDefaultLimit
		}
		return db.Limit(limit).Offset(max(f.Offset, 0))
	}
}
