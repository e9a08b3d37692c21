package repository

import (
	"context"
	"errors"
	"strings"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

func NewUserGormRepository(db *gorm.DB) repo.UserRepository {
	return &userGormRepository{db: db}
}

// ユーザーだけは専用のErrUserNotFoundを返す
func userNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repo.ErrUserNotFound
	}
	return err
}

func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return conflict(r.db.WithContext(ctx).Create(user).Error)
}

// emailは大文字小文字を区別しない
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Where("lower(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&u).Error
	if err != nil {
		return nil, userNotFound(err)
	}
	return &u, nil
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, userNotFound(err)
	}
	return &u, nil
}

// token_versionはここでは触らない（IncrementTokenVersionだけが上げる）
func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	return conflict(r.db.WithContext(ctx).Omit("token_version").Save(user).Error)
}

// 発行済みのJWTをすべて無効にする
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	err := affected(r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1)))
	if errors.Is(err, repo.ErrNotFound) {
		return repo.ErrUserNotFound
	}
	return err
}

// 管理画面の顧客一覧（emailと氏名で検索）
func (r *userGormRepository) List(ctx context.Context, f repo.UserListFilter) ([]model.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.User{}).Scopes(searchAny(f.Q, "email", "first_name", "last_name"))
	if f.Role != nil {
		q = q.Where("role = ?", *f.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := []model.User{}
	if err := q.Scopes(paginate(f.Page.Page, f.Limit)).Order("id desc").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
