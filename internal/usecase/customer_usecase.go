package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"
)

type CustomerUsecase struct {
	users     repo.UserRepository
	auditRepo repo.AuditLogRepository
}

func NewCustomerUsecase(users repo.UserRepository, auditRepo repo.AuditLogRepository) *CustomerUsecase {
	return &CustomerUsecase{users: users, auditRepo: auditRepo}
}

func (u *CustomerUsecase) Me(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, dbError(ctx, err)
	}
	return *user, nil
}

type UpdateProfileInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

func (u *CustomerUsecase) UpdateMe(ctx context.Context, userID int64, in UpdateProfileInput) (model.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)

	var errs fieldErrors
	errs.add(len(in.FirstName) > 100, "first_name too long")
	errs.add(len(in.LastName) > 100, "last_name too long")
	errs.add(len(in.Phone) > 30, "phone too long")
	if err := errs.err(); err != nil {
		return model.User{}, err
	}

	user, err := u.Me(ctx, userID)
	if err != nil {
		return model.User{}, err
	}
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Phone = in.Phone
	if err := u.users.Update(ctx, &user); err != nil {
		return model.User{}, dbError(ctx, err)
	}
	return user, nil
}

type ListCustomersInput struct {
	PageInput
	Q string
}

func (u *CustomerUsecase) AdminList(ctx context.Context, in ListCustomersInput) (Paged[model.User], error) {
	if err := in.validate(); err != nil {
		return Paged[model.User]{}, err
	}
	if len(in.Q) > 100 {
		return Paged[model.User]{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	role := model.RoleUser
	users, total, err := u.users.List(ctx, repo.UserListFilter{
		Page: repo.Page{Page: in.Page, Limit: in.Limit},
		Q:    strings.TrimSpace(in.Q),
		Role: &role,
	})
	if err != nil {
		return Paged[model.User]{}, dbError(ctx, err)
	}
	return newPaged(users, total, in.PageInput), nil
}

// 無効化したら token_version を上げて既存トークンを失効させる
func (u *CustomerUsecase) AdminSetActive(ctx context.Context, actorAdminUserID int64, userID int64, active bool) (model.User, error) {
	if actorAdminUserID <= 0 {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if userID <= 0 {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if userID == actorAdminUserID {
		return model.User{}, NewHTTPError(http.StatusBadRequest, "cannot change own status")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrUserNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, dbError(ctx, err)
	}
	if user.IsActive == active {
		return *user, nil
	}

	before := user.IsActive
	user.IsActive = active
	if err := u.users.Update(ctx, user); err != nil {
		return model.User{}, dbError(ctx, err)
	}
	if err := u.users.IncrementTokenVersion(ctx, userID); err != nil {
		return model.User{}, dbError(ctx, err)
	}
	user.TokenVersion++

	if err := writeAudit(ctx, u.auditRepo, actorAdminUserID, model.AuditActionUpdateUserStatus, model.AuditResourceUser, userID,
		map[string]bool{"is_active": before}, map[string]bool{"is_active": active}); err != nil {
		return model.User{}, dbError(ctx, err)
	}
	return *user, nil
}
