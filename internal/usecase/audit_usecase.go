package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"
)

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type ListAuditLogsInput struct {
	PageInput
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

func (u *AuditLogUsecase) List(ctx context.Context, in ListAuditLogsInput) (Paged[model.AuditLog], error) {
	if err := in.validate(); err != nil {
		return Paged[model.AuditLog]{}, err
	}

	f := repo.AuditLogFilter{
		ActorUserID: in.ActorUserID,
		ResourceID:  in.ResourceID,
		CreatedFrom: in.From,
		CreatedTo:   in.To,
		Limit:       in.Limit,
		Offset:      (in.Page - 1) * in.Limit,
	}
	if a := strings.TrimSpace(in.Action); a != "" {
		action := model.AuditAction(strings.ToUpper(a))
		f.Action = &action
	}
	if rt := strings.TrimSpace(in.ResourceType); rt != "" {
		switch model.AuditResourceType(rt) {
		case model.AuditResourceProduct, model.AuditResourceOrder, model.AuditResourceUser:
		default:
			return Paged[model.AuditLog]{}, NewHTTPError(http.StatusBadRequest, "invalid resource_type")
		}
		resType := model.AuditResourceType(rt)
		f.ResourceType = &resType
	}

	logs, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return Paged[model.AuditLog]{}, dbError(ctx, err)
	}
	return newPaged(logs, total, in.PageInput), nil
}

// before/afterをJSONにして監査ログを1件残す
func writeAudit(ctx context.Context, r repo.AuditLogRepository, actor int64, action model.AuditAction, resType model.AuditResourceType, resID int64, before, after any) error {
	b, err := json.Marshal(before)
	if err != nil {
		return err
	}
	a, err := json.Marshal(after)
	if err != nil {
		return err
	}
	return r.Create(ctx, model.AuditLog{
		ActorUserID:  actor,
		Action:       action,
		ResourceType: resType,
		ResourceID:   resID,
		BeforeJSON:   string(b),
		AfterJSON:    string(a),
		CreatedAt:    time.Now(),
	})
}
