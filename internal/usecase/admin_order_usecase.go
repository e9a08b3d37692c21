package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"github.com/rs/zerolog"
)

type AdminOrderUsecase struct {
	tx      repo.TransactionManager
	client  PaymentClient
	listing ListingInvalidator
}

func NewAdminOrderUsecase(tx repo.TransactionManager, client PaymentClient, listing ListingInvalidator) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, client: client, listing: orNoop(listing)}
}

type AdminUpdateOrderStatusInput struct {
	Status string `json:"status"`
}

type AdminListOrdersInput struct {
	PageInput
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminListOrdersInput) (Paged[OrderOutput], error) {
	if err := in.validate(); err != nil {
		return Paged[OrderOutput]{}, err
	}
	status := strings.ToUpper(strings.TrimSpace(in.Status))
	if status != "" {
		if _, ok := model.ParseOrderStatus(status); !ok {
			return Paged[OrderOutput]{}, NewHTTPError(http.StatusBadRequest, "invalid status")
		}
	}

	var out Paged[OrderOutput]

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, repo.AdminOrderListFilter{
			Page:   in.Page,
			Limit:  in.Limit,
			Status: status,
			UserID: in.UserID,
			From:   in.From,
			To:     in.To,
		})
		if err != nil {
			return dbError(ctx, err)
		}

		outs, err := withItems(ctx, r, orders)
		if err != nil {
			return err
		}
		out = newPaged(outs, total, in.PageInput)
		return nil
	})

	if err != nil {
		return Paged[OrderOutput]{}, err
	}
	return out, nil
}

// 明細と決済履歴付き
func (u *AdminOrderUsecase) Get(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return dbError(ctx, err)
		}
		txns, err := r.PaymentTransactions().ListByOrderID(ctx, orderID)
		if err != nil {
			return dbError(ctx, err)
		}
		out = toOrderOutput(o, items)
		out.Transactions = txns
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ステータス更新（CANCELED / REFUNDED なら在庫戻し）
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) error {
	if actorAdminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus, ok := model.ParseOrderStatus(strings.ToUpper(strings.TrimSpace(in.Status)))
	if !ok {
		return NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	changed := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		// すでに同じなら何もしない（200）
		changed, err = transitionOrder(ctx, r, o, newStatus)
		if err != nil || !changed {
			return err
		}

		//監査ログ（UPDATE_ORDER_STATUS）
		if err := writeAudit(ctx, r.AuditLogs(), actorAdminUserID, model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
			map[string]string{"status": string(o.Status)}, map[string]string{"status": string(newStatus)}); err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if changed && newStatus.Restocks() {
		u.invalidateListing(ctx)
	}
	return nil
}

// プロバイダで返金してREFUNDEDにする（PAID / SHIPPED のみ）
func (u *AdminOrderUsecase) Refund(ctx context.Context, actorAdminUserID int64, orderID int64) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var o model.Order
	refunded := false
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var err error
		o, err = r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if !o.Status.CanTransitionTo(model.OrderStatusRefunded) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "order not refundable")
	}
	if o.PaymentReference == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "order has no payment")
	}

	// プロバイダ側は同じキーなら二重返金しない
	refund, err := u.client.Refund(ctx, o.PaymentReference, fmt.Sprintf("refund-order-%d", o.ID))
	if err != nil {
		return OrderOutput{}, gatewayError(ctx, err)
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.PaymentTransactions().Create(ctx, model.PaymentTransaction{
			OrderID:           o.ID,
			PaymentGatewayID:  derefID(o.PaymentGatewayID),
			Kind:              model.PaymentKindRefund,
			ExternalReference: refund.ID,
			Amount:            o.TotalPrice,
			Currency:          o.Currency,
			Status:            refund.Status,
		}); err != nil {
			return dbError(ctx, err)
		}

		current, err := r.Orders().FindByID(ctx, o.ID)
		if err != nil {
			return dbError(ctx, err)
		}
		refunded, err = transitionOrder(ctx, r, current, model.OrderStatusRefunded)
		if err != nil || !refunded {
			return err
		}

		return writeAudit(ctx, r.AuditLogs(), actorAdminUserID, model.AuditActionRefundOrder, model.AuditResourceOrder, o.ID,
			map[string]string{"status": string(current.Status)},
			map[string]any{"status": model.OrderStatusRefunded, "refund_id": refund.ID, "amount": o.TotalPrice})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return OrderOutput{}, err
		}
		return OrderOutput{}, dbError(ctx, err)
	}

	if refunded {
		u.invalidateListing(ctx)
	}
	return u.Get(ctx, o.ID)
}

func (u *AdminOrderUsecase) invalidateListing(ctx context.Context) {
	if err := u.listing.Invalidate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("product listing cache not invalidated")
	}
}

// 期間パラメータ（RFC3339）。空ならnil
func ParseDateTimeRFC3339(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid datetime")
	}
	return &t, nil
}
