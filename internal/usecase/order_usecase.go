package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"
)

type OrderUsecase struct {
	tx repo.TransactionManager
}

func NewOrderUsecase(tx repo.TransactionManager) *OrderUsecase {
	return &OrderUsecase{tx: tx}
}

type OrderItemOutput struct {
	ProductID int64  `json:"product_id"`
	NameEn    string `json:"name_en"`
	NameSv    string `json:"name_sv"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type OrderOutput struct {
	ID               int64                      `json:"id"`
	UserID           *int64                     `json:"user_id"`
	PublicToken      string                     `json:"public_token"`
	Status           string                     `json:"status"`
	TotalPrice       int64                      `json:"total_price"`
	TotalDisplay     string                     `json:"total_display"`
	Currency         string                     `json:"currency"`
	Email            string                     `json:"email"`
	CustomerName     string                     `json:"customer_name"`
	Phone            string                     `json:"phone"`
	Line1            string                     `json:"line1"`
	Line2            string                     `json:"line2"`
	PostalCode       string                     `json:"postal_code"`
	City             string                     `json:"city"`
	Country          string                     `json:"country"`
	PaymentReference string                     `json:"payment_reference"`
	CreatedAt        time.Time                  `json:"created_at"`
	Items            []OrderItemOutput          `json:"items"`
	Transactions     []model.PaymentTransaction `json:"transactions,omitempty"`
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, p PageInput) (Paged[OrderOutput], error) {
	if userID <= 0 {
		return Paged[OrderOutput]{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := p.validate(); err != nil {
		return Paged[OrderOutput]{}, err
	}

	var out Paged[OrderOutput]

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, p.Page, p.Limit)
		if err != nil {
			return dbError(ctx, err)
		}

		outs, err := withItems(ctx, r, orders)
		if err != nil {
			return err
		}
		out = newPaged(outs, total, p)
		return nil
	})

	if err != nil {
		return Paged[OrderOutput]{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
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
		if o.UserID == nil || *o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return dbError(ctx, err)
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

func withItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := r.OrderItems().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, dbError(ctx, err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

// ステータス遷移を適用（在庫戻しを含む）。同じステータスならfalse
func transitionOrder(ctx context.Context, r repo.TxRepos, o model.Order, next model.OrderStatus) (bool, error) {
	if o.Status == next {
		return false, nil
	}
	if !o.Status.CanTransitionTo(next) {
		return false, NewHTTPError(http.StatusBadRequest, "invalid status transition")
	}

	if next.Restocks() {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return false, dbError(ctx, err)
		}
		if err := r.Inventory().Restock(ctx, items); err != nil {
			return false, dbError(ctx, err)
		}
	}

	if err := r.Orders().UpdateStatus(ctx, o.ID, next); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return false, NewHTTPError(http.StatusNotFound, "not found")
		}
		return false, dbError(ctx, err)
	}
	return true, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ProductID: it.ProductID,
			NameEn:    it.ProductNameEnSnapshot,
			NameSv:    it.ProductNameSvSnapshot,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		})
	}

	return OrderOutput{
		ID:               o.ID,
		UserID:           o.UserID,
		PublicToken:      o.PublicToken,
		Status:           string(o.Status),
		TotalPrice:       o.TotalPrice,
		TotalDisplay:     model.FormatMoney(o.TotalPrice, o.Currency),
		Currency:         o.Currency,
		Email:            o.Email,
		CustomerName:     o.CustomerName,
		Phone:            o.Phone,
		Line1:            o.Line1,
		Line2:            o.Line2,
		PostalCode:       o.PostalCode,
		City:             o.City,
		Country:          o.Country,
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt,
		Items:            outItems,
	}
}
