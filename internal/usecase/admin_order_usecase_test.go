package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"datesshop/internal/domain/model"
	"datesshop/internal/infra/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 在庫5から2個買った注文（残り在庫3）
func seedOrder(t *testing.T, s *memStore, userID *int64, status model.OrderStatus) (model.Order, model.Product) {
	t.Helper()
	ctx := context.Background()
	p := s.addProduct(model.Product{NameEn: "Medjool", Price: 12900, Stock: 3, IsActive: true})

	o := model.Order{
		UserID:         userID,
		PublicToken:    fmt.Sprintf("tok-%d", p.ID),
		Email:          "anna@example.com",
		CustomerName:   "Anna",
		Status:         status,
		TotalPrice:     25800,
		Currency:       "SEK",
		IdempotencyKey: fmt.Sprintf("idem-%d", p.ID),
	}
	id, err := s.Orders().Create(ctx, o)
	require.NoError(t, err)
	o.ID = id
	require.NoError(t, s.OrderItems().CreateBulk(ctx, id, []model.OrderItem{
		{ProductID: p.ID, ProductNameEnSnapshot: "Medjool", UnitPriceSnapshot: 12900, Quantity: 2},
	}))
	return o, p
}

func TestAdminOrderUsecase_UpdateStatus_CancelRestocks(t *testing.T) {
	s := newMemStore()
	uc := NewAdminOrderUsecase(s, new(MockPaymentClient), nil)
	o, p := seedOrder(t, s, nil, model.OrderStatusPaid)

	err := uc.UpdateStatus(context.Background(), 1, o.ID, AdminUpdateOrderStatusInput{Status: " canceled "})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusCanceled, s.d.orders[o.ID].Status)
	assert.Equal(t, int64(5), s.d.products[p.ID].Stock)

	require.Len(t, s.d.audits, 1)
	a := s.d.audits[0]
	assert.Equal(t, model.AuditActionUpdateOrderStatus, a.Action)
	assert.Equal(t, model.AuditResourceOrder, a.ResourceType)
	assert.Equal(t, `{"status":"PAID"}`, a.BeforeJSON)
	assert.Equal(t, `{"status":"CANCELED"}`, a.AfterJSON)
}

func TestAdminOrderUsecase_UpdateStatus_Ship(t *testing.T) {
	s := newMemStore()
	uc := NewAdminOrderUsecase(s, new(MockPaymentClient), nil)
	o, p := seedOrder(t, s, nil, model.OrderStatusPaid)

	require.NoError(t, uc.UpdateStatus(context.Background(), 1, o.ID, AdminUpdateOrderStatusInput{Status: "SHIPPED"}))
	assert.Equal(t, model.OrderStatusShipped, s.d.orders[o.ID].Status)
	// 出荷では在庫は変わらない
	assert.Equal(t, int64(3), s.d.products[p.ID].Stock)
}

func TestAdminOrderUsecase_UpdateStatus_SameStatusIsNoop(t *testing.T) {
	s := newMemStore()
	uc := NewAdminOrderUsecase(s, new(MockPaymentClient), nil)
	o, _ := seedOrder(t, s, nil, model.OrderStatusPaid)

	require.NoError(t, uc.UpdateStatus(context.Background(), 1, o.ID, AdminUpdateOrderStatusInput{Status: "PAID"}))
	assert.Empty(t, s.d.audits)
}

func TestAdminOrderUsecase_UpdateStatus_Errors(t *testing.T) {
	s := newMemStore()
	uc := NewAdminOrderUsecase(s, new(MockPaymentClient), nil)
	shipped, p := seedOrder(t, s, nil, model.OrderStatusShipped)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   int64
		orderID int64
		status  string
		code    int
		msg     string
	}{
		{"no actor", 0, shipped.ID, "CANCELED", http.StatusUnauthorized, "unauthorized"},
		{"bad id", 1, 0, "CANCELED", http.StatusBadRequest, "invalid id"},
		{"unknown status", 1, shipped.ID, "LOST", http.StatusBadRequest, "invalid status"},
		{"missing order", 1, 9999, "CANCELED", http.StatusNotFound, "not found"},
		{"shipped cannot cancel", 1, shipped.ID, "CANCELED", http.StatusBadRequest, "invalid status transition"},
		{"shipped cannot go back", 1, shipped.ID, "PENDING", http.StatusBadRequest, "invalid status transition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := uc.UpdateStatus(ctx, tt.actor, tt.orderID, AdminUpdateOrderStatusInput{Status: tt.status})
			requireHTTPError(t, err, tt.code, tt.msg)
		})
	}
	assert.Equal(t, model.OrderStatusShipped, s.d.orders[shipped.ID].Status)
	assert.Equal(t, int64(3), s.d.products[p.ID].Stock)
	assert.Empty(t, s.d.audits)
}

func TestAdminOrderUsecase_RestockInvalidatesListing(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	pc := new(MockPaymentClient)
	listing := new(ListingMock)
	uc := NewAdminOrderUsecase(s, pc, listing)

	// 出荷は在庫を変えないので捨てない
	shipped, _ := seedOrder(t, s, nil, model.OrderStatusPaid)
	require.NoError(t, uc.UpdateStatus(ctx, 1, shipped.ID, AdminUpdateOrderStatusInput{Status: "SHIPPED"}))
	listing.AssertNotCalled(t, "Invalidate", mock.Anything)

	listing.On("Invalidate", mock.Anything).Return(errors.New("redis down")).Twice()

	canceled, _ := seedOrder(t, s, nil, model.OrderStatusPaid)
	require.NoError(t, uc.UpdateStatus(ctx, 1, canceled.ID, AdminUpdateOrderStatusInput{Status: "CANCELED"}))

	require.NoError(t, s.Orders().UpdatePayment(ctx, shipped.ID, 1, "pi_9"))
	pc.On("Refund", mock.Anything, "pi_9", mock.Anything).Return(payment.Refund{ID: "re_1", Status: "succeeded"}, nil).Once()
	_, err := uc.Refund(ctx, 1, shipped.ID)
	require.NoError(t, err)

	// キャッシュの失敗は操作を失敗させない
	listing.AssertExpectations(t)
}

func TestAdminOrderUsecase_Refund(t *testing.T) {
	s := newMemStore()
	pc := new(MockPaymentClient)
	uc := NewAdminOrderUsecase(s, pc, nil)
	o, p := seedOrder(t, s, nil, model.OrderStatusShipped)
	require.NoError(t, s.Orders().UpdatePayment(context.Background(), o.ID, 1, "pi_9"))

	pc.On("Refund", mock.Anything, "pi_9", fmt.Sprintf("refund-order-%d", o.ID)).Return(payment.Refund{ID: "re_1", Status: "succeeded", Amount: 25800}, nil).Once()

	out, err := uc.Refund(context.Background(), 7, o.ID)
	require.NoError(t, err)

	assert.Equal(t, string(model.OrderStatusRefunded), out.Status)
	assert.Equal(t, int64(5), s.d.products[p.ID].Stock)
	require.Len(t, out.Transactions, 1)
	assert.Equal(t, model.PaymentKindRefund, out.Transactions[0].Kind)
	assert.Equal(t, "re_1", out.Transactions[0].ExternalReference)

	require.Len(t, s.d.audits, 1)
	assert.Equal(t, model.AuditActionRefundOrder, s.d.audits[0].Action)
	assert.Equal(t, int64(7), s.d.audits[0].ActorUserID)
	assert.Contains(t, s.d.audits[0].AfterJSON, `"refund_id":"re_1"`)

	pc.AssertExpectations(t)
}

func TestAdminOrderUsecase_Refund_Rejected(t *testing.T) {
	ctx := context.Background()

	t.Run("pending order", func(t *testing.T) {
		s := newMemStore()
		pc := new(MockPaymentClient)
		uc := NewAdminOrderUsecase(s, pc, nil)
		o, _ := seedOrder(t, s, nil, model.OrderStatusPending)

		_, err := uc.Refund(ctx, 1, o.ID)
		requireHTTPError(t, err, http.StatusBadRequest, "order not refundable")
		pc.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no payment reference", func(t *testing.T) {
		s := newMemStore()
		uc := NewAdminOrderUsecase(s, new(MockPaymentClient), nil)
		o, _ := seedOrder(t, s, nil, model.OrderStatusPaid)

		_, err := uc.Refund(ctx, 1, o.ID)
		requireHTTPError(t, err, http.StatusBadRequest, "order has no payment")
	})

	t.Run("gateway error keeps order", func(t *testing.T) {
		s := newMemStore()
		pc := new(MockPaymentClient)
		uc := NewAdminOrderUsecase(s, pc, nil)
		o, p := seedOrder(t, s, nil, model.OrderStatusPaid)
		require.NoError(t, s.Orders().UpdatePayment(ctx, o.ID, 1, "pi_9"))
		pc.On("Refund", mock.Anything, "pi_9", mock.Anything).Return(payment.Refund{}, errors.New("timeout")).Once()

		_, err := uc.Refund(ctx, 1, o.ID)
		requireHTTPError(t, err, http.StatusBadGateway, "payment gateway error")
		assert.Equal(t, model.OrderStatusPaid, s.d.orders[o.ID].Status)
		assert.Equal(t, int64(3), s.d.products[p.ID].Stock)
		assert.Empty(t, s.d.txns)
	})

	t.Run("missing order", func(t *testing.T) {
		uc := NewAdminOrderUsecase(newMemStore(), new(MockPaymentClient), nil)
		_, err := uc.Refund(ctx, 1, 404)
		requireHTTPError(t, err, http.StatusNotFound, "not found")
	})
}

func TestAdminOrderUsecase_ListAndGet(t *testing.T) {
	s := newMemStore()
	uc := NewAdminOrderUsecase(s, new(MockPaymentClient), nil)
	uid := int64(3)
	paid, _ := seedOrder(t, s, &uid, model.OrderStatusPaid)
	seedOrder(t, s, nil, model.OrderStatusPending)
	ctx := context.Background()

	all, err := uc.List(ctx, AdminListOrdersInput{PageInput: PageInput{Page: 1, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	onlyPaid, err := uc.List(ctx, AdminListOrdersInput{PageInput: PageInput{Page: 1, Limit: 20}, Status: "paid"})
	require.NoError(t, err)
	require.Len(t, onlyPaid.Items, 1)
	assert.Equal(t, paid.ID, onlyPaid.Items[0].ID)
	assert.Len(t, onlyPaid.Items[0].Items, 1)

	byUser, err := uc.List(ctx, AdminListOrdersInput{PageInput: PageInput{Page: 1, Limit: 20}, UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byUser.Total)

	_, err = uc.List(ctx, AdminListOrdersInput{PageInput: PageInput{Page: 1, Limit: 20}, Status: "LOST"})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid status")

	got, err := uc.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "SEK", got.Currency)
	assert.NotEmpty(t, got.TotalDisplay)

	_, err = uc.Get(ctx, 9999)
	requireHTTPError(t, err, http.StatusNotFound, "not found")
}

func TestOrderUsecase_MyOrders(t *testing.T) {
	s := newMemStore()
	uc := NewOrderUsecase(s)
	me, other := int64(3), int64(4)
	mine, _ := seedOrder(t, s, &me, model.OrderStatusPaid)
	theirs, _ := seedOrder(t, s, &other, model.OrderStatusPaid)
	guest, _ := seedOrder(t, s, nil, model.OrderStatusPaid)
	ctx := context.Background()

	list, err := uc.ListMyOrders(ctx, me, PageInput{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, mine.ID, list.Items[0].ID)

	got, err := uc.GetMyOrderDetail(ctx, me, mine.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	// 他人やゲストの注文は存在しない扱い
	_, err = uc.GetMyOrderDetail(ctx, me, theirs.ID)
	requireHTTPError(t, err, http.StatusNotFound, "not found")
	_, err = uc.GetMyOrderDetail(ctx, me, guest.ID)
	requireHTTPError(t, err, http.StatusNotFound, "not found")

	_, err = uc.ListMyOrders(ctx, 0, PageInput{Page: 1, Limit: 20})
	requireHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
	_, err = uc.ListMyOrders(ctx, me, PageInput{Page: 1, Limit: 0})
	requireHTTPError(t, err, http.StatusBadRequest, "invalid limit")
}
