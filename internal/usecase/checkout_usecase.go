package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	"datesshop/internal/infra/mail"
	"datesshop/internal/infra/payment"
	repo "datesshop/internal/repository"
	"datesshop/internal/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// 決済プロバイダのAPI
type PaymentClient interface {
	CreateIntent(ctx context.Context, in payment.CreateIntentInput) (payment.Intent, error)
	RetrieveIntent(ctx context.Context, id string) (payment.Intent, error)
	Refund(ctx context.Context, intentID string, idempotencyKey string) (payment.Refund, error)
}

type CheckoutConfig struct {
	Currency      string
	GatewayCode   string
	WebhookSecret string
}

type CheckoutUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	items    repo.OrderItemRepository
	gateways repo.PaymentGatewayRepository
	payments repo.PaymentTransactionRepository
	client   PaymentClient
	mailer   mail.Mailer
	listing  ListingInvalidator
	cfg      CheckoutConfig
	now      func() time.Time
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	items repo.OrderItemRepository,
	gateways repo.PaymentGatewayRepository,
	payments repo.PaymentTransactionRepository,
	client PaymentClient,
	mailer mail.Mailer,
	listing ListingInvalidator,
	cfg CheckoutConfig,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:       tx,
		orders:   orders,
		items:    items,
		gateways: gateways,
		payments: payments,
		client:   client,
		mailer:   mailer,
		listing:  orNoop(listing),
		cfg:      cfg,
		now:      time.Now,
	}
}

type CheckoutInput struct {
	Email          string `json:"email"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Line1          string `json:"line1"`
	Line2          string `json:"line2"`
	PostalCode     string `json:"postal_code"`
	City           string `json:"city"`
	Country        string `json:"country"`
	IdempotencyKey string `json:"-"`
}

func (in *CheckoutInput) normalize() {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Line1 = strings.TrimSpace(in.Line1)
	in.Line2 = strings.TrimSpace(in.Line2)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.City = strings.TrimSpace(in.City)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	in.IdempotencyKey = strings.TrimSpace(in.IdempotencyKey)
}

func (in CheckoutInput) validate() error {
	if in.IdempotencyKey == "" || len(in.IdempotencyKey) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}
	var errs fieldErrors
	errs.add(!validator.IsEmail(in.Email), "invalid email")
	errs.add(in.Name == "" || len(in.Name) > 255, "name required")
	errs.add(len(in.Phone) > 30, "phone too long")
	errs.add(in.Line1 == "" || len(in.Line1) > 255, "line1 required")
	errs.add(len(in.Line2) > 255, "line2 too long")
	errs.add(in.PostalCode == "" || len(in.PostalCode) > 20, "postal_code required")
	errs.add(in.City == "" || len(in.City) > 255, "city required")
	errs.add(len(in.Country) != 2, "country must be a 2-letter code")
	return errs.err()
}

type PaymentOutput struct {
	IntentID     string `json:"intent_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type CheckoutOutput struct {
	Order   OrderOutput    `json:"order"`
	Payment *PaymentOutput `json:"payment"`
}

// カートから注文を作り、決済インテントを作成する。
// 同じ持ち主が同じidempotency keyを送れば同じ注文を返す。他人のキーは409。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, owner model.CartOwner, in CheckoutInput) (CheckoutOutput, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return CheckoutOutput{}, err
	}
	if !owner.Valid() {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}

	var order model.Order
	var orderItems []model.OrderItem
	reused := false

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, in.IdempotencyKey)
		if err != nil {
			return dbError(ctx, err)
		}
		if found {
			if !existing.PlacedBy(owner) {
				return NewHTTPError(http.StatusConflict, "idempotency conflict")
			}
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return dbError(ctx, err)
			}
			order, orderItems, reused = existing, items, true
			return nil
		}

		//ACTIVEカート取得
		cart, err := r.Carts().FindActive(ctx, owner)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}
		if err != nil {
			return dbError(ctx, err)
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return dbError(ctx, err)
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		//在庫を確定時に再チェックして減らす
		orderItems = make([]model.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			p, err := r.Products().FindByID(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}
			if err != nil {
				return dbError(ctx, err)
			}
			if !p.IsActive {
				return NewHTTPError(http.StatusBadRequest, "product unavailable")
			}

			//在庫確保（足りないなら false）
			ok, err := r.Inventory().Reserve(ctx, ci.ProductID, ci.Quantity)
			if err != nil {
				return dbError(ctx, err)
			}
			if !ok {
				return NewHTTPError(http.StatusBadRequest, "out of stock")
			}

			//スナップショット（現在価格）
			orderItems = append(orderItems, model.OrderItem{
				ProductID:             ci.ProductID,
				ProductNameEnSnapshot: p.NameEn,
				ProductNameSvSnapshot: p.NameSv,
				UnitPriceSnapshot:     p.Price,
				Quantity:              ci.Quantity,
			})
		}

		order = model.Order{
			PublicToken:    uuid.NewString(),
			Email:          in.Email,
			CustomerName:   in.Name,
			Phone:          in.Phone,
			Line1:          in.Line1,
			Line2:          in.Line2,
			PostalCode:     in.PostalCode,
			City:           in.City,
			Country:        in.Country,
			Status:         model.OrderStatusPending,
			TotalPrice:     model.SumOrderItems(orderItems),
			Currency:       u.cfg.Currency,
			IdempotencyKey: in.IdempotencyKey,
			CreatedAt:      u.now(),
			UpdatedAt:      u.now(),
		}
		if owner.IsGuest() {
			order.GuestToken = owner.GuestToken
		} else {
			uid := owner.UserID
			order.UserID = &uid
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			//同時に同じキーが入った
			if errors.Is(err, repo.ErrConflict) {
				return NewHTTPError(http.StatusConflict, "idempotency conflict")
			}
			return dbError(ctx, err)
		}
		order.ID = orderID

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return dbError(ctx, err)
		}

		//カートをCHECKED_OUTにして、明細をクリア（再注文防止）
		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return dbError(ctx, err)
		}
		if err := r.Carts().Clear(ctx, cart.ID); err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	// 在庫が減ったので公開一覧を捨てる
	if !reused {
		u.invalidateListing(ctx)
	}

	out := CheckoutOutput{Order: toOrderOutput(order, orderItems)}

	// 再送で既にインテントがあるなら取り直す
	if reused && order.PaymentReference != "" {
		intent, err := u.client.RetrieveIntent(ctx, order.PaymentReference)
		if err != nil {
			return out, gatewayError(ctx, err)
		}
		out.Payment = &PaymentOutput{IntentID: intent.ID, ClientSecret: intent.ClientSecret, Status: intent.Status}
		return out, nil
	}
	if !order.Status.Payable() {
		return out, nil
	}

	// 注文は作成済み。失敗時も注文を返して再試行できるようにする
	pay, err := u.startPayment(ctx, order)
	if err != nil {
		return out, err
	}
	out.Order.PaymentReference = pay.IntentID
	out.Payment = &pay
	return out, nil
}

// 公開トークンで注文を見る（ゲスト含む）
func (u *CheckoutUsecase) GetByToken(ctx context.Context, token string) (OrderOutput, error) {
	o, items, err := u.loadByToken(ctx, token)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(o, items), nil
}

// PENDING / PAYMENT_FAILED の注文に新しいインテントを作る
func (u *CheckoutUsecase) RetryPayment(ctx context.Context, token string) (CheckoutOutput, error) {
	o, items, err := u.loadByToken(ctx, token)
	if err != nil {
		return CheckoutOutput{}, err
	}
	if !o.Status.Payable() {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "order not payable")
	}

	if o.Status == model.OrderStatusPaymentFailed {
		err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
			_, err := transitionOrder(ctx, r, o, model.OrderStatusPending)
			return err
		})
		if err != nil {
			return CheckoutOutput{}, err
		}
		o.Status = model.OrderStatusPending
	}

	pay, err := u.startPayment(ctx, o)
	if err != nil {
		return CheckoutOutput{}, err
	}
	o.PaymentReference = pay.IntentID
	return CheckoutOutput{Order: toOrderOutput(o, items), Payment: &pay}, nil
}

// プロバイダのステータスを取りに行って反映する
func (u *CheckoutUsecase) ConfirmPayment(ctx context.Context, token string) (OrderOutput, error) {
	o, items, err := u.loadByToken(ctx, token)
	if err != nil {
		return OrderOutput{}, err
	}
	if o.PaymentReference == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "no payment started")
	}

	intent, err := u.client.RetrieveIntent(ctx, o.PaymentReference)
	if err != nil {
		return OrderOutput{}, gatewayError(ctx, err)
	}

	updated, err := u.applyIntent(ctx, o, intent, true)
	if err != nil {
		return OrderOutput{}, err
	}
	return toOrderOutput(updated, items), nil
}

// webhookを検証して反映する。対象外のイベントは無視
func (u *CheckoutUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := payment.VerifySignature(payload, signature, u.cfg.WebhookSecret, payment.DefaultTolerance, u.now()); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	ev, err := payment.ParseEvent(payload)
	if err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	switch ev.Type {
	case payment.EventIntentSucceeded, payment.EventIntentFailed:
	default:
		return nil
	}

	o, err := u.orderForIntent(ctx, ev.Data.Object.ID)
	if errors.Is(err, repo.ErrNotFound) {
		zerolog.Ctx(ctx).Warn().Str("intent_id", ev.Data.Object.ID).Str("event", ev.Type).Msg("webhook for unknown payment")
		return nil
	}
	if err != nil {
		return dbError(ctx, err)
	}

	intent := ev.Data.Object
	if ev.Type == payment.EventIntentFailed && intent.Status == "" {
		intent.Status = payment.StatusRequiresPaymentMethod
	}
	_, err = u.applyIntent(ctx, o, intent, false)
	return err
}

// リトライで差し替わった古いインテントは決済履歴から注文を引く
func (u *CheckoutUsecase) orderForIntent(ctx context.Context, intentID string) (model.Order, error) {
	o, err := u.orders.FindByPaymentReference(ctx, intentID)
	if !errors.Is(err, repo.ErrNotFound) {
		return o, err
	}
	orderID, err := u.payments.FindOrderIDByReference(ctx, intentID)
	if err != nil {
		return model.Order{}, err
	}
	return u.orders.FindByID(ctx, orderID)
}

// succeeded → PAID, canceled / requires_payment_method → PAYMENT_FAILED, それ以外はPENDINGのまま
func mapIntentStatus(s string) model.OrderStatus {
	switch s {
	case payment.StatusSucceeded:
		return model.OrderStatusPaid
	case payment.StatusCanceled, payment.StatusRequiresPaymentMethod:
		return model.OrderStatusPaymentFailed
	}
	return model.OrderStatusPending
}

// strict=falseのとき（webhook）は遷移できない状態を黙って無視する
func (u *CheckoutUsecase) applyIntent(ctx context.Context, o model.Order, intent payment.Intent, strict bool) (model.Order, error) {
	next := mapIntentStatus(intent.Status)
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		current, err := r.Orders().FindByID(ctx, o.ID)
		if err != nil {
			return dbError(ctx, err)
		}
		o = current

		if err := r.PaymentTransactions().Create(ctx, model.PaymentTransaction{
			OrderID:           o.ID,
			PaymentGatewayID:  derefID(o.PaymentGatewayID),
			Kind:              model.PaymentKindPayment,
			ExternalReference: intent.ID,
			Amount:            o.TotalPrice,
			Currency:          o.Currency,
			Status:            intent.Status,
		}); err != nil {
			return dbError(ctx, err)
		}

		if o.Status == next {
			return nil
		}
		if !o.Status.CanTransitionTo(next) {
			if strict {
				return NewHTTPError(http.StatusConflict, "order status "+string(o.Status)+" cannot become "+string(next))
			}
			zerolog.Ctx(ctx).Warn().Int64("order_id", o.ID).Str("from", string(o.Status)).Str("to", string(next)).Msg("payment status ignored")
			return nil
		}

		changed, err = transitionOrder(ctx, r, o, next)
		if err != nil {
			return err
		}
		o.Status = next
		return nil
	})
	if err != nil {
		return model.Order{}, err
	}

	if changed && o.Status == model.OrderStatusPaid {
		u.sendConfirmation(ctx, o)
	}
	return o, nil
}

// 送信失敗は注文に影響させない
func (u *CheckoutUsecase) sendConfirmation(ctx context.Context, o model.Order) {
	items, err := u.items.ListByOrderID(ctx, o.ID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("order_id", o.ID).Msg("order confirmation: load items")
		return
	}
	if err := u.mailer.Send(ctx, mail.OrderConfirmation(o, items)); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("order_id", o.ID).Msg("order confirmation not sent")
	}
}

func (u *CheckoutUsecase) startPayment(ctx context.Context, o model.Order) (PaymentOutput, error) {
	gw, err := u.gateways.FindByCode(ctx, u.cfg.GatewayCode)
	if errors.Is(err, repo.ErrNotFound) {
		return PaymentOutput{}, internalError(ctx, err, "payment gateway not configured")
	}
	if err != nil {
		return PaymentOutput{}, dbError(ctx, err)
	}

	prev, err := u.payments.ListByOrderID(ctx, o.ID)
	if err != nil {
		return PaymentOutput{}, dbError(ctx, err)
	}

	intent, err := u.client.CreateIntent(ctx, payment.CreateIntentInput{
		Amount:         o.TotalPrice,
		Currency:       o.Currency,
		OrderID:        o.ID,
		Email:          o.Email,
		IdempotencyKey: fmt.Sprintf("order-%d-intent-%d", o.ID, len(prev)+1),
	})
	if err != nil {
		return PaymentOutput{}, gatewayError(ctx, err)
	}

	// 履歴と注文側の参照は一緒に書く
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.PaymentTransactions().Create(ctx, model.PaymentTransaction{
			OrderID:           o.ID,
			PaymentGatewayID:  gw.ID,
			Kind:              model.PaymentKindPayment,
			ExternalReference: intent.ID,
			Amount:            o.TotalPrice,
			Currency:          o.Currency,
			Status:            intent.Status,
		}); err != nil {
			return dbError(ctx, err)
		}
		if err := r.Orders().UpdatePayment(ctx, o.ID, gw.ID, intent.ID); err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
	if err != nil {
		return PaymentOutput{}, err
	}

	return PaymentOutput{IntentID: intent.ID, ClientSecret: intent.ClientSecret, Status: intent.Status}, nil
}

func (u *CheckoutUsecase) loadByToken(ctx context.Context, token string) (model.Order, []model.OrderItem, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Order{}, nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	o, err := u.orders.FindByPublicToken(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, nil, dbError(ctx, err)
	}
	items, err := u.items.ListByOrderID(ctx, o.ID)
	if err != nil {
		return model.Order{}, nil, dbError(ctx, err)
	}
	return o, items, nil
}

// 失敗してもTTLで切れるので警告だけ
func (u *CheckoutUsecase) invalidateListing(ctx context.Context) {
	if err := u.listing.Invalidate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("product listing cache not invalidated")
	}
}

func gatewayError(ctx context.Context, err error) error {
	zerolog.Ctx(ctx).Error().Err(err).Msg("payment gateway error")
	return NewHTTPError(http.StatusBadGateway, "payment gateway error")
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
