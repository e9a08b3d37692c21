package usecase

import (
	"context"
	"maps"
	"slices"
	"strings"

	"datesshop/internal/domain/model"
	"datesshop/internal/infra/mail"
	"datesshop/internal/infra/payment"
	repo "datesshop/internal/repository"

	"github.com/stretchr/testify/mock"
)

// ---- in-memory store ----

// テスト用のメモリDB。WithinTxはエラー時にスナップショットへ戻す
type memData struct {
	products    map[int64]model.Product
	carts       map[int64]model.Cart
	cartItems   map[int64]model.CartItem
	orders      map[int64]model.Order
	orderItems  map[int64][]model.OrderItem
	txns        []model.PaymentTransaction
	audits      []model.AuditLog
	adjustments []model.InventoryAdjustment
	contacts    map[int64]model.ContactMessage
	seq         int64
}

func (d *memData) clone() *memData {
	c := *d
	c.products = maps.Clone(d.products)
	c.carts = maps.Clone(d.carts)
	c.cartItems = maps.Clone(d.cartItems)
	c.orders = maps.Clone(d.orders)
	c.orderItems = make(map[int64][]model.OrderItem, len(d.orderItems))
	for k, v := range d.orderItems {
		c.orderItems[k] = slices.Clone(v)
	}
	c.txns = slices.Clone(d.txns)
	c.audits = slices.Clone(d.audits)
	c.adjustments = slices.Clone(d.adjustments)
	c.contacts = maps.Clone(d.contacts)
	return &c
}

type memStore struct {
	d        *memData
	gateways map[string]model.PaymentGateway
	// 設定するとUpdatePaymentが失敗する
	failPaymentUpdate error
}

func newMemStore() *memStore {
	return &memStore{
		d: &memData{
			products:   map[int64]model.Product{},
			carts:      map[int64]model.Cart{},
			cartItems:  map[int64]model.CartItem{},
			orders:     map[int64]model.Order{},
			orderItems: map[int64][]model.OrderItem{},
			contacts:   map[int64]model.ContactMessage{},
		},
		gateways: map[string]model.PaymentGateway{
			"stripe": {ID: 1, Code: "stripe", Name: "Stripe", IsActive: true},
		},
	}
}

func (s *memStore) nextID() int64 {
	s.d.seq++
	return s.d.seq
}

func (s *memStore) addProduct(p model.Product) model.Product {
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	s.d.products[p.ID] = p
	return p
}

func (s *memStore) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	snapshot := s.d.clone()
	if err := fn(s); err != nil {
		s.d = snapshot
		return err
	}
	return nil
}

func (s *memStore) Orders() repo.OrderRepository { return memOrders{s} }
func (s *memStore) OrderItems() repo.OrderItemRepository { return memOrderItems{s} }
func (s *memStore) Carts() repo.CartRepository { return memCarts{s} }
func (s *memStore) CartItems() repo.CartItemRepository { return memCartItems{s} }
func (s *memStore) Inventory() repo.InventoryRepository { return memInventory{s} }
func (s *memStore) Products() repo.ProductRepository { return memProducts{s} }
func (s *memStore) PaymentTransactions() repo.PaymentTransactionRepository { return memTxns{s} }
func (s *memStore) AuditLogs() repo.AuditLogRepository { return memAudits{s} }
func (s *memStore) ContactMessages() repo.ContactMessageRepository { return memContacts{s} }
func (s *memStore) Gateways() repo.PaymentGatewayRepository { return memGateways{s} }

func sortedByID[T any](m map[int64]T, keep func(T) bool) []T {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		if keep == nil || keep(m[k]) {
			out = append(out, m[k])
		}
	}
	return out
}

func pageOf[T any](all []T, page, limit int) []T {
	start := (page - 1) * limit
	if page < 1 || limit < 1 || start >= len(all) {
		return []T{}
	}
	return all[start:min(start+limit, len(all))]
}

// ---- products / inventory ----

type memProducts struct{ s *memStore }

func (r memProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	all := sortedByID(r.s.d.products, func(p model.Product) bool {
		if !q.IncludeInactive && !p.IsActive {
			return false
		}
		return q.Q == "" || strings.Contains(strings.ToLower(p.NameEn+" "+p.NameSv), strings.ToLower(q.Q))
	})
	return pageOf(all, q.Page, q.Limit), int64(len(all)), nil
}

func (r memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := r.s.d.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r memProducts) ListAll(ctx context.Context) ([]model.Product, error) {
	return sortedByID(r.s.d.products, nil), nil
}

func (r memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = 0
	return r.s.addProduct(p), nil
}

func (r memProducts) Update(ctx context.Context, p model.Product) error {
	if _, ok := r.s.d.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.s.d.products[p.ID] = p
	return nil
}

func (r memProducts) SoftDelete(ctx context.Context, id int64) error {
	if _, ok := r.s.d.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.d.products, id)
	return nil
}

type memInventory struct{ s *memStore }

func (r memInventory) Reserve(ctx context.Context, productID int64, qty int64) (bool, error) {
	p, ok := r.s.d.products[productID]
	if !ok || !p.IsActive || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	r.s.d.products[productID] = p
	return true, nil
}

func (r memInventory) Restock(ctx context.Context, items []model.OrderItem) error {
	for _, it := range items {
		if p, ok := r.s.d.products[it.ProductID]; ok {
			p.Stock += it.Quantity
			r.s.d.products[it.ProductID] = p
		}
	}
	return nil
}

func (r memInventory) Adjust(ctx context.Context, a model.InventoryAdjustment) (model.InventoryAdjustment, error) {
	p, ok := r.s.d.products[a.ProductID]
	if !ok {
		return model.InventoryAdjustment{}, repo.ErrNotFound
	}
	a.ID = r.s.nextID()
	a.StockBefore = p.Stock
	a.Delta = a.StockAfter - p.Stock
	p.Stock = a.StockAfter
	r.s.d.products[a.ProductID] = p
	r.s.d.adjustments = append(r.s.d.adjustments, a)
	return a, nil
}

func (r memInventory) ListAdjustments(ctx context.Context, productID int64, page repo.Page) ([]model.InventoryAdjustment, int64, error) {
	var out []model.InventoryAdjustment
	for _, a := range slices.Backward(r.s.d.adjustments) {
		if a.ProductID == productID {
			out = append(out, a)
		}
	}
	return pageOf(out, page.Page, page.Limit), int64(len(out)), nil
}

// ---- carts ----

func ownsCart(c model.Cart, owner model.CartOwner) bool {
	if owner.IsGuest() {
		return c.UserID == nil && owner.GuestToken != "" && c.GuestToken == owner.GuestToken
	}
	return c.UserID != nil && *c.UserID == owner.UserID
}

type memCarts struct{ s *memStore }

func (r memCarts) FindActive(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	for _, c := range sortedByID(r.s.d.carts, nil) {
		if c.Status == model.CartStatusActive && ownsCart(c, owner) {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r memCarts) GetOrCreateActive(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if c, err := r.FindActive(ctx, owner); err == nil {
		return c, nil
	}
	c := model.Cart{ID: r.s.nextID(), Status: model.CartStatusActive}
	if owner.IsGuest() {
		c.GuestToken = owner.GuestToken
	} else {
		uid := owner.UserID
		c.UserID = &uid
	}
	r.s.d.carts[c.ID] = c
	return c, nil
}

func (r memCarts) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	c, ok := r.s.d.carts[cartID]
	if !ok {
		return repo.ErrNotFound
	}
	c.Status = status
	r.s.d.carts[cartID] = c
	return nil
}

func (r memCarts) Clear(ctx context.Context, cartID int64) error {
	for id, it := range r.s.d.cartItems {
		if it.CartID == cartID {
			delete(r.s.d.cartItems, id)
		}
	}
	return nil
}

type memCartItems struct{ s *memStore }

func (r memCartItems) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	return sortedByID(r.s.d.cartItems, func(it model.CartItem) bool { return it.CartID == cartID }), nil
}

func (r memCartItems) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) error {
	for id, it := range r.s.d.cartItems {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += addQty
			r.s.d.cartItems[id] = it
			return nil
		}
	}
	id := r.s.nextID()
	r.s.d.cartItems[id] = model.CartItem{ID: id, CartID: cartID, ProductID: productID, Quantity: addQty}
	return nil
}

func (r memCartItems) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	it, ok := r.s.d.cartItems[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.s.d.cartItems[cartItemID] = it
	return nil
}

func (r memCartItems) DeleteByID(ctx context.Context, cartItemID int64) error {
	if _, ok := r.s.d.cartItems[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.d.cartItems, cartItemID)
	return nil
}

func (r memCartItems) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	it, ok := r.s.d.cartItems[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r memCartItems) IsOwnedBy(ctx context.Context, cartItemID int64, owner model.CartOwner) (bool, error) {
	it, ok := r.s.d.cartItems[cartItemID]
	if !ok {
		return false, nil
	}
	c, ok := r.s.d.carts[it.CartID]
	return ok && c.Status == model.CartStatusActive && ownsCart(c, owner), nil
}

// ---- orders ----

type memOrders struct{ s *memStore }

func (r memOrders) find(keep func(model.Order) bool) (model.Order, error) {
	found := sortedByID(r.s.d.orders, keep)
	if len(found) == 0 {
		return model.Order{}, repo.ErrNotFound
	}
	return found[0], nil
}

func (r memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	return r.find(func(o model.Order) bool { return o.ID == orderID })
}

func (r memOrders) FindByPublicToken(ctx context.Context, token string) (model.Order, error) {
	return r.find(func(o model.Order) bool { return o.PublicToken == token })
}

func (r memOrders) FindByPaymentReference(ctx context.Context, ref string) (model.Order, error) {
	return r.find(func(o model.Order) bool { return ref != "" && o.PaymentReference == ref })
}

func (r memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	all := sortedByID(r.s.d.orders, func(o model.Order) bool { return o.UserID != nil && *o.UserID == userID })
	slices.Reverse(all)
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (r memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	for _, o := range r.s.d.orders {
		if o.IdempotencyKey == order.IdempotencyKey || o.PublicToken == order.PublicToken {
			return 0, repo.ErrConflict
		}
	}
	order.ID = r.s.nextID()
	r.s.d.orders[order.ID] = order
	return order.ID, nil
}

func (r memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	o, ok := r.s.d.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.s.d.orders[orderID] = o
	return nil
}

func (r memOrders) UpdatePayment(ctx context.Context, orderID int64, gatewayID int64, reference string) error {
	if r.s.failPaymentUpdate != nil {
		return r.s.failPaymentUpdate
	}
	o, ok := r.s.d.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.PaymentGatewayID = &gatewayID
	o.PaymentReference = reference
	r.s.d.orders[orderID] = o
	return nil
}

func (r memOrders) FindByIdempotencyKey(ctx context.Context, key string) (model.Order, bool, error) {
	o, err := r.find(func(o model.Order) bool { return o.IdempotencyKey == key })
	if err != nil {
		return model.Order{}, false, nil
	}
	return o, true, nil
}

func (r memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	all := sortedByID(r.s.d.orders, func(o model.Order) bool {
		if f.Status != "" && string(o.Status) != f.Status {
			return false
		}
		if f.UserID != nil && (o.UserID == nil || *o.UserID != *f.UserID) {
			return false
		}
		return true
	})
	slices.Reverse(all)
	return pageOf(all, f.Page, f.Limit), int64(len(all)), nil
}

type memOrderItems struct{ s *memStore }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.ID = r.s.nextID()
		it.OrderID = orderID
		r.s.d.orderItems[orderID] = append(r.s.d.orderItems[orderID], it)
	}
	return nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return slices.Clone(r.s.d.orderItems[orderID]), nil
}

func (r memOrderItems) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderItem, error) {
	out := map[int64][]model.OrderItem{}
	for _, id := range orderIDs {
		if items := r.s.d.orderItems[id]; len(items) > 0 {
			out[id] = slices.Clone(items)
		}
	}
	return out, nil
}

// ---- payments / audit / contact ----

type memGateways struct{ s *memStore }

func (r memGateways) FindByCode(ctx context.Context, code string) (model.PaymentGateway, error) {
	gw, ok := r.s.gateways[code]
	if !ok {
		return model.PaymentGateway{}, repo.ErrNotFound
	}
	return gw, nil
}

func (r memGateways) FindByID(ctx context.Context, id int64) (model.PaymentGateway, error) {
	for _, gw := range r.s.gateways {
		if gw.ID == id {
			return gw, nil
		}
	}
	return model.PaymentGateway{}, repo.ErrNotFound
}

type memTxns struct{ s *memStore }

func (r memTxns) Create(ctx context.Context, t model.PaymentTransaction) error {
	t.ID = r.s.nextID()
	r.s.d.txns = append(r.s.d.txns, t)
	return nil
}

func (r memTxns) ListByOrderID(ctx context.Context, orderID int64) ([]model.PaymentTransaction, error) {
	out := []model.PaymentTransaction{}
	for _, t := range r.s.d.txns {
		if t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r memTxns) FindOrderIDByReference(ctx context.Context, ref string) (int64, error) {
	for _, t := range slices.Backward(r.s.d.txns) {
		if ref != "" && t.ExternalReference == ref && t.Kind == model.PaymentKindPayment {
			return t.OrderID, nil
		}
	}
	return 0, repo.ErrNotFound
}

type memAudits struct{ s *memStore }

func (r memAudits) Create(ctx context.Context, log model.AuditLog) error {
	log.ID = r.s.nextID()
	r.s.d.audits = append(r.s.d.audits, log)
	return nil
}

func (r memAudits) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	out := []model.AuditLog{}
	for _, l := range r.s.d.audits {
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

type memContacts struct{ s *memStore }

func (r memContacts) Create(ctx context.Context, m *model.ContactMessage) error {
	m.ID = r.s.nextID()
	r.s.d.contacts[m.ID] = *m
	return nil
}

func (r memContacts) List(ctx context.Context, f repo.ContactMessageFilter) ([]model.ContactMessage, int64, error) {
	all := sortedByID(r.s.d.contacts, func(m model.ContactMessage) bool { return !f.UnreadOnly || !m.IsRead })
	return pageOf(all, f.Page.Page, f.Limit), int64(len(all)), nil
}

func (r memContacts) MarkRead(ctx context.Context, id int64) error {
	m, ok := r.s.d.contacts[id]
	if !ok {
		return repo.ErrNotFound
	}
	m.IsRead = true
	r.s.d.contacts[id] = m
	return nil
}

func (r memContacts) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.d.contacts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.d.contacts, id)
	return nil
}

// ---- mocks ----

type MockPaymentClient struct {
	mock.Mock
}

func (m *MockPaymentClient) CreateIntent(ctx context.Context, in payment.CreateIntentInput) (payment.Intent, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(payment.Intent), args.Error(1)
}

func (m *MockPaymentClient) RetrieveIntent(ctx context.Context, id string) (payment.Intent, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(payment.Intent), args.Error(1)
}

func (m *MockPaymentClient) Refund(ctx context.Context, intentID string, idempotencyKey string) (payment.Refund, error) {
	args := m.Called(ctx, intentID, idempotencyKey)
	return args.Get(0).(payment.Refund), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func sentTo(addr string) any {
	return mock.MatchedBy(func(msg mail.Message) bool { return msg.To == addr })
}
