package usecase

import (
	"context"
	"errors"
	"net/http"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"github.com/google/uuid"
)

// CartUsecase は /cart の業務ロジックです。
// 所有者はログインユーザーかゲストトークン。価格は常に商品の現在価格で計算します。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	tx           repo.TransactionManager
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		tx:           tx,
	}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	NameEn    string `json:"name_en"`
	NameSv    string `json:"name_sv"`
	ImagePath string `json:"image_path"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	LineTotal int64  `json:"line_total"`
	Stock     int64  `json:"stock"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	ItemCount int64              `json:"item_count"`
	Subtotal  int64              `json:"subtotal"`
	Total     int64              `json:"total"`
	// 新しく払い出したときだけ返す
	GuestToken string `json:"guest_token,omitempty"`
}

type AddCartInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemInput struct {
	Quantity int64 `json:"quantity"`
}

func emptyCart() CartResponse {
	return CartResponse{Items: []CartItemResponse{}}
}

// GetCart はカート取得（無ければ作らずに空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, owner model.CartOwner) (CartResponse, error) {
	if !owner.Valid() {
		return emptyCart(), nil
	}

	cart, err := u.cartRepo.FindActive(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// ゲストでトークンが無ければ新しく払い出す。
func (u *CartUsecase) AddToCart(ctx context.Context, owner model.CartOwner, in AddCartInput) (CartResponse, error) {
	var errs fieldErrors
	errs.add(in.ProductID <= 0, "invalid product_id")
	errs.add(in.Quantity < 1, "invalid quantity")
	if err := errs.err(); err != nil {
		return CartResponse{}, err
	}

	issued := ""
	if !owner.Valid() {
		owner.GuestToken = uuid.NewString()
		issued = owner.GuestToken
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}

	// ACTIVEカート取得（無ければ作成）
	cart, err := u.cartRepo.GetOrCreateActive(ctx, owner)
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	var existingQty int64
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	if existingQty+in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	// Upsert（同一商品は加算）
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity); err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	out, err := u.buildCartResponse(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, err
	}
	out.GuestToken = issued
	return out, nil
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, owner model.CartOwner, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewValidationError("invalid quantity")
	}

	item, err := u.ownedItem(ctx, owner, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	//商品の在庫チェック
	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "stock exceeded")
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, dbError(ctx, err)
	}

	return u.buildCartResponse(ctx, item.CartID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, owner model.CartOwner, cartItemID int64) (CartResponse, error) {
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	item, err := u.ownedItem(ctx, owner, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, dbError(ctx, err)
	}

	return u.buildCartResponse(ctx, item.CartID)
}

// カートを空にする（カート自体はACTIVEのまま）
func (u *CartUsecase) ClearCart(ctx context.Context, owner model.CartOwner) (CartResponse, error) {
	if !owner.Valid() {
		return emptyCart(), nil
	}

	cart, err := u.cartRepo.FindActive(ctx, owner)
	if errors.Is(err, repo.ErrNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, dbError(ctx, err)
	}
	return emptyCart(), nil
}

// ログイン時にゲストカートをユーザーのカートへ移す。
// 数量は合算して在庫で頭打ち、ゲストカートはMERGEDにする。
func (u *CartUsecase) MergeGuestCart(ctx context.Context, userID int64, guestToken string) error {
	if userID <= 0 || guestToken == "" {
		return nil
	}
	guest := model.CartOwner{GuestToken: guestToken}
	user := model.CartOwner{UserID: userID}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		guestCart, err := r.Carts().FindActive(ctx, guest)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return dbError(ctx, err)
		}

		guestItems, err := r.CartItems().ListByCartID(ctx, guestCart.ID)
		if err != nil {
			return dbError(ctx, err)
		}

		if len(guestItems) > 0 {
			userCart, err := r.Carts().GetOrCreateActive(ctx, user)
			if err != nil {
				return dbError(ctx, err)
			}
			userItems, err := r.CartItems().ListByCartID(ctx, userCart.ID)
			if err != nil {
				return dbError(ctx, err)
			}
			current := make(map[int64]int64, len(userItems))
			for _, it := range userItems {
				current[it.ProductID] = it.Quantity
			}

			for _, gi := range guestItems {
				p, err := r.Products().FindByID(ctx, gi.ProductID)
				if errors.Is(err, repo.ErrNotFound) {
					continue
				}
				if err != nil {
					return dbError(ctx, err)
				}
				if !p.IsActive {
					continue
				}

				have := current[gi.ProductID]
				want := have + gi.Quantity
				if want > p.Stock {
					want = p.Stock
				}
				if want <= have {
					continue
				}
				if err := r.CartItems().UpsertByCartAndProduct(ctx, userCart.ID, gi.ProductID, want-have); err != nil {
					return dbError(ctx, err)
				}
				current[gi.ProductID] = want
			}
		}

		if err := r.Carts().UpdateStatus(ctx, guestCart.ID, model.CartStatusMerged); err != nil {
			return dbError(ctx, err)
		}
		return nil
	})
}

// 他人の明細は存在しない扱い
func (u *CartUsecase) ownedItem(ctx context.Context, owner model.CartOwner, cartItemID int64) (model.CartItem, error) {
	owned, err := u.cartItemRepo.IsOwnedBy(ctx, cartItemID, owner)
	if err != nil {
		return model.CartItem{}, dbError(ctx, err)
	}
	if !owned {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, dbError(ctx, err)
	}
	return item, nil
}

// cartIDの明細を現在価格でまとめる（非公開・削除済みの商品は出さない）
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, dbError(ctx, err)
	}

	out := CartResponse{Items: make([]CartItemResponse, 0, len(items))}

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, dbError(ctx, err)
		}
		if !p.IsActive {
			continue
		}

		line := p.Price * it.Quantity
		out.Items = append(out.Items, CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			NameEn:    p.NameEn,
			NameSv:    p.NameSv,
			ImagePath: p.ImagePath,
			Price:     p.Price,
			Quantity:  it.Quantity,
			LineTotal: line,
			Stock:     p.Stock,
		})
		out.ItemCount += it.Quantity
		out.Subtotal += line
	}

	// 送料・割引は無いので合計=小計
	out.Total = out.Subtotal
	return out, nil
}
