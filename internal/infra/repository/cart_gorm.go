package repository

import (
	"context"
	"errors"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// carts と cart_items を1つで扱う（CartRepository + CartItemRepository）
type CartGormRepository struct {
	db *gorm.DB
}

func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// 所有者のACTIVEカート。ログイン中はuser_id、ゲストはguest_token
func activeCartOf(owner model.CartOwner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.IsGuest() {
			db = db.Where("carts.user_id IS NULL AND carts.guest_token = ?", owner.GuestToken)
		} else {
			db = db.Where("carts.user_id = ?", owner.UserID)
		}
		return db.Where("carts.status = ?", model.CartStatusActive)
	}
}

func newCartFor(owner model.CartOwner) model.Cart {
	c := model.Cart{Status: model.CartStatusActive}
	if owner.IsGuest() {
		c.GuestToken = owner.GuestToken
	} else {
		uid := owner.UserID
		c.UserID = &uid
	}
	return c
}

// ACTIVEカートを行ロック付きで探し、無ければ作る
func (r *CartGormRepository) GetOrCreateActive(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if !owner.Valid() {
		return model.Cart{}, repo.ErrNotFound
	}

	var cart model.Cart
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(activeCartOf(owner)).
			First(&cart).Error
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		cart = newCartFor(owner)
		return conflict(tx.Create(&cart).Error)
	})
	// 同時作成に負けた。ロールバック済みなので外で相手の行を読む
	if errors.Is(err, repo.ErrConflict) {
		return r.FindActive(ctx, owner)
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

func (r *CartGormRepository) FindActive(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	if !owner.Valid() {
		return model.Cart{}, repo.ErrNotFound
	}

	var cart model.Cart
	if err := r.db.WithContext(ctx).Scopes(activeCartOf(owner)).Order("id desc").First(&cart).Error; err != nil {
		return model.Cart{}, notFound(err)
	}
	return cart, nil
}

// CHECKED_OUT / MERGED へ
func (r *CartGormRepository) UpdateStatus(ctx context.Context, cartID int64, status model.CartStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Cart{}).Where("id = ?", cartID).Update("status", status))
}

// 明細を全削除。カート自体は残す
func (r *CartGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Cart{}).Where("id = ?", cartID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repo.ErrNotFound
		}
		return tx.Where("cart_id = ?", cartID).Delete(&model.CartItem{}).Error
	})
}

func (r *CartGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	items := []model.CartItem{}
	if err := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// (cart, product)は1行。あれば数量を足し、無ければ作る
func (r *CartGormRepository) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) error {
	if addQty <= 0 {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			First(&item).Error
		switch {
		case err == nil:
			return affected(tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", gorm.Expr("quantity + ?", addQty)))
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&model.CartItem{CartID: cartID, ProductID: productID, Quantity: addQty}).Error
		default:
			return err
		}
	})
}

func (r *CartGormRepository) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	return affected(r.db.WithContext(ctx).Model(&model.CartItem{}).Where("id = ?", cartItemID).Update("quantity", qty))
}

func (r *CartGormRepository) DeleteByID(ctx context.Context, cartItemID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.CartItem{}, cartItemID))
}

func (r *CartGormRepository) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	var item model.CartItem
	if err := r.db.WithContext(ctx).First(&item, cartItemID).Error; err != nil {
		return model.CartItem{}, notFound(err)
	}
	return item, nil
}

// 明細が所有者のACTIVEカートのものか
func (r *CartGormRepository) IsOwnedBy(ctx context.Context, cartItemID int64, owner model.CartOwner) (bool, error) {
	if !owner.Valid() {
		return false, nil
	}

	var n int64
	err := r.db.WithContext(ctx).
		Table("cart_items").
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Scopes(activeCartOf(owner)).
		Where("cart_items.id = ?", cartItemID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
