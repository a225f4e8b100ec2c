package repository

import (
	"app/internal/domain/model"
	repo "app/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartGormRepository(db *gorm.DB) *CartGormRepository {
	return &CartGormRepository{db: db}
}

// ユーザーのカートを取得し、無ければ作成
func (r *CartGormRepository) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error

	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, err
	}

	// 無ければ作る。マージのトランザクション内からも呼ばれるため、
	// 同時作成の一意制約違反でトランザクションを壊さないようON CONFLICTで吸収し、
	// 負けた側は勝者の行を読み直す。
	newCart := model.Cart{
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&newCart)
	if res.Error != nil {
		return model.Cart{}, res.Error
	}
	if res.RowsAffected == 0 {
		if retryErr := r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			First(&cart).Error; retryErr != nil {
			return model.Cart{}, retryErr
		}
		return cart, nil
	}

	return newCart, nil
}

func (r *CartGormRepository) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	var cart model.Cart

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&cart).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Cart{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Cart{}, err
	}
	return cart, nil
}

type CartItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewCartItemGormRepository(db *gorm.DB) *CartItemGormRepository {
	return &CartItemGormRepository{db: db}
}

// カート明細を一覧取得
func (r *CartItemGormRepository) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	var items []model.CartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.CartItem{}, err
	}

	return items, nil
}

// 同一(cart, product)は数量を上書き
func (r *CartItemGormRepository) SetQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error {
	return r.upsert(ctx, cartID, productID, qty, false)
}

// 同一(cart, product)は数量を加算
func (r *CartItemGormRepository) AddQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error {
	return r.upsert(ctx, cartID, productID, qty, true)
}

func (r *CartItemGormRepository) upsert(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal, accumulate bool) error {
	if !qty.IsPositive() {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.CartItem

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			First(&item).Error

		if err == nil {
			newQty := qty
			if accumulate {
				newQty = item.Quantity.Add(qty)
			}

			res := tx.Model(&model.CartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", newQty)

			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return repo.ErrNotFound
			}
			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		//無い場合は新規作成
		newItem := model.CartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: time.Now(),
		}

		return tx.Create(&newItem).Error
	})
}

// 無くてもエラーにしない
func (r *CartItemGormRepository) RemoveByProduct(ctx context.Context, cartID int64, productID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.CartItem{}).Error
}

// 指定カートの明細を全削除
func (r *CartItemGormRepository) Clear(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.CartItem{}).Error
}
