package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionCartGormRepository struct {
	db *gorm.DB
}

// DI
func NewSessionCartGormRepository(db *gorm.DB) *SessionCartGormRepository {
	return &SessionCartGormRepository{db: db}
}

// session_keyで取得し、無ければ期限付きで作成
func (r *SessionCartGormRepository) GetOrCreateBySessionKey(ctx context.Context, sessionKey string) (model.SessionCart, error) {
	var cart model.SessionCart

	err := r.db.WithContext(ctx).
		Where("session_key = ?", sessionKey).
		First(&cart).Error

	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.SessionCart{}, err
	}

	// 一意制約違反はトランザクションを巻き込むので、作成はON CONFLICTで吸収する
	now := time.Now()
	newCart := model.SessionCart{
		SessionKey: sessionKey,
		CreatedAt:  now,
		ExpiresAt:  now.Add(model.SessionCartTTL),
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "session_key"}},
			DoNothing: true,
		}).
		Create(&newCart)
	if res.Error != nil {
		return model.SessionCart{}, res.Error
	}
	if res.RowsAffected == 0 {
		if retryErr := r.db.WithContext(ctx).
			Where("session_key = ?", sessionKey).
			First(&cart).Error; retryErr != nil {
			return model.SessionCart{}, retryErr
		}
		return cart, nil
	}

	return newCart, nil
}

func (r *SessionCartGormRepository) ListItems(ctx context.Context, cartID int64) ([]model.SessionCartItem, error) {
	var items []model.SessionCartItem

	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id asc").
		Find(&items).Error; err != nil {
		return []model.SessionCartItem{}, err
	}

	return items, nil
}

// 同一(cart, product)は数量を上書き
func (r *SessionCartGormRepository) SetItemQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return errors.New("invalid quantity")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.SessionCartItem

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			First(&item).Error

		if err == nil {
			return tx.Model(&model.SessionCartItem{}).
				Where("id = ?", item.ID).
				Update("quantity", qty).Error
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		newItem := model.SessionCartItem{
			CartID:    cartID,
			ProductID: productID,
			Quantity:  qty,
			CreatedAt: time.Now(),
		}

		return tx.Create(&newItem).Error
	})
}

func (r *SessionCartGormRepository) RemoveItemByProduct(ctx context.Context, cartID int64, productID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Delete(&model.SessionCartItem{}).Error
}

func (r *SessionCartGormRepository) ClearItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&model.SessionCartItem{}).Error
}

// 期限切れカートを明細ごと削除
func (r *SessionCartGormRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&model.SessionCart{}).
			Where("expires_at < ?", now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("cart_id IN ?", ids).Delete(&model.SessionCartItem{}).Error; err != nil {
			return err
		}

		res := tx.Where("id IN ?", ids).Delete(&model.SessionCart{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})

	return deleted, err
}
