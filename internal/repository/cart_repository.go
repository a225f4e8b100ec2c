package repository

import (
	"app/internal/domain/model"
	"context"

	"github.com/shopspring/decimal"
)

type CartRepository interface {
	GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error)
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
}

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一(cart, product)は数量を上書き
	SetQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error
	// 同一(cart, product)は数量を加算（マージ・再注文用）
	AddQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error
	// 無くてもエラーにしない
	RemoveByProduct(ctx context.Context, cartID int64, productID int64) error
	Clear(ctx context.Context, cartID int64) error
}
