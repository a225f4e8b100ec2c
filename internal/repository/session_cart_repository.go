package repository

import (
	"app/internal/domain/model"
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type SessionCartRepository interface {
	// 無ければexpires_at=now+TTLで作る
	GetOrCreateBySessionKey(ctx context.Context, sessionKey string) (model.SessionCart, error)
	ListItems(ctx context.Context, cartID int64) ([]model.SessionCartItem, error)
	SetItemQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error
	RemoveItemByProduct(ctx context.Context, cartID int64, productID int64) error
	ClearItems(ctx context.Context, cartID int64) error

	// 期限切れカートの掃除（外部の定期実行から呼ぶ）
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
