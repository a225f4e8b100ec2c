package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 匿名カートの有効期限
const SessionCartTTL = 7 * 24 * time.Hour

// 匿名カート。session_keyはX-Session-IDヘッダかcookie由来。
// expires_atを過ぎたものは外部の定期掃除で削除される。
type SessionCart struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionKey string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"-"`
}

type SessionCartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64           `gorm:"not null;uniqueIndex:idx_scart_product" json:"cart_id"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_scart_product" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
