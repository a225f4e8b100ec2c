package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 1ユーザーにつきカートは1つ（初回アクセスで作成）
type Cart struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

// (cart, product) は一意。同じ商品の再追加は数量の上書き。
type CartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64           `gorm:"not null;uniqueIndex:idx_cart_product" json:"cart_id"`
	ProductID int64           `gorm:"not null;uniqueIndex:idx_cart_product" json:"product_id"`
	Quantity  decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"quantity"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
