package repository

import (
	"context"
	"time"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

// エクスポートの1行＝(注文, 明細)のペア
type OrderExportRow struct {
	OrderNumber string
	Status      string
	CreatedAt   time.Time
	UserID      int64
	Username    string
	ProductID   int64
	ProductName string
	Quantity    decimal.Decimal
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
	//エクスポート用。新しい順に(注文,明細)で平坦化して返す。
	ListExportRows(ctx context.Context, f AdminOrderListFilter) ([]OrderExportRow, error)

	CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error)
	CountCreatedOn(ctx context.Context, day time.Time) (int64, error)
}
