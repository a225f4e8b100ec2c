package repository

import (
	"app/internal/domain/model"
	"context"
)

type SupplierRepository interface {
	// name順
	List(ctx context.Context, status *bool) ([]model.Supplier, error)
	FindByID(ctx context.Context, id int64) (model.Supplier, error)
	Create(ctx context.Context, s model.Supplier) (model.Supplier, error)
	Update(ctx context.Context, s model.Supplier) error
	// 商品から参照されていたらErrConflict
	Delete(ctx context.Context, id int64) error

	GetOrCreateByName(ctx context.Context, name string) (model.Supplier, error)
}
