package repository

import (
	"app/internal/domain/model"
	"context"
)

type CategoryRepository interface {
	// order,id順
	List(ctx context.Context, status *bool) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	// 商品から参照されていたらErrConflict
	Delete(ctx context.Context, id int64) error

	// 取り込み用。無ければname_ru=name_uzで作る。
	GetOrCreateByNameUz(ctx context.Context, nameUz string) (model.Category, error)
}
