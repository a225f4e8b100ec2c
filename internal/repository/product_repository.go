package repository

import (
	"app/internal/domain/model"
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// 参照されている行の削除を止めるときに返す
var ErrConflict = errors.New("conflict")

// 一覧検索
type ProductListQuery struct {
	Page       int
	Limit      int
	Q          string
	Status     *bool
	CategoryID *int64
	SupplierID *int64
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	List(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	FindByNameUz(ctx context.Context, nameUz string) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	// 注文明細から参照されている商品はErrConflict
	Delete(ctx context.Context, id int64) error

	// name_uzをキーにした取り込み用upsert。作成したらtrue。
	UpsertByNameUz(ctx context.Context, p model.Product) (model.Product, bool, error)

	CountActive(ctx context.Context) (int64, error)
}
