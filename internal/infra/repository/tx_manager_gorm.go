package repository

import (
	"context"

	repo "app/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders       repo.OrderRepository
	orderItems   repo.OrderItemRepository
	carts        repo.CartRepository
	cartItems    repo.CartItemRepository
	sessionCarts repo.SessionCartRepository
	sequences    repo.SequenceRepository
	products     repo.ProductRepository
	categories   repo.CategoryRepository
	suppliers    repo.SupplierRepository
	users        repo.UserRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository             { return r.orders }
func (r *txReposGorm) OrderItems() repo.OrderItemRepository     { return r.orderItems }
func (r *txReposGorm) Carts() repo.CartRepository               { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository       { return r.cartItems }
func (r *txReposGorm) SessionCarts() repo.SessionCartRepository { return r.sessionCarts }
func (r *txReposGorm) Sequences() repo.SequenceRepository       { return r.sequences }
func (r *txReposGorm) Products() repo.ProductRepository         { return r.products }
func (r *txReposGorm) Categories() repo.CategoryRepository      { return r.categories }
func (r *txReposGorm) Suppliers() repo.SupplierRepository       { return r.suppliers }
func (r *txReposGorm) Users() repo.UserRepository               { return r.users }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:       NewOrderGormRepository(tx),
			orderItems:   NewOrderItemGormRepository(tx),
			carts:        NewCartGormRepository(tx),
			cartItems:    NewCartItemGormRepository(tx),
			sessionCarts: NewSessionCartGormRepository(tx),
			sequences:    NewSequenceGormRepository(tx),
			products:     NewProductGormRepository(tx),
			categories:   NewCategoryGormRepository(tx),
			suppliers:    NewSupplierGormRepository(tx),
			users:        NewUserGormRepository(tx),
		}
		return fn(r)
	})
}
