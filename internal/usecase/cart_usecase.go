package usecase

import (
	"context"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
)

// カート操作の主体。UserID>0なら認証済み。
// SessionKeyはX-Session-IDヘッダかcookieから解決された値。
type CartIdentity struct {
	UserID     int64
	Role       model.Role
	SessionKey string
}

func (id CartIdentity) authenticated() bool {
	return id.UserID > 0
}

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	tx          repo.TransactionManager
	productRepo repo.ProductRepository
}

func NewCartUsecase(tx repo.TransactionManager, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{tx: tx, productRepo: productRepo}
}

// 価格は返さない（price-on-request）
type ProductResponse struct {
	ID          int64  `json:"id"`
	NameUz      string `json:"name_uz"`
	NameRu      string `json:"name_ru"`
	CategoryID  int64  `json:"category_id"`
	SupplierID  int64  `json:"supplier_id"`
	ImageURL    string `json:"image_url"`
	Description string `json:"description"`
	Status      bool   `json:"status"`
}

type CartItemResponse struct {
	ID        int64           `json:"id"`
	Product   ProductResponse `json:"product"`
	Quantity  decimal.Decimal `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

type CartResponse struct {
	ID        int64              `json:"id"`
	Items     []CartItemResponse `json:"items"`
	CreatedAt time.Time          `json:"created_at"`
}

type AddCartItemInput struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// GetCart はカート取得。
// 認証済みでセッションキーが残っていればまずマージしてから返す。読みでも状態が動く点に注意。
func (u *CartUsecase) GetCart(ctx context.Context, id CartIdentity) (CartResponse, error) {
	if err := u.rejectAdmin(id); err != nil {
		return CartResponse{}, err
	}

	var out CartResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if id.authenticated() {
			cart, err := u.mergeSessionIntoUser(ctx, r, id)
			if err != nil {
				return err
			}
			items, err := r.CartItems().ListByCartID(ctx, cart.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = u.buildCartResponse(ctx, cart.ID, cart.CreatedAt, toGenericItems(items))
			return nil
		}

		scart, err := r.SessionCarts().GetOrCreateBySessionKey(ctx, id.SessionKey)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items, err := r.SessionCarts().ListItems(ctx, scart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = u.buildCartResponse(ctx, scart.ID, scart.CreatedAt, sessionToGenericItems(items))
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return out, nil
}

// AddItem は数量の上書きアップサート（同一商品の再追加は加算ではなく置き換え）。
func (u *CartUsecase) AddItem(ctx context.Context, id CartIdentity, in AddCartItemInput) (CartResponse, error) {
	if err := u.rejectAdmin(id); err != nil {
		return CartResponse{}, err
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	qty := in.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	if !qty.IsPositive() {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}
	if qty.Exponent() < -2 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	// 商品の存在チェック
	if _, err := u.productRepo.FindByID(ctx, in.ProductID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if id.authenticated() {
			cart, err := u.mergeSessionIntoUser(ctx, r, id)
			if err != nil {
				return err
			}
			if err := r.CartItems().SetQuantity(ctx, cart.ID, in.ProductID, qty); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return nil
		}

		scart, err := r.SessionCarts().GetOrCreateBySessionKey(ctx, id.SessionKey)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.SessionCarts().SetItemQuantity(ctx, scart.ID, in.ProductID, qty); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.GetCart(ctx, id)
}

// RemoveItem は冪等な削除。明細が無くてもエラーにしない。
func (u *CartUsecase) RemoveItem(ctx context.Context, id CartIdentity, productID int64) (CartResponse, error) {
	if err := u.rejectAdmin(id); err != nil {
		return CartResponse{}, err
	}
	if productID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if id.authenticated() {
			cart, err := r.Carts().GetOrCreateByUserID(ctx, id.UserID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.CartItems().RemoveByProduct(ctx, cart.ID, productID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			return nil
		}

		scart, err := r.SessionCarts().GetOrCreateBySessionKey(ctx, id.SessionKey)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err := r.SessionCarts().RemoveItemByProduct(ctx, scart.ID, productID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.GetCart(ctx, id)
}

// 管理者はカートを使えない
func (u *CartUsecase) rejectAdmin(id CartIdentity) error {
	if id.authenticated() && id.Role.IsAdmin() {
		return NewHTTPError(http.StatusForbidden, "cart functionality is not available for admin users")
	}
	return nil
}

// セッションカートをユーザーカートへ折り込む。
// 同じ商品があれば数量を加算、無ければ移す。折り込み後にセッション側の明細は消すので
// 二回呼んでも結果は変わらない（空セッションのマージはno-op）。
func (u *CartUsecase) mergeSessionIntoUser(ctx context.Context, r repo.TxRepos, id CartIdentity) (model.Cart, error) {
	cart, err := r.Carts().GetOrCreateByUserID(ctx, id.UserID)
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if id.SessionKey == "" {
		return cart, nil
	}

	scart, err := r.SessionCarts().GetOrCreateBySessionKey(ctx, id.SessionKey)
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	sitems, err := r.SessionCarts().ListItems(ctx, scart.ID)
	if err != nil {
		return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	for _, it := range sitems {
		if err := r.CartItems().AddQuantity(ctx, cart.ID, it.ProductID, it.Quantity); err != nil {
			return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	if len(sitems) > 0 {
		if err := r.SessionCarts().ClearItems(ctx, scart.ID); err != nil {
			return model.Cart{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	return cart, nil
}

// セッション/ユーザーのカート明細を共通形に寄せる
type genericCartItem struct {
	ID        int64
	ProductID int64
	Quantity  decimal.Decimal
	CreatedAt time.Time
}

func toGenericItems(items []model.CartItem) []genericCartItem {
	out := make([]genericCartItem, 0, len(items))
	for _, it := range items {
		out = append(out, genericCartItem{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, CreatedAt: it.CreatedAt})
	}
	return out
}

func sessionToGenericItems(items []model.SessionCartItem) []genericCartItem {
	out := make([]genericCartItem, 0, len(items))
	for _, it := range items {
		out = append(out, genericCartItem{ID: it.ID, ProductID: it.ProductID, Quantity: it.Quantity, CreatedAt: it.CreatedAt})
	}
	return out
}

func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64, createdAt time.Time, items []genericCartItem) CartResponse {
	respItems := make([]CartItemResponse, 0, len(items))

	for _, it := range items {
		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		if err != nil {
			continue
		}

		respItems = append(respItems, CartItemResponse{
			ID:        it.ID,
			Product:   toProductResponse(p),
			Quantity:  it.Quantity,
			CreatedAt: it.CreatedAt,
		})
	}

	return CartResponse{ID: cartID, Items: respItems, CreatedAt: createdAt}
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		NameUz:      p.NameUz,
		NameRu:      p.NameRu,
		CategoryID:  p.CategoryID,
		SupplierID:  p.SupplierID,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Status:      p.Status,
	}
}
