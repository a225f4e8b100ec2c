package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type AdminOrderUsecase struct {
	orderRepo   repo.OrderRepository
	itemRepo    repo.OrderItemRepository
	productRepo repo.ProductRepository
	userRepo    repo.UserRepository
	loc         *time.Location
	now         func() time.Time
}

func NewAdminOrderUsecase(
	orderRepo repo.OrderRepository,
	itemRepo repo.OrderItemRepository,
	productRepo repo.ProductRepository,
	userRepo repo.UserRepository,
	loc *time.Location,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		loc:         loc,
		now:         time.Now,
	}
}

// 管理者向けの注文1件。顧客の連絡先も添える。
type AdminOrderResponse struct {
	OrderResponse
	Customer AdminCustomerInfo `json:"customer"`
}

type AdminCustomerInfo struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	UserType    string `json:"user_type"`
}

type AdminOrderListOutput struct {
	Items []AdminOrderResponse `json:"items"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (AdminOrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orderRepo.ListAdmin(ctx, f)
	if err != nil {
		return AdminOrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]AdminOrderResponse, 0, len(orders))
	for _, o := range orders {
		resp, err := u.buildAdminOrder(ctx, o)
		if err != nil {
			return AdminOrderListOutput{}, err
		}
		items = append(items, resp)
	}

	return AdminOrderListOutput{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

// ダッシュボード用の集計
type AdminSummary struct {
	OrdersToday     int64 `json:"orders_today"`
	OrdersReceived  int64 `json:"orders_received"`
	OrdersConfirmed int64 `json:"orders_confirmed"`
	OrdersShipped   int64 `json:"orders_shipped"`
	ActiveProducts  int64 `json:"active_products"`
	Customers       int64 `json:"customers"`
}

func (u *AdminOrderUsecase) Summary(ctx context.Context) (AdminSummary, error) {
	var s AdminSummary
	var err error

	if s.OrdersToday, err = u.orderRepo.CountCreatedOn(ctx, u.now().In(u.loc)); err != nil {
		return AdminSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if s.OrdersReceived, err = u.orderRepo.CountByStatus(ctx, model.OrderStatusReceived); err != nil {
		return AdminSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if s.OrdersConfirmed, err = u.orderRepo.CountByStatus(ctx, model.OrderStatusConfirmed); err != nil {
		return AdminSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if s.OrdersShipped, err = u.orderRepo.CountByStatus(ctx, model.OrderStatusShipped); err != nil {
		return AdminSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if s.ActiveProducts, err = u.productRepo.CountActive(ctx); err != nil {
		return AdminSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if s.Customers, err = u.userRepo.CountByRole(ctx, model.RoleCustomer); err != nil {
		return AdminSummary{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return s, nil
}

// 注文の顧客にTelegramで連絡するための情報
type TelegramContact struct {
	OrderNumber string `json:"order_number"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Username    string `json:"username"`
}

func (u *AdminOrderUsecase) TelegramContact(ctx context.Context, orderID int64) (TelegramContact, error) {
	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TelegramContact{}, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return TelegramContact{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	user, err := u.userRepo.FindByID(ctx, order.UserID)
	if err != nil || user == nil {
		return TelegramContact{}, NewHTTPError(http.StatusNotFound, "customer not found")
	}

	return TelegramContact{
		OrderNumber: order.OrderNumber,
		DisplayName: user.DisplayName(),
		Phone:       user.Phone,
		Username:    user.Username,
	}, nil
}

func (u *AdminOrderUsecase) buildAdminOrder(ctx context.Context, o model.Order) (AdminOrderResponse, error) {
	items, err := u.itemRepo.ListByOrderID(ctx, o.ID)
	if err != nil {
		return AdminOrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	respItems := make([]OrderItemResponse, 0, len(items))
	for _, it := range items {
		pr := ProductResponse{ID: it.ProductID}
		if p, err := u.productRepo.FindByID(ctx, it.ProductID); err == nil {
			pr = toProductResponse(p)
		}
		respItems = append(respItems, OrderItemResponse{
			ID:        it.ID,
			Product:   pr,
			Quantity:  it.Quantity.String(),
			CreatedAt: it.CreatedAt,
		})
	}

	customer := AdminCustomerInfo{ID: o.UserID}
	if user, err := u.userRepo.FindByID(ctx, o.UserID); err == nil && user != nil {
		customer.Username = user.Username
		customer.DisplayName = user.DisplayName()
		customer.Phone = user.Phone
		customer.UserType = string(user.UserType)
	}

	return AdminOrderResponse{
		OrderResponse: OrderResponse{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      o.Status,
			Items:       respItems,
			CreatedAt:   o.CreatedAt,
			UpdatedAt:   o.UpdatedAt,
		},
		Customer: customer,
	}, nil
}
