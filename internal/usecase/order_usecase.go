package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"go.uber.org/zap"
)

// 通知はベストエフォート。注文確定を止めない。
type OrderNotifier interface {
	Send(ctx context.Context, text string) bool
}

type OrderUsecase struct {
	tx          repo.TransactionManager
	orderRepo   repo.OrderRepository
	itemRepo    repo.OrderItemRepository
	productRepo repo.ProductRepository
	userRepo    repo.UserRepository
	auditRepo   repo.AuditLogRepository
	notifier    OrderNotifier
	logger      *zap.Logger
	loc         *time.Location
	now         func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orderRepo repo.OrderRepository,
	itemRepo repo.OrderItemRepository,
	productRepo repo.ProductRepository,
	userRepo repo.UserRepository,
	auditRepo repo.AuditLogRepository,
	notifier OrderNotifier,
	logger *zap.Logger,
	loc *time.Location,
) *OrderUsecase {
	return &OrderUsecase{
		tx:          tx,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		auditRepo:   auditRepo,
		notifier:    notifier,
		logger:      logger,
		loc:         loc,
		now:         time.Now,
	}
}

type OrderItemResponse struct {
	ID        int64           `json:"id"`
	Product   ProductResponse `json:"product"`
	Quantity  string          `json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
}

type OrderResponse struct {
	ID          int64               `json:"id"`
	OrderNumber string              `json:"order_number"`
	Status      model.OrderStatus   `json:"status"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type OrderListOutput struct {
	Items []OrderResponse `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// Create はカートの中身を注文に確定する。
// 採番・注文作成・明細コピー・カート空けを1トランザクションで行い、
// どこかで失敗したら全部巻き戻す（番号だけ進んで注文が無い状態は作らない）。
func (u *OrderUsecase) Create(ctx context.Context, userID int64, role model.Role) (OrderResponse, error) {
	if role.IsAdmin() {
		return OrderResponse{}, NewHTTPError(http.StatusForbidden, "cart functionality is not available for admin users")
	}

	var created model.Order
	var createdItems []model.OrderItem

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusBadRequest, "cart is empty")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cartItems, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if len(cartItems) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		// 日付行のロック下で採番
		today := u.now().In(u.loc)
		counter, err := r.Sequences().NextForDate(ctx, today)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order := model.Order{
			UserID:      userID,
			OrderNumber: model.FormatOrderNumber(today, counter),
			Status:      model.OrderStatusReceived,
		}
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		order.ID = orderID

		items := make([]model.OrderItem, 0, len(cartItems))
		for _, ci := range cartItems {
			items = append(items, model.OrderItem{
				OrderID:   orderID,
				ProductID: ci.ProductID,
				Quantity:  ci.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, items); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.CartItems().Clear(ctx, cart.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		created = order
		createdItems = items
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	// commit後に通知。失敗はログのみ。
	go u.notifyNewOrder(created, createdItems)

	return u.buildOrderResponse(ctx, created, createdItems), nil
}

func (u *OrderUsecase) List(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orderRepo.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		oi, err := u.itemRepo.ListByOrderID(ctx, o.ID)
		if err != nil {
			return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items = append(items, u.buildOrderResponse(ctx, o, oi))
	}

	return OrderListOutput{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Detail は所有者か管理者だけが見られる
func (u *OrderUsecase) Detail(ctx context.Context, orderID int64, userID int64, role model.Role) (OrderResponse, error) {
	order, err := u.findVisibleOrder(ctx, orderID, userID, role)
	if err != nil {
		return OrderResponse{}, err
	}

	items, err := u.itemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildOrderResponse(ctx, order, items), nil
}

// Reorder は過去注文の明細をカートへ加算コピーする（上書きではない）。
// 所有者のみ。管理者でも他人の注文からは再注文できない。
func (u *OrderUsecase) Reorder(ctx context.Context, orderID int64, userID int64, role model.Role) (int, error) {
	if role.IsAdmin() {
		return 0, NewHTTPError(http.StatusForbidden, "cart functionality is not available for admin users")
	}

	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return 0, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID != userID {
		return 0, NewHTTPError(http.StatusForbidden, "not your order")
	}

	addedCount := 0
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		cart, err := r.Carts().GetOrCreateByUserID(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		for _, it := range items {
			// 消えた・無効化された商品は飛ばす
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					continue
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !p.Status {
				continue
			}
			if err := r.CartItems().AddQuantity(ctx, cart.ID, it.ProductID, it.Quantity); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			addedCount++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return addedCount, nil
}

// UpdateStatus は前進のみの遷移を強制する（Received→Confirmed→Shipped）。
func (u *OrderUsecase) UpdateStatus(ctx context.Context, orderID int64, next model.OrderStatus, actorID int64) (OrderResponse, error) {
	if !next.Valid() {
		return OrderResponse{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return OrderResponse{}, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return OrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !order.Status.CanTransitionTo(next) {
		return OrderResponse{}, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("illegal transition from %s to %s", order.Status, next))
	}

	prev := order.Status
	if err := u.orderRepo.UpdateStatus(ctx, order.ID, next); err != nil {
		return OrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	order.Status = next

	// 監査ログはベストエフォート
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       model.AuditActionUpdateOrderStatus,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   order.ID,
		Before:       string(prev),
		After:        string(next),
	}); err != nil {
		u.logger.Warn("audit log write failed", zap.Error(err))
	}

	items, err := u.itemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return OrderResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return u.buildOrderResponse(ctx, order, items), nil
}

// MessageTemplate は顧客がTelegramに貼り付けるための定型文を返す
func (u *OrderUsecase) MessageTemplate(ctx context.Context, orderID int64, userID int64, role model.Role) (string, error) {
	order, err := u.findVisibleOrder(ctx, orderID, userID, role)
	if err != nil {
		return "", err
	}

	items, err := u.itemRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return "", NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Заказ %s\n", order.OrderNumber)
	fmt.Fprintf(&b, "Дата: %s\n\n", order.CreatedAt.In(u.loc).Format("2006-01-02 15:04"))
	for i, it := range items {
		name := u.productName(ctx, it.ProductID)
		fmt.Fprintf(&b, "%d. %s x %s\n", i+1, name, it.Quantity.String())
	}
	b.WriteString("\nПрошу выставить счет.")
	return b.String(), nil
}

func (u *OrderUsecase) findVisibleOrder(ctx context.Context, orderID int64, userID int64, role model.Role) (model.Order, error) {
	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Order{}, NewHTTPError(http.StatusNotFound, "order not found")
		}
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if order.UserID != userID && !role.IsAdmin() {
		return model.Order{}, NewHTTPError(http.StatusForbidden, "not your order")
	}
	return order, nil
}

func (u *OrderUsecase) productName(ctx context.Context, productID int64) string {
	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return fmt.Sprintf("product #%d", productID)
	}
	if p.NameRu != "" {
		return p.NameRu
	}
	return p.NameUz
}

func (u *OrderUsecase) buildOrderResponse(ctx context.Context, o model.Order, items []model.OrderItem) OrderResponse {
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
	return OrderResponse{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Items:       respItems,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

// 管理者チャットへ新規注文を知らせる。commit後に別goroutineで呼ぶ。
func (u *OrderUsecase) notifyNewOrder(order model.Order, items []model.OrderItem) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var customer string
	if user, err := u.userRepo.FindByID(ctx, order.UserID); err == nil {
		customer = user.DisplayName()
		if user.Phone != "" {
			customer += " / " + user.Phone
		}
	} else {
		customer = fmt.Sprintf("user #%d", order.UserID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Новый заказ %s</b>\n", order.OrderNumber)
	fmt.Fprintf(&b, "Клиент: %s\n\n", customer)
	for i, it := range items {
		fmt.Fprintf(&b, "%d. %s x %s\n", i+1, u.productName(ctx, it.ProductID), it.Quantity.String())
	}

	if !u.notifier.Send(ctx, b.String()) {
		u.logger.Warn("order notification not delivered", zap.String("order_number", order.OrderNumber))
	}
}
