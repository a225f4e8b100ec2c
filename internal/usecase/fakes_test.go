package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	he, ok := AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, status, he.Status)
	assert.Equal(t, msg, he.Message)
}

// テスト用のインメモリrepo群。
// トランザクションはstubTxManagerのmutexで直列化する（DBの行ロック相当）。

type memProductRepo struct {
	mu       sync.Mutex
	seq      int64
	products map[int64]model.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: map[int64]model.Product{}}
}

func (r *memProductRepo) put(p model.Product) model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		r.seq++
		p.ID = r.seq
	} else if p.ID > r.seq {
		r.seq = p.ID
	}
	r.products[p.ID] = p
	return p
}

func (r *memProductRepo) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if q.Status != nil && p.Status != *q.Status {
			continue
		}
		if q.CategoryID != nil && p.CategoryID != *q.CategoryID {
			continue
		}
		if q.SupplierID != nil && p.SupplierID != *q.SupplierID {
			continue
		}
		if q.Q != "" && !strings.Contains(p.NameUz, q.Q) && !strings.Contains(p.NameRu, q.Q) {
			continue
		}
		out = append(out, p)
	}
	return out, int64(len(out)), nil
}

func (r *memProductRepo) FindByID(ctx context.Context, id int64) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProductRepo) FindByNameUz(ctx context.Context, nameUz string) (model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.NameUz == nameUz {
			return p, nil
		}
	}
	return model.Product{}, repo.ErrNotFound
}

func (r *memProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	return r.put(p), nil
}

func (r *memProductRepo) Update(ctx context.Context, p model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return repo.ErrNotFound
	}
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memProductRepo) UpsertByNameUz(ctx context.Context, p model.Product) (model.Product, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, existing := range r.products {
		if existing.NameUz == p.NameUz {
			p.ID = id
			r.products[id] = p
			return p, false, nil
		}
	}
	r.seq++
	p.ID = r.seq
	r.products[p.ID] = p
	return p, true, nil
}

func (r *memProductRepo) CountActive(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.products {
		if p.Status {
			n++
		}
	}
	return n, nil
}

type memCategoryRepo struct {
	mu               sync.Mutex
	seq              int64
	categories       map[int64]model.Category
	conflictOnDelete bool
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: map[int64]model.Category{}}
}

func (r *memCategoryRepo) put(c model.Category) model.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == 0 {
		r.seq++
		c.ID = r.seq
	} else if c.ID > r.seq {
		r.seq = c.ID
	}
	r.categories[c.ID] = c
	return c
}

func (r *memCategoryRepo) List(ctx context.Context, status *bool) ([]model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Category
	for _, c := range r.categories {
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memCategoryRepo) FindByID(ctx context.Context, id int64) (model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *memCategoryRepo) Create(ctx context.Context, c model.Category) (model.Category, error) {
	return r.put(c), nil
}

func (r *memCategoryRepo) Update(ctx context.Context, c model.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[c.ID]; !ok {
		return repo.ErrNotFound
	}
	r.categories[c.ID] = c
	return nil
}

func (r *memCategoryRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[id]; !ok {
		return repo.ErrNotFound
	}
	if r.conflictOnDelete {
		return repo.ErrConflict
	}
	delete(r.categories, id)
	return nil
}

func (r *memCategoryRepo) GetOrCreateByNameUz(ctx context.Context, nameUz string) (model.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.NameUz == nameUz {
			return c, nil
		}
	}
	r.seq++
	c := model.Category{ID: r.seq, NameUz: nameUz, NameRu: nameUz, Status: true}
	r.categories[c.ID] = c
	return c, nil
}

type memSupplierRepo struct {
	mu               sync.Mutex
	seq              int64
	suppliers        map[int64]model.Supplier
	conflictOnDelete bool
}

func newMemSupplierRepo() *memSupplierRepo {
	return &memSupplierRepo{suppliers: map[int64]model.Supplier{}}
}

func (r *memSupplierRepo) put(s model.Supplier) model.Supplier {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == 0 {
		r.seq++
		s.ID = r.seq
	} else if s.ID > r.seq {
		r.seq = s.ID
	}
	r.suppliers[s.ID] = s
	return s
}

func (r *memSupplierRepo) List(ctx context.Context, status *bool) ([]model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Supplier
	for _, s := range r.suppliers {
		if status != nil && s.Status != *status {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *memSupplierRepo) FindByID(ctx context.Context, id int64) (model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.suppliers[id]
	if !ok {
		return model.Supplier{}, repo.ErrNotFound
	}
	return s, nil
}

func (r *memSupplierRepo) Create(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	return r.put(s), nil
}

func (r *memSupplierRepo) Update(ctx context.Context, s model.Supplier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[s.ID]; !ok {
		return repo.ErrNotFound
	}
	r.suppliers[s.ID] = s
	return nil
}

func (r *memSupplierRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.suppliers[id]; !ok {
		return repo.ErrNotFound
	}
	if r.conflictOnDelete {
		return repo.ErrConflict
	}
	delete(r.suppliers, id)
	return nil
}

func (r *memSupplierRepo) GetOrCreateByName(ctx context.Context, name string) (model.Supplier, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.suppliers {
		if s.Name == name {
			return s, nil
		}
	}
	r.seq++
	s := model.Supplier{ID: r.seq, Name: name, Status: true}
	r.suppliers[s.ID] = s
	return s, nil
}

type memCartRepo struct {
	mu    sync.Mutex
	seq   int64
	carts map[int64]model.Cart // key: userID
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[int64]model.Cart{}}
}

func (r *memCartRepo) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[userID]; ok {
		return c, nil
	}
	r.seq++
	c := model.Cart{ID: r.seq, UserID: userID, CreatedAt: time.Now()}
	r.carts[userID] = c
	return c, nil
}

func (r *memCartRepo) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.carts[userID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return c, nil
}

type memCartItemRepo struct {
	mu    sync.Mutex
	seq   int64
	items map[int64][]model.CartItem // key: cartID
}

func newMemCartItemRepo() *memCartItemRepo {
	return &memCartItemRepo{items: map[int64][]model.CartItem{}}
}

func (r *memCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.CartItem, len(r.items[cartID]))
	copy(out, r.items[cartID])
	return out, nil
}

func (r *memCartItemRepo) SetQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error {
	return r.upsert(cartID, productID, qty, false)
}

func (r *memCartItemRepo) AddQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error {
	return r.upsert(cartID, productID, qty, true)
}

func (r *memCartItemRepo) upsert(cartID int64, productID int64, qty decimal.Decimal, accumulate bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items[cartID] {
		if it.ProductID == productID {
			if accumulate {
				r.items[cartID][i].Quantity = it.Quantity.Add(qty)
			} else {
				r.items[cartID][i].Quantity = qty
			}
			return nil
		}
	}
	r.seq++
	r.items[cartID] = append(r.items[cartID], model.CartItem{
		ID: r.seq, CartID: cartID, ProductID: productID, Quantity: qty, CreatedAt: time.Now(),
	})
	return nil
}

func (r *memCartItemRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.seq
	saved := make(map[int64][]model.CartItem, len(r.items))
	for k, v := range r.items {
		cp := make([]model.CartItem, len(v))
		copy(cp, v)
		saved[k] = cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seq = seq
		r.items = saved
	}
}

func (r *memCartItemRepo) RemoveByProduct(ctx context.Context, cartID int64, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[cartID][:0]
	for _, it := range r.items[cartID] {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	r.items[cartID] = kept
	return nil
}

func (r *memCartItemRepo) Clear(ctx context.Context, cartID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[cartID] = nil
	return nil
}

type memSessionCartRepo struct {
	mu    sync.Mutex
	seq   int64
	carts map[string]model.SessionCart       // key: sessionKey
	items map[int64][]model.SessionCartItem  // key: cartID
}

func newMemSessionCartRepo() *memSessionCartRepo {
	return &memSessionCartRepo{
		carts: map[string]model.SessionCart{},
		items: map[int64][]model.SessionCartItem{},
	}
}

func (r *memSessionCartRepo) GetOrCreateBySessionKey(ctx context.Context, sessionKey string) (model.SessionCart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.carts[sessionKey]; ok {
		return c, nil
	}
	r.seq++
	c := model.SessionCart{
		ID:         r.seq,
		SessionKey: sessionKey,
		CreatedAt:  time.Now(),
		ExpiresAt:  time.Now().Add(model.SessionCartTTL),
	}
	r.carts[sessionKey] = c
	return c, nil
}

func (r *memSessionCartRepo) ListItems(ctx context.Context, cartID int64) ([]model.SessionCartItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.SessionCartItem, len(r.items[cartID]))
	copy(out, r.items[cartID])
	return out, nil
}

func (r *memSessionCartRepo) SetItemQuantity(ctx context.Context, cartID int64, productID int64, qty decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, it := range r.items[cartID] {
		if it.ProductID == productID {
			r.items[cartID][i].Quantity = qty
			return nil
		}
	}
	r.seq++
	r.items[cartID] = append(r.items[cartID], model.SessionCartItem{
		ID: r.seq, CartID: cartID, ProductID: productID, Quantity: qty, CreatedAt: time.Now(),
	})
	return nil
}

func (r *memSessionCartRepo) RemoveItemByProduct(ctx context.Context, cartID int64, productID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[cartID][:0]
	for _, it := range r.items[cartID] {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	r.items[cartID] = kept
	return nil
}

func (r *memSessionCartRepo) ClearItems(ctx context.Context, cartID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[cartID] = nil
	return nil
}

func (r *memSessionCartRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.seq
	savedCarts := make(map[string]model.SessionCart, len(r.carts))
	for k, v := range r.carts {
		savedCarts[k] = v
	}
	savedItems := make(map[int64][]model.SessionCartItem, len(r.items))
	for k, v := range r.items {
		cp := make([]model.SessionCartItem, len(v))
		copy(cp, v)
		savedItems[k] = cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seq = seq
		r.carts = savedCarts
		r.items = savedItems
	}
}

func (r *memSessionCartRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, c := range r.carts {
		if c.ExpiresAt.Before(now) {
			delete(r.carts, key)
			delete(r.items, c.ID)
			n++
		}
	}
	return n, nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	seq    int64
	orders map[int64]model.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[int64]model.Order{}}
}

func (r *memOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrderRepo) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	order.ID = r.seq
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	r.orders[orderID] = o
	return nil
}

func (r *memOrderRepo) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) ListExportRows(ctx context.Context, f repo.AdminOrderListFilter) ([]repo.OrderExportRow, error) {
	return nil, nil
}

func (r *memOrderRepo) CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		if o.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memOrderRepo) CountCreatedOn(ctx context.Context, day time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.orders)), nil
}

func (r *memOrderRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.seq
	saved := make(map[int64]model.Order, len(r.orders))
	for k, v := range r.orders {
		saved[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seq = seq
		r.orders = saved
	}
}

func (r *memOrderRepo) all() []model.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out
}

type memOrderItemRepo struct {
	mu             sync.Mutex
	seq            int64
	items          map[int64][]model.OrderItem // key: orderID
	failCreateBulk bool                        // 書き込み失敗を注入する
}

func newMemOrderItemRepo() *memOrderItemRepo {
	return &memOrderItemRepo{items: map[int64][]model.OrderItem{}}
}

func (r *memOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateBulk {
		return errors.New("insert order items failed")
	}
	for _, it := range items {
		r.seq++
		it.ID = r.seq
		it.OrderID = orderID
		it.CreatedAt = time.Now()
		r.items[orderID] = append(r.items[orderID], it)
	}
	return nil
}

func (r *memOrderItemRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	seq := r.seq
	saved := make(map[int64][]model.OrderItem, len(r.items))
	for k, v := range r.items {
		cp := make([]model.OrderItem, len(v))
		copy(cp, v)
		saved[k] = cp
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seq = seq
		r.items = saved
	}
}

func (r *memOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.OrderItem, len(r.items[orderID]))
	copy(out, r.items[orderID])
	return out, nil
}

func (r *memOrderItemRepo) ExistsByProductID(ctx context.Context, productID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, items := range r.items {
		for _, it := range items {
			if it.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

type memSequenceRepo struct {
	mu       sync.Mutex
	counters map[string]int // key: YYYYMMDD
}

func newMemSequenceRepo() *memSequenceRepo {
	return &memSequenceRepo{counters: map[string]int{}}
}

func (r *memSequenceRepo) snapshot() func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	saved := make(map[string]int, len(r.counters))
	for k, v := range r.counters {
		saved[k] = v
	}
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.counters = saved
	}
}

func (r *memSequenceRepo) NextForDate(ctx context.Context, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := date.Format("20060102")
	r.counters[key]++
	return r.counters[key], nil
}

type memUserRepo struct {
	mu    sync.Mutex
	seq   int64
	users map[int64]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[int64]*model.User{}}
}

func (r *memUserRepo) put(u model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == 0 {
		r.seq++
		u.ID = r.seq
	} else if u.ID > r.seq {
		r.seq = u.ID
	}
	cp := u
	r.users[cp.ID] = &cp
	return &cp
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return repo.ErrConflict
		}
	}
	r.seq++
	user.ID = r.seq
	cp := *user
	r.users[cp.ID] = &cp
	return nil
}

func (r *memUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *memUserRepo) Update(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repo.ErrUserNotFound
	}
	cp := *user
	r.users[cp.ID] = &cp
	return nil
}

func (r *memUserRepo) IncrementTokenVersion(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return repo.ErrUserNotFound
	}
	u.TokenVersion++
	return nil
}

func (r *memUserRepo) List(ctx context.Context, q repo.UserListQuery) ([]model.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if q.Role != "" && string(u.Role) != q.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (r *memUserRepo) CountByRole(ctx context.Context, role model.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []model.AuditLog
}

func (r *memAuditRepo) Create(ctx context.Context, log model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = int64(len(r.logs) + 1)
	log.CreatedAt = time.Now()
	r.logs = append(r.logs, log)
	return nil
}

func (r *memAuditRepo) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AuditLog, len(r.logs))
	copy(out, r.logs)
	return out, nil
}

type memRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*model.RefreshToken // key: token ID
}

func newMemRefreshTokenRepo() *memRefreshTokenRepo {
	return &memRefreshTokenRepo{tokens: map[string]*model.RefreshToken{}}
}

func (r *memRefreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[cp.ID] = &cp
	return nil
}

func (r *memRefreshTokenRepo) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repo.ErrRefreshTokenNotFound
}

func (r *memRefreshTokenRepo) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenID]
	if !ok {
		return repo.ErrRefreshTokenNotFound
	}
	t.UsedAt = &usedAt
	return nil
}

func (r *memRefreshTokenRepo) Revoke(ctx context.Context, tokenID string, revokedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[tokenID]
	if !ok {
		return repo.ErrRefreshTokenNotFound
	}
	t.RevokedAt = &revokedAt
	return nil
}

func (r *memRefreshTokenRepo) DeleteAllByUserID(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *memRefreshTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type memJobRepo struct {
	mu   sync.Mutex
	jobs map[string]model.AsyncJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: map[string]model.AsyncJob{}}
}

func (r *memJobRepo) Create(ctx context.Context, job model.AsyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job.CreatedAt = time.Now()
	r.jobs[job.ID] = job
	return nil
}

func (r *memJobRepo) FindByID(ctx context.Context, id string) (model.AsyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return model.AsyncJob{}, repo.ErrNotFound
	}
	return j, nil
}

func (r *memJobRepo) MarkRunning(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != model.JobStatusPending {
		return repo.ErrNotFound
	}
	j.Status = model.JobStatusRunning
	r.jobs[id] = j
	return nil
}

func (r *memJobRepo) MarkSuccess(ctx context.Context, id string, resultURL string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status != model.JobStatusRunning {
		return repo.ErrNotFound
	}
	j.Status = model.JobStatusSuccess
	j.ResultURL = resultURL
	j.FinishedAt = &finishedAt
	r.jobs[id] = j
	return nil
}

func (r *memJobRepo) MarkFailed(ctx context.Context, id string, errMsg string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return repo.ErrNotFound
	}
	errMsg = model.TruncateJobError(errMsg)
	j.Status = model.JobStatusFailed
	j.Error = errMsg
	j.FinishedAt = &finishedAt
	r.jobs[id] = j
	return nil
}

func (r *memJobRepo) ListPending(ctx context.Context) ([]model.AsyncJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AsyncJob
	for _, j := range r.jobs {
		if j.Status == model.JobStatusPending {
			out = append(out, j)
		}
	}
	return out, nil
}

// stubTxManager はWithinTxをmutexで直列化する（DBのトランザクション分離の代用）。
type stubTxManager struct {
	mu    sync.Mutex
	repos *stubTxRepos
}

type stubTxRepos struct {
	orders       *memOrderRepo
	orderItems   *memOrderItemRepo
	carts        *memCartRepo
	cartItems    *memCartItemRepo
	sessionCarts *memSessionCartRepo
	sequences    *memSequenceRepo
	products     *memProductRepo
	users        *memUserRepo
}

func (r *stubTxRepos) Orders() repo.OrderRepository             { return r.orders }
func (r *stubTxRepos) OrderItems() repo.OrderItemRepository     { return r.orderItems }
func (r *stubTxRepos) Carts() repo.CartRepository               { return r.carts }
func (r *stubTxRepos) CartItems() repo.CartItemRepository       { return r.cartItems }
func (r *stubTxRepos) SessionCarts() repo.SessionCartRepository { return r.sessionCarts }
func (r *stubTxRepos) Sequences() repo.SequenceRepository       { return r.sequences }
func (r *stubTxRepos) Products() repo.ProductRepository         { return r.products }
func (r *stubTxRepos) Categories() repo.CategoryRepository      { panic("not used") }
func (r *stubTxRepos) Suppliers() repo.SupplierRepository       { panic("not used") }
func (r *stubTxRepos) Users() repo.UserRepository               { return r.users }

// トランザクション内で書き換わるrepoの巻き戻しをまとめて返す
func (r *stubTxRepos) snapshot() func() {
	restores := []func(){
		r.orders.snapshot(),
		r.orderItems.snapshot(),
		r.cartItems.snapshot(),
		r.sessionCarts.snapshot(),
		r.sequences.snapshot(),
	}
	return func() {
		for _, restore := range restores {
			restore()
		}
	}
}

func (tm *stubTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	// 本物のトランザクションと同じく、fnが失敗したら途中の書き込みを残さない
	rollback := tm.repos.snapshot()
	if err := fn(tm.repos); err != nil {
		rollback()
		return err
	}
	return nil
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []string
	ok   bool
}

func (n *stubNotifier) Send(ctx context.Context, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, text)
	return n.ok
}

type stubQueue struct {
	mu   sync.Mutex
	ids  []string
	full bool
}

func (q *stubQueue) Enqueue(jobID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.ids = append(q.ids, jobID)
	return true
}
