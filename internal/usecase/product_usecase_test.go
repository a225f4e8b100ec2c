package usecase

import (
	"context"
	"strings"
	"testing"

	"app/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productTestEnv struct {
	uc         *ProductUsecase
	products   *memProductRepo
	categories *memCategoryRepo
	suppliers  *memSupplierRepo
	orderItems *memOrderItemRepo
}

func newProductTestEnv() *productTestEnv {
	env := &productTestEnv{
		products:   newMemProductRepo(),
		categories: newMemCategoryRepo(),
		suppliers:  newMemSupplierRepo(),
		orderItems: newMemOrderItemRepo(),
	}
	env.uc = NewProductUsecase(env.products, env.categories, env.suppliers, env.orderItems)
	env.categories.put(model.Category{ID: 1, NameUz: "Meat", NameRu: "Мясо", Status: true})
	env.suppliers.put(model.Supplier{ID: 1, Name: "FreshFarm", Status: true})
	return env
}

func TestProductUsecase_List_Validation(t *testing.T) {
	env := newProductTestEnv()

	_, err := env.uc.List(context.Background(), ListProductsInput{Page: 0, Limit: 20})
	assertHTTPError(t, err, 400, "invalid page")

	_, err = env.uc.List(context.Background(), ListProductsInput{Page: 1, Limit: 0})
	assertHTTPError(t, err, 400, "invalid limit")

	_, err = env.uc.List(context.Background(), ListProductsInput{Page: 1, Limit: 101})
	assertHTTPError(t, err, 400, "invalid limit")

	_, err = env.uc.List(context.Background(), ListProductsInput{Page: 1, Limit: 20, Q: strings.Repeat("a", 101)})
	assertHTTPError(t, err, 400, "invalid q")
}

func TestProductUsecase_Create_ValidatesReferences(t *testing.T) {
	env := newProductTestEnv()
	ctx := context.Background()

	_, err := env.uc.Create(ctx, SaveProductInput{NameUz: " ", CategoryID: 1, SupplierID: 1})
	assertHTTPError(t, err, 400, "name_uz is required")

	_, err = env.uc.Create(ctx, SaveProductInput{NameUz: "Tovuq filesi", CategoryID: 99, SupplierID: 1})
	assertHTTPError(t, err, 400, "invalid category_id")

	_, err = env.uc.Create(ctx, SaveProductInput{NameUz: "Tovuq filesi", CategoryID: 1, SupplierID: 99})
	assertHTTPError(t, err, 400, "invalid supplier_id")
}

func TestProductUsecase_Create_DefaultsStatusActive(t *testing.T) {
	env := newProductTestEnv()

	out, err := env.uc.Create(context.Background(), SaveProductInput{
		NameUz: " Tovuq filesi ", NameRu: "Куриное филе", CategoryID: 1, SupplierID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Tovuq filesi", out.NameUz)
	assert.True(t, out.Status)

	inactive := false
	out, err = env.uc.Create(context.Background(), SaveProductInput{
		NameUz: "Mol goshti", CategoryID: 1, SupplierID: 1, Status: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, out.Status)
}

func TestProductUsecase_Update_NotFound(t *testing.T) {
	env := newProductTestEnv()

	_, err := env.uc.Update(context.Background(), 99, SaveProductInput{NameUz: "x", CategoryID: 1, SupplierID: 1})
	assertHTTPError(t, err, 404, "product not found")
}

func TestProductUsecase_Delete_ProtectsOrderedProducts(t *testing.T) {
	env := newProductTestEnv()
	ctx := context.Background()

	created, err := env.uc.Create(ctx, SaveProductInput{NameUz: "Tovuq filesi", CategoryID: 1, SupplierID: 1})
	require.NoError(t, err)

	// 注文明細から参照されている商品は消せない
	require.NoError(t, env.orderItems.CreateBulk(ctx, 1, []model.OrderItem{
		{ProductID: created.ID, Quantity: decimal.NewFromInt(1)},
	}))
	err = env.uc.Delete(ctx, created.ID)
	assertHTTPError(t, err, 409, "product is referenced by orders")

	// 参照が無ければ消せる
	free, err := env.uc.Create(ctx, SaveProductInput{NameUz: "Mol goshti", CategoryID: 1, SupplierID: 1})
	require.NoError(t, err)
	require.NoError(t, env.uc.Delete(ctx, free.ID))

	err = env.uc.Delete(ctx, free.ID)
	assertHTTPError(t, err, 404, "product not found")
}

func TestCategoryUsecase_Delete_Conflict(t *testing.T) {
	categories := newMemCategoryRepo()
	categories.put(model.Category{ID: 1, NameUz: "Meat", Status: true})
	categories.conflictOnDelete = true

	uc := NewCategoryUsecase(categories)
	err := uc.Delete(context.Background(), 1)
	assertHTTPError(t, err, 409, "category is referenced by products")
}

func TestSupplierUsecase_Delete_Conflict(t *testing.T) {
	suppliers := newMemSupplierRepo()
	suppliers.put(model.Supplier{ID: 1, Name: "FreshFarm", Status: true})
	suppliers.conflictOnDelete = true

	uc := NewSupplierUsecase(suppliers)
	err := uc.Delete(context.Background(), 1)
	assertHTTPError(t, err, 409, "supplier is referenced by products")
}
