package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	categoryRepo  repo.CategoryRepository
	supplierRepo  repo.SupplierRepository
	orderItemRepo repo.OrderItemRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	supplierRepo repo.SupplierRepository,
	orderItemRepo repo.OrderItemRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		supplierRepo:  supplierRepo,
		orderItemRepo: orderItemRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	Status     *bool
	CategoryID *int64
	SupplierID *int64
}

type ProductListOutput struct {
	Items []ProductResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

func (u *ProductUsecase) List(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid q")
	}

	items, total, err := u.productRepo.List(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		Status:     in.Status,
		CategoryID: in.CategoryID,
		SupplierID: in.SupplierID,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResponse(p))
	}

	return ProductListOutput{Items: out, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (ProductResponse, error) {
	p, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductResponse(p), nil
}

type SaveProductInput struct {
	NameUz      string
	NameRu      string
	CategoryID  int64
	SupplierID  int64
	ImageURL    string
	Description string
	Status      *bool
}

func (u *ProductUsecase) validateRefs(ctx context.Context, in SaveProductInput) error {
	if strings.TrimSpace(in.NameUz) == "" {
		return NewHTTPError(http.StatusBadRequest, "name_uz is required")
	}
	if _, err := u.categoryRepo.FindByID(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid category_id")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if _, err := u.supplierRepo.FindByID(ctx, in.SupplierID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusBadRequest, "invalid supplier_id")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) Create(ctx context.Context, in SaveProductInput) (ProductResponse, error) {
	if err := u.validateRefs(ctx, in); err != nil {
		return ProductResponse{}, err
	}

	status := true
	if in.Status != nil {
		status = *in.Status
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		NameUz:      strings.TrimSpace(in.NameUz),
		NameRu:      strings.TrimSpace(in.NameRu),
		CategoryID:  in.CategoryID,
		SupplierID:  in.SupplierID,
		ImageURL:    in.ImageURL,
		Description: in.Description,
		Status:      status,
	})
	if err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductResponse(created), nil
}

func (u *ProductUsecase) Update(ctx context.Context, id int64, in SaveProductInput) (ProductResponse, error) {
	p, err := u.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ProductResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
		}
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.validateRefs(ctx, in); err != nil {
		return ProductResponse{}, err
	}

	p.NameUz = strings.TrimSpace(in.NameUz)
	p.NameRu = strings.TrimSpace(in.NameRu)
	p.CategoryID = in.CategoryID
	p.SupplierID = in.SupplierID
	p.ImageURL = in.ImageURL
	p.Description = in.Description
	if in.Status != nil {
		p.Status = *in.Status
	}

	if err := u.productRepo.Update(ctx, p); err != nil {
		return ProductResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toProductResponse(p), nil
}

// Delete は注文明細から参照されている商品を消さない（409）。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if _, err := u.productRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "product not found")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	used, err := u.orderItemRepo.ExistsByProductID(ctx, id)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if used {
		return NewHTTPError(http.StatusConflict, "product is referenced by orders")
	}

	if err := u.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "product is referenced by orders")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
