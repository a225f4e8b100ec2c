package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type SupplierUsecase struct {
	supplierRepo repo.SupplierRepository
}

func NewSupplierUsecase(supplierRepo repo.SupplierRepository) *SupplierUsecase {
	return &SupplierUsecase{supplierRepo: supplierRepo}
}

type SaveSupplierInput struct {
	Name    string
	Phone   string
	Address string
	Status  *bool
}

func (u *SupplierUsecase) List(ctx context.Context, status *bool) ([]model.Supplier, error) {
	items, err := u.supplierRepo.List(ctx, status)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *SupplierUsecase) Get(ctx context.Context, id int64) (model.Supplier, error) {
	s, err := u.supplierRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Supplier{}, NewHTTPError(http.StatusNotFound, "supplier not found")
		}
		return model.Supplier{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

func (u *SupplierUsecase) Create(ctx context.Context, in SaveSupplierInput) (model.Supplier, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}

	status := true
	if in.Status != nil {
		status = *in.Status
	}

	created, err := u.supplierRepo.Create(ctx, model.Supplier{
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Status:  status,
	})
	if err != nil {
		return model.Supplier{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *SupplierUsecase) Update(ctx context.Context, id int64, in SaveSupplierInput) (model.Supplier, error) {
	s, err := u.Get(ctx, id)
	if err != nil {
		return model.Supplier{}, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return model.Supplier{}, NewHTTPError(http.StatusBadRequest, "name is required")
	}

	s.Name = strings.TrimSpace(in.Name)
	s.Phone = strings.TrimSpace(in.Phone)
	s.Address = strings.TrimSpace(in.Address)
	if in.Status != nil {
		s.Status = *in.Status
	}

	if err := u.supplierRepo.Update(ctx, s); err != nil {
		return model.Supplier{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return s, nil
}

// 商品から参照されている仕入先は消せない
func (u *SupplierUsecase) Delete(ctx context.Context, id int64) error {
	if _, err := u.Get(ctx, id); err != nil {
		return err
	}
	if err := u.supplierRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "supplier is referenced by products")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
