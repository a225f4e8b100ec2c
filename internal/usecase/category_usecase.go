package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

type SaveCategoryInput struct {
	NameUz    string
	NameRu    string
	SortOrder int
	Status    *bool
}

func (u *CategoryUsecase) List(ctx context.Context, status *bool) ([]model.Category, error) {
	items, err := u.categoryRepo.List(ctx, status)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, id int64) (model.Category, error) {
	c, err := u.categoryRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
		}
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in SaveCategoryInput) (model.Category, error) {
	if strings.TrimSpace(in.NameUz) == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name_uz is required")
	}

	status := true
	if in.Status != nil {
		status = *in.Status
	}

	created, err := u.categoryRepo.Create(ctx, model.Category{
		NameUz:    strings.TrimSpace(in.NameUz),
		NameRu:    strings.TrimSpace(in.NameRu),
		SortOrder: in.SortOrder,
		Status:    status,
	})
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in SaveCategoryInput) (model.Category, error) {
	c, err := u.Get(ctx, id)
	if err != nil {
		return model.Category{}, err
	}
	if strings.TrimSpace(in.NameUz) == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name_uz is required")
	}

	c.NameUz = strings.TrimSpace(in.NameUz)
	c.NameRu = strings.TrimSpace(in.NameRu)
	c.SortOrder = in.SortOrder
	if in.Status != nil {
		c.Status = *in.Status
	}

	if err := u.categoryRepo.Update(ctx, c); err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 商品から参照されているカテゴリは消せない
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if _, err := u.Get(ctx, id); err != nil {
		return err
	}
	if err := u.categoryRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "category is referenced by products")
		}
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
