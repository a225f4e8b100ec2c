package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CategoryGormRepository struct {
	db *gorm.DB
}

// DI
func NewCategoryGormRepository(db *gorm.DB) *CategoryGormRepository {
	return &CategoryGormRepository{db: db}
}

func (r *CategoryGormRepository) List(ctx context.Context, status *bool) ([]model.Category, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var items []model.Category
	if err := q.Order("sort_order asc, id asc").Find(&items).Error; err != nil {
		return []model.Category{}, err
	}
	return items, nil
}

func (r *CategoryGormRepository) FindByID(ctx context.Context, id int64) (model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) Create(ctx context.Context, c model.Category) (model.Category, error) {
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Category{}, err
	}
	return c, nil
}

func (r *CategoryGormRepository) Update(ctx context.Context, c model.Category) error {
	res := r.db.WithContext(ctx).Model(&model.Category{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"name_uz":    c.NameUz,
			"name_ru":    c.NameRu,
			"sort_order": c.SortOrder,
			"status":     c.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品から参照されているカテゴリは消せない
func (r *CategoryGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&model.Product{}).
			Where("category_id = ?", id).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return repo.ErrConflict
		}

		res := tx.Delete(&model.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// 無ければname_ru=name_uzで作る（取り込みの割り切り）
func (r *CategoryGormRepository) GetOrCreateByNameUz(ctx context.Context, nameUz string) (model.Category, error) {
	var c model.Category

	err := r.db.WithContext(ctx).
		Where("name_uz = ?", nameUz).
		First(&c).Error

	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Category{}, err
	}

	c = model.Category{NameUz: nameUz, NameRu: nameUz, Status: true}
	if createErr := r.db.WithContext(ctx).Create(&c).Error; createErr != nil {
		return model.Category{}, createErr
	}
	return c, nil
}
