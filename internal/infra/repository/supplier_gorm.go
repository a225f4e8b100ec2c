package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type SupplierGormRepository struct {
	db *gorm.DB
}

// DI
func NewSupplierGormRepository(db *gorm.DB) *SupplierGormRepository {
	return &SupplierGormRepository{db: db}
}

func (r *SupplierGormRepository) List(ctx context.Context, status *bool) ([]model.Supplier, error) {
	q := r.db.WithContext(ctx).Model(&model.Supplier{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var items []model.Supplier
	if err := q.Order("name asc").Find(&items).Error; err != nil {
		return []model.Supplier{}, err
	}
	return items, nil
}

func (r *SupplierGormRepository) FindByID(ctx context.Context, id int64) (model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Supplier{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Supplier{}, err
	}
	return s, nil
}

func (r *SupplierGormRepository) Create(ctx context.Context, s model.Supplier) (model.Supplier, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Supplier{}, err
	}
	return s, nil
}

func (r *SupplierGormRepository) Update(ctx context.Context, s model.Supplier) error {
	res := r.db.WithContext(ctx).Model(&model.Supplier{}).
		Where("id = ?", s.ID).
		Updates(map[string]interface{}{
			"name":    s.Name,
			"phone":   s.Phone,
			"address": s.Address,
			"status":  s.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 商品から参照されている仕入先は消せない
func (r *SupplierGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&model.Product{}).
			Where("supplier_id = ?", id).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return repo.ErrConflict
		}

		res := tx.Delete(&model.Supplier{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

func (r *SupplierGormRepository) GetOrCreateByName(ctx context.Context, name string) (model.Supplier, error) {
	var s model.Supplier

	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&s).Error

	if err == nil {
		return s, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Supplier{}, err
	}

	s = model.Supplier{Name: name, Status: true}
	if createErr := r.db.WithContext(ctx).Create(&s).Error; createErr != nil {
		return model.Supplier{}, createErr
	}
	return s, nil
}
