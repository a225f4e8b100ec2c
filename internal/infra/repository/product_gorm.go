package repository

import (
	"context"
	"errors"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

func (r *ProductGormRepository) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if q.SupplierID != nil {
		query = query.Where("supplier_id = ?", *q.SupplierID)
	}
	if q.Q != "" {
		like := "%" + q.Q + "%"
		query = query.Where("name_uz ILIKE ? OR name_ru ILIKE ? OR description ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return []model.Product{}, 0, err
	}

	var items []model.Product
	offset := (q.Page - 1) * q.Limit
	if err := query.Order("id asc").Limit(q.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Product{}, 0, err
	}

	return items, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) FindByNameUz(ctx context.Context, nameUz string) (model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("name_uz = ?", nameUz).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", p.ID).
		Updates(map[string]interface{}{
			"name_uz":     p.NameUz,
			"name_ru":     p.NameRu,
			"category_id": p.CategoryID,
			"supplier_id": p.SupplierID,
			"image_url":   p.ImageURL,
			"description": p.Description,
			"status":      p.Status,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文明細から参照されている商品は消せない
func (r *ProductGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&model.OrderItem{}).
			Where("product_id = ?", id).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return repo.ErrConflict
		}

		// カート明細は一緒に消す
		if err := tx.Where("product_id = ?", id).Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&model.SessionCartItem{}).Error; err != nil {
			return err
		}

		res := tx.Delete(&model.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}

// name_uzをキーに取り込み用upsert。作成したらtrue。
func (r *ProductGormRepository) UpsertByNameUz(ctx context.Context, p model.Product) (model.Product, bool, error) {
	var existing model.Product

	err := r.db.WithContext(ctx).
		Where("name_uz = ?", p.NameUz).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		if createErr := r.db.WithContext(ctx).Create(&p).Error; createErr != nil {
			return model.Product{}, false, createErr
		}
		return p, true, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}

	// 既存行はname_uz以外を上書き
	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	if updErr := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"name_ru":     p.NameRu,
			"category_id": p.CategoryID,
			"supplier_id": p.SupplierID,
			"image_url":   p.ImageURL,
			"description": p.Description,
			"status":      p.Status,
		}).Error; updErr != nil {
		return model.Product{}, false, updErr
	}

	return p, false, nil
}

func (r *ProductGormRepository) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("status = ?", true).
		Count(&total).Error
	return total, err
}
