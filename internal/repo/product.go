package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/marketplace/internal/models"
)

type ProductFilter struct {
	Name          string
	IDs           []uint
	MinPrice      *float64
	MaxPrice      *float64
	Status        string
	Category      string
	Owner         string
	SortCreatedAt string
	SortPrice     string
	IncludeBanned bool
	Offset        int
	Limit         int
}

func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Pictures").Where("id = ?", id).Take(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *GormRepo) SearchProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})

	if f.Name != "" {
		q = q.Where(`LOWER(name) LIKE ? ESCAPE '\'`, "%"+likeEscape(strings.ToLower(f.Name))+"%")
	}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			return 0, []models.Product{}, nil
		}
		q = q.Where("id IN ?", f.IDs)
	}
	if f.MinPrice != nil && f.MaxPrice != nil {
		q = q.Where("price BETWEEN ? AND ?", *f.MinPrice, *f.MaxPrice)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Owner != "" {
		q = q.Where("user_username = ?", f.Owner)
	}
	if !f.IncludeBanned {
		q = q.Where("is_banned = ?", false)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	switch f.SortCreatedAt {
	case "asc":
		q = q.Order("created_at ASC")
	case "dsc":
		q = q.Order("created_at DESC")
	}
	switch f.SortPrice {
	case "asc":
		q = q.Order("price ASC")
	case "dsc":
		q = q.Order("price DESC")
	}
	q = q.Order("id ASC")

	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}

	items := []models.Product{}
	if err := q.Preload("Pictures").Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// UpdateProduct applies the non-empty fields and appends pictures.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, fields map[string]any, pictures []models.Picture) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Take(&p).Error; err != nil {
			return err
		}
		if len(fields) > 0 {
			if err := tx.Model(&p).Updates(fields).Error; err != nil {
				return err
			}
		}
		for i := range pictures {
			pictures[i].ProductID = id
		}
		if len(pictures) > 0 {
			if err := tx.Create(&pictures).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Pictures").Where("id = ?", id).Take(&p).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// DeleteProduct returns the removed pictures so their files can be cleaned up.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) ([]models.Picture, error) {
	var pictures []models.Picture
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Find(&pictures).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Picture{}).Error; err != nil {
			return err
		}
		if err := tx.Where("reported_product = ?", id).Delete(&models.ProductReport{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return pictures, nil
}

func (r *GormRepo) SetProductBanned(ctx context.Context, id uint, banned bool) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("is_banned", banned)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
