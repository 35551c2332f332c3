package repo

import (
	"context"

	"github.com/Skotchmaster/marketplace/internal/models"
)

func (r *GormRepo) CreateUserReport(ctx context.Context, rep *models.UserReport) error {
	return translate(r.DB.WithContext(ctx).Create(rep).Error)
}

func (r *GormRepo) CreateProductReport(ctx context.Context, rep *models.ProductReport) error {
	return translate(r.DB.WithContext(ctx).Create(rep).Error)
}

func (r *GormRepo) ListUserReports(ctx context.Context) ([]models.UserReport, error) {
	out := []models.UserReport{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormRepo) ListProductReports(ctx context.Context) ([]models.ProductReport, error) {
	out := []models.ProductReport{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
