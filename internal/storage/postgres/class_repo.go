package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

type classRepo struct {
	db *gorm.DB
}

func (r *classRepo) Create(ctx context.Context, class *domain.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepo) Update(ctx context.Context, class *domain.Class) error {
	return r.db.WithContext(ctx).Save(class).Error
}

func (r *classRepo) GetByID(ctx context.Context, id uint) (*domain.Class, error) {
	var class domain.Class
	err := r.db.WithContext(ctx).First(&class, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrClassNotFound
	}
	if err != nil {
		return nil, err
	}
	return &class, nil
}

func (r *classRepo) ListOpenFrom(ctx context.Context, from time.Time) ([]domain.Class, error) {
	var list []domain.Class
	err := r.db.WithContext(ctx).
		Where("status = ? AND starts_at >= ?", domain.ClassOpen, from).
		Order("starts_at").
		Find(&list).Error
	return list, err
}

func (r *classRepo) CountBetween(ctx context.Context, from, to time.Time, status *domain.ClassStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Class{}).
		Where("starts_at >= ? AND starts_at < ?", from, to)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *classRepo) TotalCapacityBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Class{}).
		Where("starts_at >= ? AND starts_at < ?", from, to).
		Select("COALESCE(SUM(capacity), 0)").
		Scan(&total).Error
	return total, err
}
