package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

type paymentRepo struct {
	db *gorm.DB
}

func (r *paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *paymentRepo) Update(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *paymentRepo) GetByID(ctx context.Context, id uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).First(&payment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) FindByEnrollment(ctx context.Context, enrollmentID uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) FindByChargeID(ctx context.Context, chargeID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).
		Where("provider_charge_id = ?", chargeID).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepo) DeleteByEnrollment(ctx context.Context, enrollmentID uint) error {
	return r.db.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Delete(&domain.Payment{}).Error
}

func (r *paymentRepo) RevenueCentsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Joins("JOIN enrollments ON enrollments.id = payments.enrollment_id").
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("payments.status = ?", domain.PaymentPaid).
		Where("classes.starts_at >= ? AND classes.starts_at < ?", from, to).
		Select("COALESCE(SUM(payments.amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
