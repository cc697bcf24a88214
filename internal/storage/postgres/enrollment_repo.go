package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

type enrollmentRepo struct {
	db *gorm.DB
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	// Save skips nil pointer fields, so clearing cancelled_at on
	// re-enrollment needs the explicit column update.
	return r.db.WithContext(ctx).Model(enrollment).
		Select("status", "cancelled_at", "user_name").
		Updates(map[string]any{
			"status":       enrollment.Status,
			"cancelled_at": enrollment.CancelledAt,
			"user_name":    enrollment.UserName,
		}).Error
}

func (r *enrollmentRepo) GetByID(ctx context.Context, id uint) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).First(&enrollment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) FindByUserAndClass(ctx context.Context, userID string, classID uint) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND class_id = ?", userID, classID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrEnrollmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepo) ListByClass(ctx context.Context, classID uint) ([]domain.Enrollment, error) {
	var list []domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("created_at").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	var list []domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

func (r *enrollmentRepo) CountConfirmed(ctx context.Context, classID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("class_id = ? AND status = ?", classID, domain.EnrollmentConfirmed).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) StatusCountsBetween(ctx context.Context, from, to time.Time) (map[domain.EnrollmentStatus]int64, error) {
	var rows []struct {
		Status domain.EnrollmentStatus
		Total  int64
	}
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Select("enrollments.status AS status, COUNT(enrollments.id) AS total").
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("classes.starts_at >= ? AND classes.starts_at < ?", from, to).
		Group("enrollments.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.EnrollmentStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *enrollmentRepo) UniqueStudentsBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Joins("JOIN classes ON classes.id = enrollments.class_id").
		Where("classes.starts_at >= ? AND classes.starts_at < ?", from, to).
		Distinct("enrollments.user_id").
		Count(&count).Error
	return count, err
}
