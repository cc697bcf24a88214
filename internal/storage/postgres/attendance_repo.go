package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

type attendanceRepo struct {
	db *gorm.DB
}

func (r *attendanceRepo) Upsert(ctx context.Context, attendance *domain.Attendance) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "class_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "marked_by", "marked_at"}),
	}).Create(attendance).Error
}

func (r *attendanceRepo) ListByClass(ctx context.Context, classID uint) ([]domain.Attendance, error) {
	var list []domain.Attendance
	err := r.db.WithContext(ctx).
		Where("class_id = ?", classID).
		Order("user_id").
		Find(&list).Error
	return list, err
}
