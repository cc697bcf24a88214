// Package postgres implements domain.Store on PostgreSQL via GORM.
package postgres

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Store implements domain.Store. A Store built inside Atomic/Serializable
// shares the transaction handle, so every repository obtained from it joins
// the same transaction.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an open GORM handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Classes returns the class repository.
func (s *Store) Classes() domain.ClassRepository { return &classRepo{db: s.db} }

// Enrollments returns the enrollment repository.
func (s *Store) Enrollments() domain.EnrollmentRepository { return &enrollmentRepo{db: s.db} }

// Payments returns the payment repository.
func (s *Store) Payments() domain.PaymentRepository { return &paymentRepo{db: s.db} }

// Attendance returns the attendance repository.
func (s *Store) Attendance() domain.AttendanceRepository { return &attendanceRepo{db: s.db} }

// Atomic runs fn inside a transaction with the default isolation level. Any
// error rolls every write back.
func (s *Store) Atomic(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Serializable runs fn inside a SERIALIZABLE transaction. Used for the
// admission sequence, where the capacity read and the enrollment insert must
// form one isolation boundary.
func (s *Store) Serializable(ctx context.Context, fn func(domain.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	}, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
