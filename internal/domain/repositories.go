// Package domain contains the core business entities and interfaces for the
// booking service.
package domain

import (
	"context"
	"time"
)

// ClassRepository persists scheduled classes.
type ClassRepository interface {
	Create(ctx context.Context, class *Class) error
	Update(ctx context.Context, class *Class) error

	// GetByID returns ErrClassNotFound when the class does not exist.
	GetByID(ctx context.Context, id uint) (*Class, error)

	// ListOpenFrom returns OPEN classes starting at or after the given time,
	// ordered by start time.
	ListOpenFrom(ctx context.Context, from time.Time) ([]Class, error)

	// CountBetween counts classes starting within [from, to). A nil status
	// counts all of them.
	CountBetween(ctx context.Context, from, to time.Time, status *ClassStatus) (int64, error)

	// TotalCapacityBetween sums the capacity of classes starting within
	// [from, to).
	TotalCapacityBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// EnrollmentRepository persists enrollments.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *Enrollment) error
	Update(ctx context.Context, enrollment *Enrollment) error

	// GetByID returns ErrEnrollmentNotFound when the enrollment does not exist.
	GetByID(ctx context.Context, id uint) (*Enrollment, error)

	// FindByUserAndClass returns the single enrollment row for the pair, or
	// ErrEnrollmentNotFound when the user never enrolled in the class.
	FindByUserAndClass(ctx context.Context, userID string, classID uint) (*Enrollment, error)

	ListByClass(ctx context.Context, classID uint) ([]Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]Enrollment, error)

	// CountConfirmed counts CONFIRMED enrollments for a class. This is the
	// authoritative occupancy measure.
	CountConfirmed(ctx context.Context, classID uint) (int64, error)

	// StatusCountsBetween groups enrollments of classes starting within
	// [from, to) by status.
	StatusCountsBetween(ctx context.Context, from, to time.Time) (map[EnrollmentStatus]int64, error)

	// UniqueStudentsBetween counts distinct users enrolled in classes
	// starting within [from, to).
	UniqueStudentsBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// PaymentRepository persists payment records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	Update(ctx context.Context, payment *Payment) error

	// GetByID returns ErrPaymentNotFound when the payment does not exist.
	GetByID(ctx context.Context, id uint) (*Payment, error)

	// FindByEnrollment returns the enrollment's current payment, or
	// ErrPaymentNotFound when it has none.
	FindByEnrollment(ctx context.Context, enrollmentID uint) (*Payment, error)

	// FindByChargeID looks a payment up by the provider charge id, the
	// reconciliation key. Returns ErrPaymentNotFound for unknown ids.
	FindByChargeID(ctx context.Context, chargeID string) (*Payment, error)

	// DeleteByEnrollment removes the enrollment's current payment, if any.
	// Used when regenerating a pending PIX code.
	DeleteByEnrollment(ctx context.Context, enrollmentID uint) error

	// RevenueCentsBetween sums PAID payments for classes starting within
	// [from, to).
	RevenueCentsBetween(ctx context.Context, from, to time.Time) (int64, error)
}

// AttendanceRepository persists attendance marks.
type AttendanceRepository interface {
	// Upsert creates or replaces the mark for the (class, user) pair.
	Upsert(ctx context.Context, attendance *Attendance) error

	ListByClass(ctx context.Context, classID uint) ([]Attendance, error)
}

// Store bundles the repositories with transaction control. Atomic runs fn in
// a transaction with default isolation; Serializable runs it with
// SERIALIZABLE isolation and is used for the admission sequence, where the
// capacity read and the enrollment write must not interleave with a
// concurrent admission.
type Store interface {
	Classes() ClassRepository
	Enrollments() EnrollmentRepository
	Payments() PaymentRepository
	Attendance() AttendanceRepository

	Atomic(ctx context.Context, fn func(Store) error) error
	Serializable(ctx context.Context, fn func(Store) error) error
}
