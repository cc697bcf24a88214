// Package capacity decides whether a class can admit another enrollment.
//
// Occupancy is always derived by counting CONFIRMED enrollments at the moment
// of the decision. It is never cached and never stored on the class, which
// rules out stale-counter drift at the cost of an aggregate query per
// admission. Callers that need the count and the insert to be consistent run
// the ledger inside the same serializable transaction as the write.
package capacity

import (
	"context"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Ledger computes seat availability for a class. Read-only; no side effects.
type Ledger struct {
	enrollments domain.EnrollmentRepository
}

// NewLedger creates a ledger over the given enrollment repository. Pass the
// transactional repository when the result feeds an admission decision.
func NewLedger(enrollments domain.EnrollmentRepository) *Ledger {
	return &Ledger{enrollments: enrollments}
}

// ConfirmedCount counts CONFIRMED enrollments for the class. Enrollments
// still awaiting payment do not hold a seat.
func (l *Ledger) ConfirmedCount(ctx context.Context, classID uint) (int64, error) {
	return l.enrollments.CountConfirmed(ctx, classID)
}

// IsFull reports whether the class has no confirmed seats left.
func (l *Ledger) IsFull(ctx context.Context, class *domain.Class) (bool, error) {
	count, err := l.ConfirmedCount(ctx, class.ID)
	if err != nil {
		return false, err
	}
	return count >= int64(class.Capacity), nil
}

// AvailableSpots returns the remaining confirmed seats, never negative.
func (l *Ledger) AvailableSpots(ctx context.Context, class *domain.Class) (int64, error) {
	count, err := l.ConfirmedCount(ctx, class.ID)
	if err != nil {
		return 0, err
	}
	spots := int64(class.Capacity) - count
	if spots < 0 {
		spots = 0
	}
	return spots, nil
}
