// Package reconcile synchronizes local payment state with the provider.
package reconcile

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/monitoring"
)

// SyncStatus is the answer to the polling UI's status query.
type SyncStatus struct {
	PaymentStatus    domain.PaymentStatus    `json:"payment_status"`
	EnrollmentStatus domain.EnrollmentStatus `json:"enrollment_status"`
	Paid             bool                    `json:"paid"`
}

// Engine applies the transition rule to enrollments and payments. Both
// triggers - the student poll and the provider webhook - go through the same
// apply step, so duplicate deliveries and repeated polls are harmless.
type Engine struct {
	store   domain.Store
	gateway domain.PaymentGateway
}

// NewEngine creates a reconciliation engine.
func NewEngine(store domain.Store, gateway domain.PaymentGateway) *Engine {
	return &Engine{store: store, gateway: gateway}
}

// Status answers the polling UI. When the payment is not PAID yet and has a
// charge id, the provider is consulted first; a gateway failure is logged and
// the last committed state is returned, because local state stays
// authoritative until a reconciliation succeeds.
func (e *Engine) Status(ctx context.Context, user domain.User, enrollmentID uint) (*SyncStatus, error) {
	enrollment, payment, err := e.loadOwned(ctx, user, enrollmentID)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentPaid && payment.ProviderChargeID != "" {
		result, err := e.reconcile(ctx, payment, nil, "pull")
		if err != nil {
			log.Printf("Status sync for enrollment %d failed, serving local state: %v", enrollmentID, err)
		} else if result == ResultApproved {
			enrollment.Status = domain.EnrollmentConfirmed
		}
	}

	return &SyncStatus{
		PaymentStatus:    payment.Status,
		EnrollmentStatus: enrollment.Status,
		Paid:             payment.Status == domain.PaymentPaid,
	}, nil
}

// Refresh is the student-triggered pull. Unlike Status it surfaces gateway
// failures to the caller instead of degrading to local state.
func (e *Engine) Refresh(ctx context.Context, user domain.User, enrollmentID uint) (Result, error) {
	_, payment, err := e.loadOwned(ctx, user, enrollmentID)
	if err != nil {
		return "", err
	}

	if payment.Status == domain.PaymentPaid {
		return ResultApproved, nil
	}
	if payment.ProviderChargeID == "" {
		return ResultPending, nil
	}

	return e.reconcile(ctx, payment, nil, "pull")
}

// Push is the provider-triggered entry point. The notification only signals
// that something changed; the authoritative status is always re-fetched from
// the gateway. Safe to invoke repeatedly for the same charge id.
func (e *Engine) Push(ctx context.Context, chargeID string, raw []byte) (Result, error) {
	payment, err := e.store.Payments().FindByChargeID(ctx, chargeID)
	if err != nil {
		return "", err
	}
	return e.reconcile(ctx, payment, raw, "push")
}

// reconcile fetches the authoritative status and applies the transition rule
// in one transaction. A gateway failure mutates nothing.
func (e *Engine) reconcile(ctx context.Context, payment *domain.Payment, raw []byte, trigger string) (Result, error) {
	status, err := e.gateway.GetChargeStatus(ctx, payment.ProviderChargeID)
	if err != nil {
		monitoring.Reconciliation(trigger, "error")
		if errors.Is(err, domain.ErrChargeNotFound) {
			return "", err
		}
		return "", domain.NewBookingError(domain.ErrPaymentGatewayError,
			"failed to fetch charge status", "GATEWAY_ERROR")
	}

	outcome := ApplyProviderStatus(payment.Status, status.Status)
	monitoring.Reconciliation(trigger, string(outcome.Result))
	if !outcome.Changed {
		return outcome.Result, nil
	}

	now := time.Now().UTC()
	err = e.store.Atomic(ctx, func(tx domain.Store) error {
		payment.Status = outcome.Payment
		if outcome.Payment == domain.PaymentPaid {
			payment.SubmittedAt = &now
			payment.ValidatedAt = &now
		}
		if len(raw) > 0 {
			payment.WebhookRaw = string(raw)
		}
		if err := tx.Payments().Update(ctx, payment); err != nil {
			return err
		}

		if outcome.Confirm {
			enrollment, err := tx.Enrollments().GetByID(ctx, payment.EnrollmentID)
			if err != nil {
				return err
			}
			enrollment.Status = domain.EnrollmentConfirmed
			return tx.Enrollments().Update(ctx, enrollment)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	log.Printf("Reconciled charge %s via %s: payment %d -> %s",
		payment.ProviderChargeID, trigger, payment.ID, payment.Status)
	return outcome.Result, nil
}

// loadOwned fetches an enrollment and its payment, enforcing that the caller
// owns it. Ownership failures are reported uniformly.
func (e *Engine) loadOwned(ctx context.Context, user domain.User, enrollmentID uint) (*domain.Enrollment, *domain.Payment, error) {
	enrollment, err := e.store.Enrollments().GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if enrollment.UserID != user.ID {
		return nil, nil, domain.ErrNotOwner
	}

	payment, err := e.store.Payments().FindByEnrollment(ctx, enrollment.ID)
	if err != nil {
		return nil, nil, err
	}
	return enrollment, payment, nil
}
