// Package enrollment implements the enrollment/payment state machine: the
// lifecycle that couples a class's seat capacity, a student's enrollment row
// and the external PIX charge backing it.
package enrollment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/futevolei/futevolei-booking/internal/capacity"
	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/monitoring"
)

// Result is what an enroll request hands back: the (possibly reused)
// enrollment and the fresh pending payment carrying the PIX payload.
type Result struct {
	Enrollment *domain.Enrollment `json:"enrollment"`
	Payment    *domain.Payment    `json:"payment"`
}

// Service orchestrates enrollments against the store and the payment
// gateway.
type Service struct {
	store   domain.Store
	gateway domain.PaymentGateway
}

// NewService creates an enrollment service.
func NewService(store domain.Store, gateway domain.PaymentGateway) *Service {
	return &Service{store: store, gateway: gateway}
}

// Enroll admits the user into the class and prepares a PIX payment.
//
// Admission runs inside one SERIALIZABLE transaction so the capacity read and
// the enrollment write cannot interleave with a concurrent admission: the
// invariant confirmed_count <= capacity holds at all times. The gateway call
// happens after that transaction commits; if charge creation fails the
// enrollment stays AWAITING_PAYMENT with no payment row, and retrying the
// enroll request regenerates it safely.
func (s *Service) Enroll(ctx context.Context, user domain.User, classID uint) (*Result, error) {
	var (
		class      *domain.Class
		enrollment *domain.Enrollment
	)

	err := s.store.Serializable(ctx, func(tx domain.Store) error {
		var err error
		class, err = tx.Classes().GetByID(ctx, classID)
		if err != nil {
			return err
		}
		if class.Status != domain.ClassOpen {
			monitoring.Admission("rejected_not_open")
			return domain.ErrClassNotOpen
		}

		ledger := capacity.NewLedger(tx.Enrollments())

		existing, err := tx.Enrollments().FindByUserAndClass(ctx, user.ID, classID)
		switch {
		case err == nil && existing.Status == domain.EnrollmentConfirmed:
			monitoring.Admission("rejected_already_enrolled")
			return domain.ErrAlreadyEnrolled

		case err == nil && existing.Status == domain.EnrollmentAwaitingPayment:
			// Retry while awaiting payment. The seat was never held, so the
			// class may have filled since the first attempt; re-check before
			// handing out a fresh PIX code that could confirm into a full
			// class.
			full, err := ledger.IsFull(ctx, class)
			if err != nil {
				return err
			}
			if full {
				monitoring.Admission("rejected_full")
				return domain.ErrClassFull
			}
			if err := tx.Payments().DeleteByEnrollment(ctx, existing.ID); err != nil {
				return err
			}
			enrollment = existing

		case err == nil:
			// CANCELLED or WAITLIST: reuse the row so the (user, class) pair
			// keeps a stable identifier.
			full, err := ledger.IsFull(ctx, class)
			if err != nil {
				return err
			}
			if full {
				monitoring.Admission("rejected_full")
				return domain.ErrClassFull
			}
			if err := tx.Payments().DeleteByEnrollment(ctx, existing.ID); err != nil {
				return err
			}
			existing.Status = domain.EnrollmentAwaitingPayment
			existing.CancelledAt = nil
			existing.UserName = user.Name
			if err := tx.Enrollments().Update(ctx, existing); err != nil {
				return err
			}
			enrollment = existing

		case errors.Is(err, domain.ErrEnrollmentNotFound):
			full, err := ledger.IsFull(ctx, class)
			if err != nil {
				return err
			}
			if full {
				monitoring.Admission("rejected_full")
				return domain.ErrClassFull
			}
			enrollment = &domain.Enrollment{
				UserID:   user.ID,
				UserName: user.Name,
				ClassID:  classID,
				Status:   domain.EnrollmentAwaitingPayment,
			}
			if err := tx.Enrollments().Create(ctx, enrollment); err != nil {
				return err
			}

		default:
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	monitoring.Admission("admitted")

	payment, err := s.createCharge(ctx, user, class, enrollment)
	if err != nil {
		return nil, err
	}

	log.Printf("Enrollment %d for user %s in class %d awaiting payment, charge %s",
		enrollment.ID, user.ID, class.ID, payment.ProviderChargeID)
	return &Result{Enrollment: enrollment, Payment: payment}, nil
}

// createCharge asks the gateway for a PIX charge and persists the pending
// payment. The enrollment is already committed at this point, so a gateway
// failure leaves no partial state behind.
func (s *Service) createCharge(ctx context.Context, user domain.User, class *domain.Class, enrollment *domain.Enrollment) (*domain.Payment, error) {
	description := fmt.Sprintf("Class: %s - %s", class.Title, class.StartsAt.Format("2006-01-02"))

	charge, err := s.gateway.CreateCharge(ctx, domain.ChargeRequest{
		EnrollmentID: enrollment.ID,
		AmountCents:  class.PriceCents,
		Description:  description,
		PayerEmail:   user.Email,
		PayerName:    user.Name,
	})
	if err != nil {
		monitoring.ChargeCreated("error")
		log.Printf("Charge creation failed for enrollment %d: %v", enrollment.ID, err)
		return nil, domain.NewBookingError(domain.ErrPaymentGatewayError,
			"failed to create PIX charge", "GATEWAY_ERROR")
	}
	monitoring.ChargeCreated("ok")

	payment := &domain.Payment{
		EnrollmentID:     enrollment.ID,
		Method:           "PIX",
		Status:           domain.PaymentPending,
		AmountCents:      class.PriceCents,
		Description:      description,
		Provider:         "mercadopago",
		ProviderChargeID: charge.ChargeID,
		PixPayload:       charge.PixPayload,
		QRCodeBase64:     charge.QRCodeBase64,
		TicketURL:        charge.TicketURL,
	}
	err = s.store.Atomic(ctx, func(tx domain.Store) error {
		return tx.Payments().Create(ctx, payment)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// Cancel marks the caller's enrollment CANCELLED. A PAID payment is kept and
// annotated - refunds are a separate manual admin action - while any other
// payment is rejected. Cancelling an already-cancelled enrollment is a no-op.
func (s *Service) Cancel(ctx context.Context, user domain.User, enrollmentID uint) error {
	return s.store.Atomic(ctx, func(tx domain.Store) error {
		enrollment, err := tx.Enrollments().GetByID(ctx, enrollmentID)
		if err != nil {
			return err
		}
		if enrollment.UserID != user.ID {
			return domain.ErrNotOwner
		}
		if enrollment.Status == domain.EnrollmentCancelled {
			return nil
		}

		now := time.Now().UTC()
		enrollment.Status = domain.EnrollmentCancelled
		enrollment.CancelledAt = &now
		if err := tx.Enrollments().Update(ctx, enrollment); err != nil {
			return err
		}

		payment, err := tx.Payments().FindByEnrollment(ctx, enrollment.ID)
		if errors.Is(err, domain.ErrPaymentNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if payment.Status == domain.PaymentPaid {
			payment.Notes += "\nCancelled by student (no automatic refund)."
		} else {
			payment.Status = domain.PaymentRejected
			payment.Notes += "\nCancelled by student."
		}
		payment.ValidatedAt = &now
		return tx.Payments().Update(ctx, payment)
	})
}

// Refund triggers a provider refund for a PAID payment. Admin-only, manual,
// and deliberately outside the automatic lifecycle; the payment stays PAID
// and is annotated.
func (s *Service) Refund(ctx context.Context, admin domain.User, paymentID uint) error {
	payment, err := s.store.Payments().GetByID(ctx, paymentID)
	if err != nil {
		return err
	}
	if payment.Status != domain.PaymentPaid || payment.ProviderChargeID == "" {
		return domain.ErrPaymentNotRefundable
	}

	if err := s.gateway.RefundCharge(ctx, payment.ProviderChargeID); err != nil {
		return domain.NewBookingError(domain.ErrPaymentGatewayError,
			"failed to refund charge", "GATEWAY_ERROR")
	}

	now := time.Now().UTC()
	return s.store.Atomic(ctx, func(tx domain.Store) error {
		payment.Notes += fmt.Sprintf("\nRefunded by admin %s.", admin.ID)
		payment.ValidatedAt = &now
		return tx.Payments().Update(ctx, payment)
	})
}

// History lists the caller's enrollments with their payments, newest class
// first ordering is left to the repository.
func (s *Service) History(ctx context.Context, user domain.User) ([]HistoryEntry, error) {
	enrollments, err := s.store.Enrollments().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(enrollments))
	for i := range enrollments {
		entry := HistoryEntry{Enrollment: enrollments[i]}

		class, err := s.store.Classes().GetByID(ctx, enrollments[i].ClassID)
		if err == nil {
			entry.Class = class
		}
		payment, err := s.store.Payments().FindByEnrollment(ctx, enrollments[i].ID)
		if err == nil {
			entry.Payment = payment
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// HistoryEntry is one row of a student's enrollment history.
type HistoryEntry struct {
	Enrollment domain.Enrollment `json:"enrollment"`
	Class      *domain.Class     `json:"class,omitempty"`
	Payment    *domain.Payment   `json:"payment,omitempty"`
}
