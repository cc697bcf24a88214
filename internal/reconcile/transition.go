// Package reconcile synchronizes local payment state with the status the
// provider reports. Both entry points - the student-triggered poll and the
// provider-triggered webhook - converge on the single pure transition rule in
// this file, which makes the idempotence guarantees hold by construction.
package reconcile

import "github.com/futevolei/futevolei-booking/internal/domain"

// Result is what a reconciliation reports back to its caller.
type Result string

const (
	ResultApproved Result = "approved"
	ResultRejected Result = "rejected"
	ResultPending  Result = "pending"
)

// Outcome is the decision of the transition rule: the payment status to
// persist, whether the enrollment should be confirmed, and whether anything
// changed at all. Changed=false outcomes must cause zero writes.
type Outcome struct {
	Payment domain.PaymentStatus
	Confirm bool
	Changed bool
	Result  Result
}

// ApplyProviderStatus maps a provider-reported charge status onto the local
// payment state.
//
// Rules:
//   - approved        -> PAID, enrollment CONFIRMED. Re-applying to an
//     already-PAID payment is a no-op.
//   - rejected/cancelled -> REJECTED. The enrollment stays as it is so the
//     student can retry; a PAID payment is never downgraded.
//   - anything else   -> no mutation, report pending.
func ApplyProviderStatus(current domain.PaymentStatus, provider domain.ProviderStatus) Outcome {
	// PAID is terminal. Whatever the provider says later, local state stands.
	if current == domain.PaymentPaid {
		return Outcome{Payment: current, Result: ResultApproved}
	}

	switch provider {
	case domain.ProviderApproved:
		return Outcome{Payment: domain.PaymentPaid, Confirm: true, Changed: true, Result: ResultApproved}

	case domain.ProviderRejected, domain.ProviderCancelled:
		if current == domain.PaymentRejected {
			return Outcome{Payment: current, Result: ResultRejected}
		}
		return Outcome{Payment: domain.PaymentRejected, Changed: true, Result: ResultRejected}

	case domain.ProviderPending, domain.ProviderInProcess, domain.ProviderUnknown:
		return Outcome{Payment: current, Result: ResultPending}

	default:
		return Outcome{Payment: current, Result: ResultPending}
	}
}
