package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

func TestApplyProviderStatusApproved(t *testing.T) {
	outcome := ApplyProviderStatus(domain.PaymentPending, domain.ProviderApproved)

	assert.True(t, outcome.Changed)
	assert.True(t, outcome.Confirm)
	assert.Equal(t, domain.PaymentPaid, outcome.Payment)
	assert.Equal(t, ResultApproved, outcome.Result)
}

func TestApplyProviderStatusRejected(t *testing.T) {
	for _, provider := range []domain.ProviderStatus{domain.ProviderRejected, domain.ProviderCancelled} {
		outcome := ApplyProviderStatus(domain.PaymentPending, provider)

		assert.True(t, outcome.Changed)
		assert.False(t, outcome.Confirm, "rejection must not confirm the enrollment")
		assert.Equal(t, domain.PaymentRejected, outcome.Payment)
		assert.Equal(t, ResultRejected, outcome.Result)
	}
}

func TestApplyProviderStatusPendingIsNoOp(t *testing.T) {
	for _, provider := range []domain.ProviderStatus{domain.ProviderPending, domain.ProviderInProcess, domain.ProviderUnknown} {
		outcome := ApplyProviderStatus(domain.PaymentPending, provider)

		assert.False(t, outcome.Changed)
		assert.Equal(t, domain.PaymentPending, outcome.Payment)
		assert.Equal(t, ResultPending, outcome.Result)
	}
}

func TestApplyProviderStatusPaidIsTerminal(t *testing.T) {
	// Whatever the provider reports later, a PAID payment never moves.
	for _, provider := range []domain.ProviderStatus{
		domain.ProviderApproved,
		domain.ProviderPending,
		domain.ProviderInProcess,
		domain.ProviderRejected,
		domain.ProviderCancelled,
		domain.ProviderUnknown,
	} {
		outcome := ApplyProviderStatus(domain.PaymentPaid, provider)

		assert.False(t, outcome.Changed, "provider %s must not move a PAID payment", provider)
		assert.Equal(t, domain.PaymentPaid, outcome.Payment)
		assert.Equal(t, ResultApproved, outcome.Result)
	}
}

func TestApplyProviderStatusIdempotent(t *testing.T) {
	// Applying the same provider status twice must make the second
	// application a no-op.
	for _, provider := range []domain.ProviderStatus{
		domain.ProviderApproved,
		domain.ProviderRejected,
		domain.ProviderCancelled,
		domain.ProviderPending,
	} {
		first := ApplyProviderStatus(domain.PaymentPending, provider)
		second := ApplyProviderStatus(first.Payment, provider)

		assert.False(t, second.Changed, "second application of %s must be a no-op", provider)
		assert.Equal(t, first.Payment, second.Payment)
		assert.Equal(t, first.Result, second.Result)
	}
}

func TestApplyProviderStatusRejectedThenApproved(t *testing.T) {
	// A late approval after a rejection still confirms: the provider is
	// authoritative for everything except downgrading PAID.
	rejected := ApplyProviderStatus(domain.PaymentPending, domain.ProviderRejected)
	outcome := ApplyProviderStatus(rejected.Payment, domain.ProviderApproved)

	assert.True(t, outcome.Changed)
	assert.True(t, outcome.Confirm)
	assert.Equal(t, domain.PaymentPaid, outcome.Payment)
}
