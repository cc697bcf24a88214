// Package domain contains the core business entities and interfaces for the
// booking service.
package domain

import (
	"context"
	"time"
)

// ChargeRequest is a request to create a PIX charge at the provider. The
// enrollment id travels as the external reference so webhook notifications
// can be traced back.
type ChargeRequest struct {
	EnrollmentID uint
	AmountCents  int64
	Description  string
	PayerEmail   string
	PayerName    string
}

// Charge is the provider's answer to a charge creation: the reconciliation
// key plus the PIX payload shown to the student. The payload fields are
// immutable after creation.
type Charge struct {
	ChargeID     string
	PixPayload   string // copy-and-paste PIX code
	QRCodeBase64 string
	TicketURL    string
}

// ChargeStatus is the authoritative state of a charge as reported by the
// provider.
type ChargeStatus struct {
	ChargeID          string
	Status            ProviderStatus
	StatusDetail      string
	ExternalReference string
	AmountCents       int64
	PayerEmail        string
	DateApproved      *time.Time
}

// PaymentGateway wraps the external payment processor. It holds no local
// state; every call is a network round trip with its own failure modes.
type PaymentGateway interface {
	// CreateCharge creates a PIX charge and returns its payload.
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)

	// GetChargeStatus fetches the charge's current status. Returns
	// ErrChargeNotFound when the provider does not know the id.
	GetChargeStatus(ctx context.Context, chargeID string) (*ChargeStatus, error)

	// RefundCharge refunds an approved charge. Only invoked as a manual
	// administrative action, never as part of the automatic lifecycle.
	RefundCharge(ctx context.Context, chargeID string) error
}
