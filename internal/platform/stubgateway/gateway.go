// Package stubgateway provides an in-process PaymentGateway used when no
// Mercado Pago access token is configured. Charges start pending and can be
// moved with SetStatus, which is what the development /test-approve endpoint
// and the service tests rely on.
package stubgateway

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Gateway is a fake payment provider keyed by charge ID.
type Gateway struct {
	mu      sync.Mutex
	charges map[string]*domain.ChargeStatus
}

// NewGateway creates an empty stub gateway.
func NewGateway() *Gateway {
	return &Gateway{charges: make(map[string]*domain.ChargeStatus)}
}

// CreateCharge issues a new pending charge with a synthetic PIX payload.
func (g *Gateway) CreateCharge(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	chargeID := uuid.NewString()
	payload := fmt.Sprintf("00020126stub-pix-%s-%d", chargeID, req.AmountCents)
	g.charges[chargeID] = &domain.ChargeStatus{
		ChargeID:          chargeID,
		Status:            domain.ProviderPending,
		StatusDetail:      "pending_waiting_transfer",
		ExternalReference: fmt.Sprintf("%d", req.EnrollmentID),
		AmountCents:       req.AmountCents,
		PayerEmail:        req.PayerEmail,
	}

	return &domain.Charge{
		ChargeID:     chargeID,
		PixPayload:   payload,
		QRCodeBase64: base64.StdEncoding.EncodeToString([]byte(payload)),
		TicketURL:    "https://stub.local/charges/" + chargeID,
	}, nil
}

// GetChargeStatus returns the stored status for the charge.
func (g *Gateway) GetChargeStatus(ctx context.Context, chargeID string) (*domain.ChargeStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.charges[chargeID]
	if !ok {
		return nil, domain.ErrChargeNotFound
	}
	copied := *status
	return &copied, nil
}

// RefundCharge refunds an approved charge.
func (g *Gateway) RefundCharge(ctx context.Context, chargeID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.charges[chargeID]
	if !ok {
		return domain.ErrChargeNotFound
	}
	if status.Status != domain.ProviderApproved {
		return domain.ErrPaymentNotRefundable
	}
	status.StatusDetail = "refunded"
	return nil
}

// SetStatus moves a charge to the given provider status. It is how the
// development approval endpoint simulates the payer completing the PIX
// transfer.
func (g *Gateway) SetStatus(chargeID string, providerStatus domain.ProviderStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	status, ok := g.charges[chargeID]
	if !ok {
		return domain.ErrChargeNotFound
	}
	status.Status = providerStatus
	if providerStatus == domain.ProviderApproved {
		now := time.Now().UTC()
		status.DateApproved = &now
		status.StatusDetail = "accredited"
	}
	return nil
}
