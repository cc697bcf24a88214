// Package mercadopago implements the PaymentGateway interface using the
// Mercado Pago SDK. Charges are created as PIX payments so the provider
// returns the copy-and-paste payload and QR code directly, with no checkout
// redirect involved.
package mercadopago

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"github.com/shopspring/decimal"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Adapter implements domain.PaymentGateway against the Mercado Pago API.
type Adapter struct {
	paymentClient   payment.Client
	refundClient    refund.Client
	notificationURL string
}

// NewAdapter creates the adapter with the account access token.
func NewAdapter(accessToken, notificationURL string) (*Adapter, error) {
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create MP config: %w", err)
	}
	return &Adapter{
		paymentClient:   payment.NewClient(cfg),
		refundClient:    refund.NewClient(cfg),
		notificationURL: notificationURL,
	}, nil
}

// CreateCharge creates a PIX payment in Mercado Pago and returns the charge
// ID together with the PIX payload and QR code.
func (a *Adapter) CreateCharge(ctx context.Context, req domain.ChargeRequest) (*domain.Charge, error) {
	// The API takes the amount in currency units; the domain keeps cents.
	amount, _ := decimal.NewFromInt(req.AmountCents).Div(decimal.NewFromInt(100)).Float64()

	request := payment.Request{
		TransactionAmount: amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		Payer: &payment.PayerRequest{
			Email:     req.PayerEmail,
			FirstName: req.PayerName,
		},
		// external_reference links the webhook back to our enrollment.
		ExternalReference: strconv.FormatUint(uint64(req.EnrollmentID), 10),
		NotificationURL:   a.notificationURL,
	}

	result, err := a.paymentClient.Create(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create PIX payment: %w", err)
	}

	transactionData := result.PointOfInteraction.TransactionData
	return &domain.Charge{
		ChargeID:     strconv.Itoa(result.ID),
		PixPayload:   transactionData.QRCode,
		QRCodeBase64: transactionData.QRCodeBase64,
		TicketURL:    transactionData.TicketURL,
	}, nil
}

// GetChargeStatus retrieves the current payment status from Mercado Pago.
// Used both for on-demand reconciliation and when processing webhooks.
func (a *Adapter) GetChargeStatus(ctx context.Context, chargeID string) (*domain.ChargeStatus, error) {
	// The SDK uses int payment IDs.
	paymentID, err := strconv.Atoi(chargeID)
	if err != nil {
		return nil, fmt.Errorf("invalid payment ID format: %w", err)
	}

	result, err := a.paymentClient.Get(ctx, paymentID)
	if err != nil {
		if strings.Contains(err.Error(), "404") {
			return nil, domain.ErrChargeNotFound
		}
		return nil, fmt.Errorf("failed to get payment info: %w", err)
	}

	amountCents := decimal.NewFromFloat(result.TransactionAmount).
		Mul(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	var dateApproved *time.Time
	if !result.DateApproved.IsZero() {
		approved := result.DateApproved
		dateApproved = &approved
	}

	return &domain.ChargeStatus{
		ChargeID:          chargeID,
		Status:            domain.ParseProviderStatus(result.Status),
		StatusDetail:      result.StatusDetail,
		ExternalReference: result.ExternalReference,
		AmountCents:       amountCents,
		PayerEmail:        result.Payer.Email,
		DateApproved:      dateApproved,
	}, nil
}

// RefundCharge issues a full refund for the payment.
func (a *Adapter) RefundCharge(ctx context.Context, chargeID string) error {
	paymentID, err := strconv.Atoi(chargeID)
	if err != nil {
		return fmt.Errorf("invalid payment ID format: %w", err)
	}

	if _, err := a.refundClient.Create(ctx, paymentID); err != nil {
		return fmt.Errorf("failed to refund payment: %w", err)
	}
	return nil
}
