package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futevolei/futevolei-booking/internal/domain"
	"github.com/futevolei/futevolei-booking/internal/platform/mercadopago"
	"github.com/futevolei/futevolei-booking/internal/platform/stubgateway"
	"github.com/futevolei/futevolei-booking/internal/reconcile"
	"github.com/futevolei/futevolei-booking/internal/storage/memory"
)

type webhookFixture struct {
	store    *memory.Store
	stub     *stubgateway.Gateway
	chargeID string
	payment  *domain.Payment
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	stub := stubgateway.NewGateway()

	class := &domain.Class{
		Title:      "Night game",
		StartsAt:   time.Now().Add(24 * time.Hour),
		EndsAt:     time.Now().Add(25 * time.Hour),
		Capacity:   8,
		PriceCents: 5000,
		Status:     domain.ClassOpen,
	}
	require.NoError(t, store.Classes().Create(ctx, class))

	enrollment := &domain.Enrollment{UserID: "user-1", ClassID: class.ID, Status: domain.EnrollmentAwaitingPayment}
	require.NoError(t, store.Enrollments().Create(ctx, enrollment))

	charge, err := stub.CreateCharge(ctx, domain.ChargeRequest{EnrollmentID: enrollment.ID, AmountCents: 5000})
	require.NoError(t, err)

	payment := &domain.Payment{
		EnrollmentID:     enrollment.ID,
		Status:           domain.PaymentPending,
		AmountCents:      5000,
		ProviderChargeID: charge.ChargeID,
	}
	require.NoError(t, store.Payments().Create(ctx, payment))

	return &webhookFixture{store: store, stub: stub, chargeID: charge.ChargeID, payment: payment}
}

func webhookRouter(f *webhookFixture, secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := reconcile.NewEngine(f.store, f.stub)
	handler := NewWebhookHandler(engine, mercadopago.NewWebhookValidator(secret))

	router := gin.New()
	router.POST("/webhooks/mercadopago", handler.Handle)
	return router
}

func postWebhook(router *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/mercadopago", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func paymentBody(chargeID string) string {
	return fmt.Sprintf(`{"type":"payment","data":{"id":"%s"}}`, chargeID)
}

func TestWebhookConfirmsPayment(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.stub.SetStatus(f.chargeID, domain.ProviderApproved))
	router := webhookRouter(f, "")

	w := postWebhook(router, paymentBody(f.chargeID), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	payment, err := f.store.Payments().GetByID(context.Background(), f.payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
}

func TestWebhookIgnoresOtherTypes(t *testing.T) {
	f := newWebhookFixture(t)
	router := webhookRouter(f, "")

	w := postWebhook(router, `{"type":"merchant_order","data":{"id":"123"}}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ignored")
}

func TestWebhookMissingDataID(t *testing.T) {
	f := newWebhookFixture(t)
	router := webhookRouter(f, "")

	w := postWebhook(router, `{"type":"payment","data":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookUnknownCharge(t *testing.T) {
	f := newWebhookFixture(t)
	router := webhookRouter(f, "")

	w := postWebhook(router, paymentBody("no-such-charge"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebhookRedeliveryStaysOK(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.stub.SetStatus(f.chargeID, domain.ProviderApproved))
	router := webhookRouter(f, "")

	first := postWebhook(router, paymentBody(f.chargeID), nil)
	second := postWebhook(router, paymentBody(f.chargeID), nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newWebhookFixture(t)
	router := webhookRouter(f, "topsecret")

	w := postWebhook(router, paymentBody(f.chargeID), map[string]string{
		"x-signature":  "ts=1700000000,v1=deadbeef",
		"x-request-id": "req-1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	f := newWebhookFixture(t)
	require.NoError(t, f.stub.SetStatus(f.chargeID, domain.ProviderApproved))

	secret := "topsecret"
	router := webhookRouter(f, secret)

	ts := "1700000000"
	requestID := "req-1"
	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", f.chargeID, requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	signature := hex.EncodeToString(mac.Sum(nil))

	w := postWebhook(router, paymentBody(f.chargeID), map[string]string{
		"x-signature":  fmt.Sprintf("ts=%s,v1=%s", ts, signature),
		"x-request-id": requestID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	payment, err := f.store.Payments().GetByID(context.Background(), f.payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
}
