package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	paymentssvc "github.com/olimpiec/shop-backend/internal/payments"
	"github.com/olimpiec/shop-backend/pkg/enums"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
)

type stubPaymentService struct {
	sessionResp  *paymentssvc.SessionResult
	sessionErr   error
	webhookCalls int
	webhookErr   error
	statusResp   *paymentssvc.StatusResult
	statusErr    error
}

func (s *stubPaymentService) CreateSession(_ context.Context, _ uint64) (*paymentssvc.SessionResult, error) {
	if s.sessionErr != nil {
		return nil, s.sessionErr
	}
	return s.sessionResp, nil
}

func (s *stubPaymentService) HandleWebhook(_ context.Context, _ paymentssvc.WebhookNotification) error {
	s.webhookCalls++
	return s.webhookErr
}

func (s *stubPaymentService) CheckStatus(_ context.Context, _ uint64) (*paymentssvc.StatusResult, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	return s.statusResp, nil
}

func TestCreatePaymentSessionReturnsConfirmationURL(t *testing.T) {
	svc := &stubPaymentService{
		sessionResp: &paymentssvc.SessionResult{
			OrderID:         7,
			PaymentID:       "pay_abc",
			ConfirmationURL: "https://pay.example/redirect",
		},
	}
	handler := CreatePaymentSession(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/create", strings.NewReader(`{"order_id": 7}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Data paymentssvc.SessionResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.ConfirmationURL != "https://pay.example/redirect" {
		t.Fatalf("unexpected payload %+v", body.Data)
	}
}

func TestCreatePaymentSessionConflict(t *testing.T) {
	svc := &stubPaymentService{
		sessionErr: pkgerrors.New(pkgerrors.CodeConflict, "order 7 is already paid"),
	}
	handler := CreatePaymentSession(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/create", strings.NewReader(`{"order_id": 7}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreatePaymentSessionGatewayDown(t *testing.T) {
	svc := &stubPaymentService{
		sessionErr: pkgerrors.New(pkgerrors.CodeDependency, "create payment: gateway status 502"),
	}
	handler := CreatePaymentSession(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/create", strings.NewReader(`{"order_id": 7}`))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestWebhookAcknowledgesProcessingErrors(t *testing.T) {
	svc := &stubPaymentService{
		webhookErr: pkgerrors.New(pkgerrors.CodeDependency, "db down"),
	}
	handler := PaymentWebhook(svc, nil)

	body := `{"type":"notification","event":"payment.succeeded","object":{"id":"pay_abc","status":"succeeded","amount":{"value":"100.00","currency":"RUB"},"metadata":{"order_id":"7"},"income_amount":{"value":"97.00","currency":"RUB"}}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 ack despite processing error, got %d", rec.Code)
	}
	if svc.webhookCalls != 1 {
		t.Fatalf("expected one webhook call, got %d", svc.webhookCalls)
	}
}

func TestWebhookRejectsMalformedJSON(t *testing.T) {
	svc := &stubPaymentService{}
	handler := PaymentWebhook(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unparseable body, got %d", rec.Code)
	}
	if svc.webhookCalls != 0 {
		t.Fatal("service must not be called for malformed payloads")
	}
}

func TestPaymentStatusEndpoint(t *testing.T) {
	svc := &stubPaymentService{
		statusResp: &paymentssvc.StatusResult{
			OrderStatus:   enums.OrderStatusPaid,
			PaymentStatus: enums.PaymentStatusCompleted,
			IsPaid:        true,
		},
	}

	router := chi.NewRouter()
	router.Get("/api/v1/payments/status/{orderID}", PaymentStatus(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/status/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Data paymentssvc.StatusResult `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Data.IsPaid || body.Data.OrderStatus != enums.OrderStatusPaid {
		t.Fatalf("unexpected payload %+v", body.Data)
	}
}
