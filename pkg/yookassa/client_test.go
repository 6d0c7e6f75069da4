package yookassa

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/olimpiec/shop-backend/pkg/config"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	c, err := NewClient(context.Background(), config.YooKassaConfig{
		ShopID:    "shop-1",
		SecretKey: "sk-test",
		BaseURL:   baseURL,
		Currency:  "RUB",
	}, logg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestCreatePaymentSendsAuthAndIdempotenceKey(t *testing.T) {
	var gotKey, gotUser, gotPass string
	var gotBody CreatePaymentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/payments" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotKey = r.Header.Get("Idempotence-Key")
		gotUser, gotPass, _ = r.BasicAuth()
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Payment{
			ID:     "pay_abc",
			Status: StatusPending,
			Amount: gotBody.Amount,
			Confirmation: &Confirmation{
				Type:            "redirect",
				ConfirmationURL: "https://pay.example/redirect",
			},
		})
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	req := CreatePaymentRequest{
		Amount:       c.NewAmount(decimal.RequireFromString("2500.50")),
		Capture:      true,
		Confirmation: Confirmation{Type: "redirect", ReturnURL: "https://shop.example/payment/success?order_id=7"},
		Metadata:     map[string]string{"order_id": "7"},
	}
	payment, err := c.CreatePayment(context.Background(), req, "key-123")
	if err != nil {
		t.Fatalf("create payment: %v", err)
	}

	if gotKey != "key-123" {
		t.Fatalf("expected idempotence key header, got %q", gotKey)
	}
	if gotUser != "shop-1" || gotPass != "sk-test" {
		t.Fatalf("expected basic auth shop-1/sk-test, got %s/%s", gotUser, gotPass)
	}
	if gotBody.Amount.Value != "2500.50" || gotBody.Amount.Currency != "RUB" {
		t.Fatalf("unexpected amount sent: %+v", gotBody.Amount)
	}
	if payment.ID != "pay_abc" || payment.Confirmation.ConfirmationURL == "" {
		t.Fatalf("unexpected payment: %+v", payment)
	}
}

func TestGetPaymentMapsGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GetPayment(context.Background(), "pay_abc")
	if err == nil {
		t.Fatal("expected error on 502")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestGetPaymentRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.GetPayment(context.Background(), "pay_abc")
	if err == nil {
		t.Fatal("expected decode error")
	}
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
}

func TestNewIdempotenceKeyIsUnique(t *testing.T) {
	c := &Client{}
	if c.NewIdempotenceKey() == c.NewIdempotenceKey() {
		t.Fatal("expected fresh keys per call")
	}
}
