package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/olimpiec/shop-backend/pkg/config"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

var (
	errShopIDRequired    = errors.New("yookassa shop id is required")
	errSecretKeyRequired = errors.New("yookassa secret key is required")
	errLoggerRequired    = errors.New("yookassa logger is required")
)

// Payment statuses reported by the gateway.
const (
	StatusPending           = "pending"
	StatusWaitingForCapture = "waiting_for_capture"
	StatusSucceeded         = "succeeded"
	StatusCanceled          = "canceled"
)

// Client exposes YooKassa v3 primitives with centralized auth, idempotency,
// and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	shopID     string
	secretKey  string
	currency   string
	logger     *logger.Logger
}

// Amount is the gateway's money representation: a decimal string plus an
// ISO currency code.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Confirmation carries the redirect the buyer must follow to pay.
type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// CreatePaymentRequest is the payload for a new gateway payment.
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Capture      bool              `json:"capture"`
	Confirmation Confirmation      `json:"confirmation"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Payment is the gateway's view of a payment.
type Payment struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Paid         bool              `json:"paid"`
	Amount       Amount            `json:"amount"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// NewClient initializes the YooKassa wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.YooKassaConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	shopID := strings.TrimSpace(cfg.ShopID)
	if shopID == "" {
		return nil, errShopIDRequired
	}
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		shopID:     shopID,
		secretKey:  secretKey,
		currency:   cfg.Currency,
		logger:     logg,
	}

	logg.Info(ctx, "yookassa client initialized")
	return c, nil
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// NewIdempotenceKey returns a unique key for gateway operations. The gateway
// replays the original response for repeated keys, so each attempt gets a
// fresh one.
func (c *Client) NewIdempotenceKey() string {
	return uuid.NewString()
}

// NewAmount formats a decimal into the gateway's amount shape.
func (c *Client) NewAmount(value decimal.Decimal) Amount {
	return Amount{
		Value:    value.StringFixed(2),
		Currency: c.currency,
	}
}

// CreatePayment registers a payment and returns the confirmation redirect.
func (c *Client) CreatePayment(ctx context.Context, req CreatePaymentRequest, idempotenceKey string) (*Payment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode payment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotence-Key", idempotenceKey)
	httpReq.SetBasicAuth(c.shopID, c.secretKey)

	return c.do(ctx, httpReq, "create payment")
}

// GetPayment fetches the current gateway state for a payment id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/payments/"+paymentID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build payment lookup")
	}
	httpReq.SetBasicAuth(c.shopID, c.secretKey)

	return c.do(ctx, httpReq, "get payment")
}

func (c *Client) do(ctx context.Context, req *http.Request, op string) (*Payment, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+": read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if c.logger != nil {
			c.logger.Warn(ctx, fmt.Sprintf("%s: gateway returned %d", op, resp.StatusCode))
		}
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s: gateway status %d", op, resp.StatusCode))
	}

	var payment Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, op+": decode response")
	}
	if payment.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, op+": gateway response missing payment id")
	}
	return &payment, nil
}
