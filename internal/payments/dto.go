package payments

import (
	"github.com/olimpiec/shop-backend/pkg/enums"
	"github.com/olimpiec/shop-backend/pkg/yookassa"
)

// CreateSessionRequest is the body for starting an online payment.
type CreateSessionRequest struct {
	OrderID uint64 `json:"order_id" validate:"required"`
}

// SessionResult is returned after the gateway registers a payment.
type SessionResult struct {
	OrderID         uint64 `json:"order_id"`
	PaymentID       string `json:"payment_id"`
	ConfirmationURL string `json:"confirmation_url"`
}

// WebhookNotification is the gateway's event envelope.
type WebhookNotification struct {
	Type   string           `json:"type"`
	Event  string           `json:"event"`
	Object yookassa.Payment `json:"object"`
}

// StatusResult reports the reconciled order and payment state.
type StatusResult struct {
	OrderStatus   enums.OrderStatus   `json:"order_status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	IsPaid        bool                `json:"is_paid"`
}

// EventPaymentSucceeded is the only webhook event that changes state.
const EventPaymentSucceeded = "payment.succeeded"
