package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/olimpiec/shop-backend/api/responses"
	"github.com/olimpiec/shop-backend/api/validators"
	paymentssvc "github.com/olimpiec/shop-backend/internal/payments"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

// CreatePaymentSession starts an online payment for an order.
func CreatePaymentSession(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var payload paymentssvc.CreateSessionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), payload.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PaymentWebhook ingests gateway notifications. Anything past JSON parsing is
// acknowledged with 200 so the gateway stops retrying; reconciliation problems
// are logged server-side instead.
func PaymentWebhook(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		// gateway payloads carry plenty of fields beyond the ones used here,
		// so decoding is lenient
		var notification paymentssvc.WebhookNotification
		if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body"))
			return
		}

		if err := svc.HandleWebhook(r.Context(), notification); err != nil {
			if logg != nil {
				logg.Error(r.Context(), "webhook.processing", err)
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "accepted"})
	}
}

// PaymentStatus reports the reconciled payment state for an order.
func PaymentStatus(svc paymentssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckStatus(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
