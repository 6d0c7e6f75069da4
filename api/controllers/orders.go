package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/olimpiec/shop-backend/api/middleware"
	"github.com/olimpiec/shop-backend/api/responses"
	"github.com/olimpiec/shop-backend/api/validators"
	orderssvc "github.com/olimpiec/shop-backend/internal/orders"
	"github.com/olimpiec/shop-backend/pkg/db/models"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
)

// PlaceOrder handles checkout submission.
func PlaceOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload orderssvc.PlaceOrderInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if userID := middleware.UserIDFromContext(r.Context()); userID != 0 {
			payload.UserID = &userID
		}

		order, err := svc.PlaceOrder(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(order))
	}
}

// GetOrder returns one order with its items, for the confirmation page.
func GetOrder(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		orderID, err := validators.ParseIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type orderResponse struct {
	ID              uint64              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	DeliveryMethod  string              `json:"delivery_method"`
	DeliveryAddress *string             `json:"delivery_address,omitempty"`
	StoreID         *uint64             `json:"store_id,omitempty"`
	CustomerName    string              `json:"customer_name"`
	TotalAmount     decimal.Decimal     `json:"total_amount"`
	Comment         *string             `json:"comment,omitempty"`
	Items           []orderItemResponse `json:"items"`
	Payment         *paymentResponse    `json:"payment,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ProductID   uint64          `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	SizeID      *uint64         `json:"size_id,omitempty"`
	SizeName    string          `json:"size_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

type paymentResponse struct {
	Method        string          `json:"method"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	PaidAt        *time.Time      `json:"paid_at,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:              order.ID,
		OrderNumber:     order.OrderNumber,
		Status:          order.Status.String(),
		DeliveryMethod:  order.DeliveryMethod.String(),
		DeliveryAddress: order.DeliveryAddress,
		StoreID:         order.StoreID,
		CustomerName:    order.CustomerName,
		TotalAmount:     order.TotalAmount,
		Comment:         order.Comment,
		Items:           make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		view := orderItemResponse{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			LineTotal: item.LineTotal(),
		}
		if item.Product != nil {
			view.ProductName = item.Product.Name
		}
		if item.Size != nil {
			view.SizeName = item.Size.Name
		}
		resp.Items = append(resp.Items, view)
	}
	if order.Payment != nil {
		resp.Payment = &paymentResponse{
			Method:        order.Payment.Method.String(),
			Status:        order.Payment.Status.String(),
			Amount:        order.Payment.Amount,
			TransactionID: order.Payment.TransactionID,
			PaidAt:        order.Payment.PaidAt,
		}
	}
	return resp
}
