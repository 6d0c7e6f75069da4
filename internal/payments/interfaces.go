package payments

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/olimpiec/shop-backend/pkg/db/models"
	"github.com/olimpiec/shop-backend/pkg/yookassa"
)

// Repository defines the persistence surface for payment reconciliation.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindOrderByID(ctx context.Context, id uint64) (*models.Order, error)
	UpsertPayment(ctx context.Context, payment *models.Payment) error
	UpsertPaymentSession(ctx context.Context, payment *models.Payment) (bool, error)
	MarkOrderPaid(ctx context.Context, orderID uint64) (bool, error)
}

// Gateway is the payment provider surface the service depends on.
type Gateway interface {
	CreatePayment(ctx context.Context, req yookassa.CreatePaymentRequest, idempotenceKey string) (*yookassa.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*yookassa.Payment, error)
	NewIdempotenceKey() string
	NewAmount(value decimal.Decimal) yookassa.Amount
}
