package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/olimpiec/shop-backend/pkg/enums"
)

// Payment tracks settlement for an order. The unique index on order_id keeps
// it to one row per order; session retries upsert into the same row.
type Payment struct {
	ID            uint64              `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID       uint64              `gorm:"column:order_id;uniqueIndex;not null"`
	Method        enums.PaymentMethod `gorm:"column:method;not null;default:'online'"`
	Status        enums.PaymentStatus `gorm:"column:status;not null;default:'pending'"`
	Amount        decimal.Decimal     `gorm:"column:amount;type:numeric(10,2);not null"`
	TransactionID *string             `gorm:"column:transaction_id"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
