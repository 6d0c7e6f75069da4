package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/olimpiec/shop-backend/pkg/enums"
)

// Order is an immutable record of a placed order. Customer contact details are
// copied in at placement so later account edits never rewrite history.
type Order struct {
	ID              uint64               `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber     string               `gorm:"column:order_number;uniqueIndex;not null"`
	UserID          *uint64              `gorm:"column:user_id"`
	CustomerName    string               `gorm:"column:customer_name;not null"`
	CustomerEmail   string               `gorm:"column:customer_email;not null"`
	CustomerPhone   string               `gorm:"column:customer_phone;not null"`
	DeliveryMethod  enums.DeliveryMethod `gorm:"column:delivery_method;not null"`
	DeliveryAddress *string              `gorm:"column:delivery_address"`
	StoreID         *uint64              `gorm:"column:store_id"`
	Status          enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	TotalAmount     decimal.Decimal      `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Comment         *string              `gorm:"column:comment"`
	Items           []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment         *Payment             `gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// IsPaid reports whether the order has completed payment.
func (o *Order) IsPaid() bool {
	return o.Status == enums.OrderStatusPaid
}
