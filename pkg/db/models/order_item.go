package models

import (
	"github.com/shopspring/decimal"
)

// OrderItem snapshots one cart line. Price is the unit price at placement
// time; it never tracks the product's current price.
type OrderItem struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   uint64          `gorm:"column:order_id;not null;index"`
	ProductID uint64          `gorm:"column:product_id;not null"`
	SizeID    *uint64         `gorm:"column:size_id"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Product   *Product        `gorm:"foreignKey:ProductID"`
	Size      *Size           `gorm:"foreignKey:SizeID"`
}

// LineTotal is price x quantity in decimal arithmetic.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
