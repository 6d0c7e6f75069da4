package orders

import "github.com/olimpiec/shop-backend/pkg/enums"

// OrderLineInput is one cart line as submitted by the client. Quantities for
// the same product and size are summed before stock is touched.
type OrderLineInput struct {
	ProductID uint64  `json:"product_id" validate:"required"`
	SizeID    *uint64 `json:"size_id"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	Items           []OrderLineInput     `json:"items" validate:"required,min=1,dive"`
	CustomerName    string               `json:"customer_name" validate:"required,max=255"`
	CustomerEmail   string               `json:"customer_email" validate:"required,email,max=255"`
	CustomerPhone   string               `json:"customer_phone" validate:"required,max=32"`
	DeliveryMethod  enums.DeliveryMethod `json:"delivery_method" validate:"required"`
	DeliveryAddress *string              `json:"delivery_address"`
	StoreID         *uint64              `json:"store_id"`
	Comment         *string              `json:"comment"`
	UserID          *uint64              `json:"-"`
}

const maxCommentLength = 1000

// stockKey identifies one stock row.
type stockKey struct {
	productID uint64
	sizeID    uint64 // zero when the product is unsized
}

// StockShortfallDetails names the line that could not be satisfied.
type StockShortfallDetails struct {
	ProductID uint64  `json:"product_id"`
	SizeID    *uint64 `json:"size_id,omitempty"`
	Requested int     `json:"requested"`
	Available int     `json:"available"`
}
