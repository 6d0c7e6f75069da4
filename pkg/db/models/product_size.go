package models

// ProductSize holds per-size stock for a product. Products sold without sizes
// keep their stock on the Product row instead.
type ProductSize struct {
	ProductID     uint64 `gorm:"column:product_id;primaryKey"`
	SizeID        uint64 `gorm:"column:size_id;primaryKey"`
	StockQuantity int    `gorm:"column:stock_quantity;not null;default:0"`
	Size          *Size  `gorm:"foreignKey:SizeID"`
}

// TableName keeps the join-table name explicit.
func (ProductSize) TableName() string {
	return "product_sizes"
}
