package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/olimpiec/shop-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindActiveProductsByIDs(ctx context.Context, ids []uint64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindActiveStoreByID(ctx context.Context, id uint64) (*models.Store, error) {
	var store models.Store
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&store).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

// DecrementProductStock atomically subtracts qty when enough flat stock
// remains. A false return means the conditional update matched no row.
func (r *repository) DecrementProductStock(ctx context.Context, productID uint64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		qty, productID, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementSizeStock is the per-size variant of DecrementProductStock.
func (r *repository) DecrementSizeStock(ctx context.Context, productID, sizeID uint64, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE product_sizes SET stock_quantity = stock_quantity - ? WHERE product_id = ? AND size_id = ? AND stock_quantity >= ?",
		qty, productID, sizeID, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ProductStock(ctx context.Context, productID uint64) (int, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Select("stock_quantity").
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return 0, err
	}
	return product.StockQuantity, nil
}

func (r *repository) SizeStock(ctx context.Context, productID, sizeID uint64) (int, error) {
	var ps models.ProductSize
	err := r.db.WithContext(ctx).
		Select("stock_quantity").
		Where("product_id = ? AND size_id = ?", productID, sizeID).
		First(&ps).Error
	if err != nil {
		return 0, err
	}
	return ps.StockQuantity, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items.Product").
		Preload("Items.Size").
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
