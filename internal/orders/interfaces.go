package orders

import (
	"context"

	"gorm.io/gorm"

	"github.com/olimpiec/shop-backend/pkg/db/models"
)

// Repository defines the persistence surface for order placement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindActiveProductsByIDs(ctx context.Context, ids []uint64) ([]models.Product, error)
	FindActiveStoreByID(ctx context.Context, id uint64) (*models.Store, error)

	DecrementProductStock(ctx context.Context, productID uint64, qty int) (bool, error)
	DecrementSizeStock(ctx context.Context, productID, sizeID uint64, qty int) (bool, error)
	ProductStock(ctx context.Context, productID uint64) (int, error)
	SizeStock(ctx context.Context, productID, sizeID uint64) (int, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrderByID(ctx context.Context, id uint64) (*models.Order, error)
}
