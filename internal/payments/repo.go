package payments

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/olimpiec/shop-backend/pkg/db/models"
	"github.com/olimpiec/shop-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindOrderByID(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Payment").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpsertPayment writes the payment keyed by order_id. Used by the paid
// transition, which may legitimately overwrite any prior state.
func (r *repository) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"method", "status", "amount", "transaction_id", "paid_at", "updated_at",
			}),
		}).
		Create(payment).Error
}

// UpsertPaymentSession writes the pending payment for a fresh gateway
// session, keyed by order_id so repeated session creation reuses the single
// row. A payment that already completed is never downgraded; the false
// return tells the caller the session lost the race.
func (r *repository) UpsertPaymentSession(ctx context.Context, payment *models.Payment) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"method", "status", "amount", "transaction_id", "updated_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Neq{
					Column: clause.Column{Table: "payments", Name: "status"},
					Value:  enums.PaymentStatusCompleted,
				},
			}},
		}).
		Create(payment)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkOrderPaid flips the order to paid only if it is not paid yet. The
// conditional update serializes concurrent webhook and poll deliveries; a
// false return means someone else already won.
func (r *repository) MarkOrderPaid(ctx context.Context, orderID uint64) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE orders SET status = ? WHERE id = ? AND status <> ?",
		enums.OrderStatusPaid, orderID, enums.OrderStatusPaid,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
