package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/olimpiec/shop-backend/pkg/db"
	"github.com/olimpiec/shop-backend/pkg/db/models"
	"github.com/olimpiec/shop-backend/pkg/enums"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
	"github.com/olimpiec/shop-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the order placement surface.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, orderID uint64) (*models.Order, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	logger  *logger.Logger
	metrics *metrics.StoreMetrics
}

const placeOrderAttempts = 3

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger, m *metrics.StoreMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logger: logg, metrics: m}, nil
}

// PlaceOrder validates the cart, decrements stock atomically, and persists the
// order with price snapshots, all inside one transaction. The whole
// transaction is retried when the generated order number collides.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*models.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	requirements := aggregateRequirements(input.Items)

	var placed *models.Order
	var lastErr error
	for attempt := 0; attempt < placeOrderAttempts; attempt++ {
		placed, lastErr = s.placeOnce(ctx, input, requirements)
		if lastErr == nil {
			break
		}
		if !db.IsUniqueViolation(lastErr, "order_number") {
			break
		}
	}
	if lastErr != nil {
		var coded *pkgerrors.Error
		if errors.As(lastErr, &coded) {
			if coded.Code() == pkgerrors.CodeStock {
				s.metrics.IncStockShortfall()
			}
			return nil, lastErr
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "placing order")
	}

	s.metrics.IncOrderPlaced()
	if s.logger != nil {
		ctx = s.logger.WithOrderID(ctx, placed.ID)
		s.logger.Info(ctx, fmt.Sprintf("order %s placed, total %s", placed.OrderNumber, placed.TotalAmount.StringFixed(2)))
	}
	return placed, nil
}

func (s *service) placeOnce(ctx context.Context, input PlaceOrderInput, requirements []requirement) (*models.Order, error) {
	number, err := newOrderNumber()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generating order number")
	}

	var orderID uint64
	txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		products, err := s.loadProducts(ctx, repo, requirements)
		if err != nil {
			return err
		}

		if input.DeliveryMethod == enums.DeliveryMethodPickup {
			if _, err := repo.FindActiveStoreByID(ctx, *input.StoreID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("store %d not found", *input.StoreID))
				}
				return err
			}
		}

		if err := s.applyDecrements(ctx, repo, requirements); err != nil {
			return err
		}

		items, total := buildItems(input.Items, products)
		order := &models.Order{
			OrderNumber:     number,
			UserID:          input.UserID,
			CustomerName:    strings.TrimSpace(input.CustomerName),
			CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
			CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
			DeliveryMethod:  input.DeliveryMethod,
			DeliveryAddress: input.DeliveryAddress,
			StoreID:         input.StoreID,
			Status:          enums.OrderStatusPending,
			TotalAmount:     total,
			Comment:         input.Comment,
			Items:           items,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		orderID = order.ID
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	return s.repo.FindOrderByID(ctx, orderID)
}

// requirement is the aggregated quantity for one stock row.
type requirement struct {
	key stockKey
	qty int
}

// aggregateRequirements sums duplicate cart lines and orders the result by
// (product_id, size_id) ascending so concurrent transactions always touch
// stock rows in the same order.
func aggregateRequirements(items []OrderLineInput) []requirement {
	byKey := map[stockKey]int{}
	for _, item := range items {
		key := stockKey{productID: item.ProductID}
		if item.SizeID != nil {
			key.sizeID = *item.SizeID
		}
		byKey[key] += item.Quantity
	}

	reqs := make([]requirement, 0, len(byKey))
	for key, qty := range byKey {
		reqs = append(reqs, requirement{key: key, qty: qty})
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].key.productID != reqs[j].key.productID {
			return reqs[i].key.productID < reqs[j].key.productID
		}
		return reqs[i].key.sizeID < reqs[j].key.sizeID
	})
	return reqs
}

func (s *service) loadProducts(ctx context.Context, repo Repository, reqs []requirement) (map[uint64]models.Product, error) {
	ids := make([]uint64, 0, len(reqs))
	seen := map[uint64]bool{}
	for _, req := range reqs {
		if !seen[req.key.productID] {
			seen[req.key.productID] = true
			ids = append(ids, req.key.productID)
		}
	}

	products, err := repo.FindActiveProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d not found", id))
		}
	}
	return byID, nil
}

func (s *service) applyDecrements(ctx context.Context, repo Repository, reqs []requirement) error {
	for _, req := range reqs {
		var ok bool
		var err error
		if req.key.sizeID != 0 {
			ok, err = repo.DecrementSizeStock(ctx, req.key.productID, req.key.sizeID, req.qty)
		} else {
			ok, err = repo.DecrementProductStock(ctx, req.key.productID, req.qty)
		}
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		return s.shortfallError(ctx, repo, req)
	}
	return nil
}

// shortfallError reports the quantity still available on the row that refused
// the decrement. A missing row means the product/size pairing does not exist.
func (s *service) shortfallError(ctx context.Context, repo Repository, req requirement) error {
	var available int
	var err error
	details := StockShortfallDetails{
		ProductID: req.key.productID,
		Requested: req.qty,
	}
	if req.key.sizeID != 0 {
		sizeID := req.key.sizeID
		details.SizeID = &sizeID
		available, err = repo.SizeStock(ctx, req.key.productID, req.key.sizeID)
	} else {
		available, err = repo.ProductStock(ctx, req.key.productID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %d has no such size", req.key.productID))
		}
		return err
	}
	details.Available = available
	return pkgerrors.New(pkgerrors.CodeStock,
		fmt.Sprintf("insufficient stock for product %d: requested %d, available %d", req.key.productID, req.qty, available)).
		WithDetails(details)
}

// buildItems snapshots unit prices from the products loaded inside the same
// transaction. Original line granularity is preserved even when stock was
// aggregated.
func buildItems(lines []OrderLineInput, products map[uint64]models.Product) ([]models.OrderItem, decimal.Decimal) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, line := range lines {
		product := products[line.ProductID]
		item := models.OrderItem{
			ProductID: line.ProductID,
			SizeID:    line.SizeID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		}
		total = total.Add(item.LineTotal())
		items = append(items, item)
	}
	return items, total
}

func validateInput(input PlaceOrderInput) error {
	fields := map[string]string{}

	if len(input.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, item := range input.Items {
		if item.ProductID == 0 {
			fields[fmt.Sprintf("items[%d].product_id", i)] = "product id is required"
		}
		if item.Quantity < 1 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be at least 1"
		}
		if item.SizeID != nil && *item.SizeID == 0 {
			fields[fmt.Sprintf("items[%d].size_id", i)] = "size id must be positive"
		}
	}

	if strings.TrimSpace(input.CustomerName) == "" {
		fields["customer_name"] = "customer name is required"
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		fields["customer_email"] = "customer email is required"
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		fields["customer_phone"] = "customer phone is required"
	}

	switch input.DeliveryMethod {
	case enums.DeliveryMethodDelivery:
		if input.DeliveryAddress == nil || strings.TrimSpace(*input.DeliveryAddress) == "" {
			fields["delivery_address"] = "delivery address is required for delivery orders"
		}
	case enums.DeliveryMethodPickup:
		if input.StoreID == nil || *input.StoreID == 0 {
			fields["store_id"] = "store is required for pickup orders"
		}
	default:
		fields["delivery_method"] = "delivery method must be pickup or delivery"
	}

	if input.Comment != nil && len(*input.Comment) > maxCommentLength {
		fields["comment"] = fmt.Sprintf("comment must be at most %d characters", maxCommentLength)
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order request").WithDetails(fields)
	}
	return nil
}

// GetOrder loads an order with its items and payment.
func (s *service) GetOrder(ctx context.Context, orderID uint64) (*models.Order, error) {
	if orderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %d not found", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}
