package payments

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/olimpiec/shop-backend/pkg/config"
	"github.com/olimpiec/shop-backend/pkg/db/models"
	"github.com/olimpiec/shop-backend/pkg/enums"
	pkgerrors "github.com/olimpiec/shop-backend/pkg/errors"
	"github.com/olimpiec/shop-backend/pkg/logger"
	"github.com/olimpiec/shop-backend/pkg/metrics"
	"github.com/olimpiec/shop-backend/pkg/yookassa"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DuplicateGuard suppresses redundant processing of replayed webhook events.
// The conditional order update stays the source of truth either way. A claim
// is released with Del when processing fails, so the gateway's redelivery
// still gets through.
type DuplicateGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookKey(eventID string) string
}

// Service defines the payment reconciliation surface.
type Service interface {
	CreateSession(ctx context.Context, orderID uint64) (*SessionResult, error)
	HandleWebhook(ctx context.Context, notification WebhookNotification) error
	CheckStatus(ctx context.Context, orderID uint64) (*StatusResult, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	gateway  Gateway
	guard    DuplicateGuard
	cfg      config.YooKassaConfig
	frontend config.FrontendConfig
	logger   *logger.Logger
	metrics  *metrics.StoreMetrics
}

const webhookGuardTTL = 24 * time.Hour

var errPaidDuringSession = errors.New("order paid during session creation")

// NewService builds a payment service with the required dependencies. The
// guard is optional.
func NewService(
	repo Repository,
	tx txRunner,
	gateway Gateway,
	guard DuplicateGuard,
	cfg config.YooKassaConfig,
	frontend config.FrontendConfig,
	logg *logger.Logger,
	m *metrics.StoreMetrics,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		gateway:  gateway,
		guard:    guard,
		cfg:      cfg,
		frontend: frontend,
		logger:   logg,
		metrics:  m,
	}, nil
}

// CreateSession registers a gateway payment for the order and stores the
// pending Payment row. The amount always comes from the stored order total,
// never from the client.
func (s *service) CreateSession(ctx context.Context, orderID uint64) (*SessionResult, error) {
	if orderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() || (order.Payment != nil && order.Payment.Status == enums.PaymentStatusCompleted) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order %d is already paid", orderID))
	}

	req := yookassa.CreatePaymentRequest{
		Amount:  s.gateway.NewAmount(order.TotalAmount),
		Capture: true,
		Confirmation: yookassa.Confirmation{
			Type:      "redirect",
			ReturnURL: s.frontend.PaymentReturnURL(order.ID),
		},
		Description: fmt.Sprintf("Order %s", order.OrderNumber),
		Metadata:    map[string]string{"order_id": strconv.FormatUint(order.ID, 10)},
	}

	callCtx, cancel := context.WithTimeout(ctx, s.createTimeout())
	defer cancel()

	gatewayPayment, err := s.gateway.CreatePayment(callCtx, req, s.gateway.NewIdempotenceKey())
	if err != nil {
		s.metrics.IncGatewayRequest("create_payment", "failure")
		return nil, err
	}
	s.metrics.IncGatewayRequest("create_payment", "success")

	transactionID := gatewayPayment.ID
	payment := &models.Payment{
		OrderID:       order.ID,
		Method:        enums.PaymentMethodOnline,
		Status:        enums.PaymentStatusPending,
		Amount:        order.TotalAmount,
		TransactionID: &transactionID,
	}
	// The order can turn paid between the entry check and this point, for
	// example when the webhook for a previous session lands during the
	// gateway call. The transition must never be undone, so the state is
	// re-checked inside the transaction and the upsert refuses to touch a
	// completed payment.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindOrderByID(ctx, order.ID)
		if err != nil {
			return err
		}
		if current.IsPaid() || (current.Payment != nil && current.Payment.Status == enums.PaymentStatusCompleted) {
			return errPaidDuringSession
		}

		applied, err := repo.UpsertPaymentSession(ctx, payment)
		if err != nil {
			return err
		}
		if !applied {
			return errPaidDuringSession
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errPaidDuringSession) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("order %d was paid while the session was being created", order.ID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storing payment")
	}

	result := &SessionResult{
		OrderID:   order.ID,
		PaymentID: gatewayPayment.ID,
	}
	if gatewayPayment.Confirmation != nil {
		result.ConfirmationURL = gatewayPayment.Confirmation.ConfirmationURL
	}

	if s.logger != nil {
		ctx = s.logger.WithOrderID(ctx, order.ID)
		s.logger.Info(ctx, fmt.Sprintf("payment session %s created", gatewayPayment.ID))
	}
	return result, nil
}

// HandleWebhook processes a gateway notification. Every outcome except a
// malformed payload is acknowledged; unknown orders and replays are logged
// and dropped so the gateway stops retrying.
func (s *service) HandleWebhook(ctx context.Context, notification WebhookNotification) error {
	if notification.Event != EventPaymentSucceeded {
		return nil
	}

	object := notification.Object
	rawOrderID := object.Metadata["order_id"]
	orderID, err := strconv.ParseUint(rawOrderID, 10, 64)
	if err != nil || orderID == 0 {
		s.warn(ctx, fmt.Sprintf("webhook %s without usable order id %q", object.ID, rawOrderID))
		return nil
	}

	var claimed bool
	var guardKey string
	if s.guard != nil && object.ID != "" {
		guardKey = s.guard.WebhookKey(object.ID)
		fresh, guardErr := s.guard.SetNX(ctx, guardKey, 1, webhookGuardTTL)
		if guardErr == nil {
			if !fresh {
				return nil
			}
			claimed = true
		}
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		var coded *pkgerrors.Error
		if errors.As(err, &coded) && coded.Code() == pkgerrors.CodeNotFound {
			s.warn(ctx, fmt.Sprintf("webhook %s references unknown order %d", object.ID, orderID))
			return nil
		}
		s.releaseGuard(ctx, claimed, guardKey)
		return err
	}

	if object.Amount.Value != "" {
		reported, parseErr := decimal.NewFromString(object.Amount.Value)
		if parseErr != nil || !reported.Equal(order.TotalAmount) {
			s.metrics.IncAmountMismatch()
			s.warn(ctx, fmt.Sprintf(
				"webhook %s amount %q does not match order %d total %s, ignoring",
				object.ID, object.Amount.Value, orderID, order.TotalAmount.StringFixed(2),
			))
			return nil
		}
	}

	transactionID := object.ID
	if err := s.markPaid(ctx, order, &transactionID); err != nil {
		// the controller acks regardless, so a claimed key would swallow
		// the gateway's redelivery of an event that never landed
		s.releaseGuard(ctx, claimed, guardKey)
		return err
	}
	return nil
}

// releaseGuard frees a claimed webhook key after a processing failure.
func (s *service) releaseGuard(ctx context.Context, claimed bool, key string) {
	if !claimed {
		return
	}
	if err := s.guard.Del(ctx, key); err != nil {
		s.warn(ctx, fmt.Sprintf("failed to release webhook guard %s", key))
	}
}

// CheckStatus reports the reconciled state, polling the gateway only when the
// order is still unpaid and a session exists.
func (s *service) CheckStatus(ctx context.Context, orderID uint64) (*StatusResult, error) {
	if orderID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsPaid() {
		return statusOf(order), nil
	}

	if order.Payment == nil || order.Payment.TransactionID == nil || *order.Payment.TransactionID == "" {
		return statusOf(order), nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.pollTimeout())
	defer cancel()

	gatewayPayment, err := s.gateway.GetPayment(callCtx, *order.Payment.TransactionID)
	if err != nil {
		s.metrics.IncGatewayRequest("get_payment", "failure")
		return nil, err
	}
	s.metrics.IncGatewayRequest("get_payment", "success")

	if gatewayPayment.Status == yookassa.StatusSucceeded {
		transactionID := gatewayPayment.ID
		if err := s.markPaid(ctx, order, &transactionID); err != nil {
			return nil, err
		}
		order, err = s.loadOrder(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}
	return statusOf(order), nil
}

// markPaid is the single idempotent transition shared by the webhook and the
// poll path. The conditional order update and the payment upsert commit
// together, so the two records can never disagree.
func (s *service) markPaid(ctx context.Context, order *models.Order, transactionID *string) error {
	var transitioned bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		won, err := repo.MarkOrderPaid(ctx, order.ID)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		transitioned = true

		now := time.Now().UTC()
		payment := &models.Payment{
			OrderID:       order.ID,
			Method:        enums.PaymentMethodOnline,
			Status:        enums.PaymentStatusCompleted,
			Amount:        order.TotalAmount,
			TransactionID: transactionID,
			PaidAt:        &now,
		}
		return repo.UpsertPayment(ctx, payment)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "completing payment")
	}

	if transitioned {
		s.metrics.IncPaymentCompleted()
		if s.logger != nil {
			ctx = s.logger.WithOrderID(ctx, order.ID)
			s.logger.Info(ctx, fmt.Sprintf("order %s marked paid", order.OrderNumber))
		}
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID uint64) (*models.Order, error) {
	order, err := s.repo.FindOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("order %d not found", orderID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

func statusOf(order *models.Order) *StatusResult {
	result := &StatusResult{
		OrderStatus:   order.Status,
		PaymentStatus: enums.PaymentStatusPending,
		IsPaid:        order.IsPaid(),
	}
	if order.Payment != nil {
		result.PaymentStatus = order.Payment.Status
	}
	return result
}

func (s *service) warn(ctx context.Context, msg string) {
	if s.logger != nil {
		s.logger.Warn(ctx, msg)
	}
}

func (s *service) createTimeout() time.Duration {
	if s.cfg.CreateTimeout > 0 {
		return s.cfg.CreateTimeout
	}
	return 30 * time.Second
}

func (s *service) pollTimeout() time.Duration {
	if s.cfg.PollTimeout > 0 {
		return s.cfg.PollTimeout
	}
	return 10 * time.Second
}
