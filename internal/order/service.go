package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoply-be/internal/cart"
	"shoply-be/internal/db"
	"shoply-be/internal/events"
	"shoply-be/internal/logger"
	"shoply-be/internal/metrics"
	"shoply-be/internal/product"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultTxTimeout      = 5 * time.Second
	defaultPublishTimeout = 3 * time.Second
)

type CartStore interface {
	GetLines(ctx context.Context, q db.Querier, userID uint) ([]cart.CartLine, error)
	DeleteAll(ctx context.Context, q db.Querier, userID uint) error
}

type ProductCatalog interface {
	GetByID(ctx context.Context, id uint) (*product.Product, error)
	ConditionalDecrement(ctx context.Context, q db.Querier, productID uint, amount int) (bool, error)
}

type Service interface {
	PlaceOrder(ctx context.Context, userID uint, input PlaceOrderInput) (*PlaceOrderResult, error)
	List(ctx context.Context, userID uint) ([]Order, error)
	Get(ctx context.Context, userID, orderID uint) (*Order, error)
	UpdateStatus(ctx context.Context, userID, orderID uint, status Status) error
}

type Options struct {
	// TxTimeout bounds the whole checkout, including waiting for a pooled
	// connection and for row locks. Zero means DefaultTxTimeout.
	TxTimeout time.Duration
	Publisher events.Publisher
	Stats     *metrics.CheckoutStats
}

type service struct {
	repo      Repository
	carts     CartStore
	products  ProductCatalog
	tx        db.TxRunner
	publisher events.Publisher
	stats     *metrics.CheckoutStats
	txTimeout time.Duration
	now       func() time.Time
}

func NewService(repo Repository, carts CartStore, products ProductCatalog, tx db.TxRunner, opts Options) Service {
	s := &service{
		repo:      repo,
		carts:     carts,
		products:  products,
		tx:        tx,
		publisher: opts.Publisher,
		stats:     opts.Stats,
		txTimeout: opts.TxTimeout,
		now:       time.Now,
	}
	if s.publisher == nil {
		s.publisher = events.NoopPublisher{}
	}
	if s.stats == nil {
		s.stats = metrics.NewCheckoutStats()
	}
	if s.txTimeout <= 0 {
		s.txTimeout = DefaultTxTimeout
	}
	return s
}

// PlaceOrder converts the user's cart into a pending order. The order, its
// items, the stock decrements and the cart clear commit together or not at
// all. Once started, the checkout is not aborted by the caller going away; it
// runs against its own timeout instead.
func (s *service) PlaceOrder(ctx context.Context, userID uint, input PlaceOrderInput) (*PlaceOrderResult, error) {
	timer := metrics.StartTimer()
	defer s.stats.ObserveLatency(timer)

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "PlaceOrder"),
		zap.Uint("user_id", userID),
	)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.txTimeout)
	defer cancel()

	lines, err := s.carts.GetLines(ctx, nil, userID)
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}
	if len(lines) == 0 {
		s.stats.EmptyCart.Inc()
		log.Info("checkout rejected, cart is empty")
		return nil, ErrEmptyCart
	}

	items := make([]OrderItem, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		items = append(items, OrderItem{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
		total = total.Add(l.Subtotal())
	}

	o := &Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: normalizeAddress(input.ShippingAddress),
	}

	err = s.tx.WithTx(ctx, func(q db.Querier) error {
		if err := s.repo.InsertOrder(ctx, q, o); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, q, o.ID, items); err != nil {
			return err
		}

		var short []uint
		for _, it := range items {
			ok, err := s.products.ConditionalDecrement(ctx, q, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				short = append(short, it.ProductID)
			}
		}
		if len(short) > 0 {
			return &StockError{ProductIDs: short}
		}

		return s.carts.DeleteAll(ctx, q, userID)
	})
	if err != nil {
		return nil, s.fail(ctx, log, err)
	}

	s.stats.Placed.Inc()
	log.Info("order placed",
		zap.Uint("order_id", o.ID),
		zap.String("total_amount", total.StringFixed(2)),
		zap.Int("items", len(items)),
	)

	s.publishPlaced(ctx, o, items)

	return &PlaceOrderResult{OrderID: o.ID, TotalAmount: total, CreatedAt: o.CreatedAt}, nil
}

// fail classifies a checkout error, counts it and logs it once.
func (s *service) fail(ctx context.Context, log *zap.Logger, err error) error {
	classified := classify(ctx, err)

	var stockErr *StockError
	switch {
	case errors.As(classified, &stockErr):
		s.stats.StockConflicts.Inc()
		log.Warn("checkout rejected, insufficient stock", zap.Uints("product_ids", stockErr.ProductIDs))
	case errors.Is(classified, ErrInsufficientStock):
		s.stats.StockConflicts.Inc()
		log.Warn("checkout rejected by stock constraint", zap.Error(err))
	case errors.Is(classified, ErrCheckoutBusy):
		s.stats.Busy.Inc()
		log.Warn("checkout aborted, storage busy", zap.Error(err))
	default:
		s.stats.StorageFaults.Inc()
		log.Error("checkout failed", zap.Error(err))
	}

	return classified
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrEmptyCart) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrCheckoutBusy, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case PgLockNotAvailable, PgSerializationFailure, PgDeadlockDetected, PgQueryCanceled:
			return fmt.Errorf("%w: %w", ErrCheckoutBusy, err)
		case PgCheckViolation:
			return fmt.Errorf("%w: %w", ErrInsufficientStock, err)
		}
	}

	return fmt.Errorf("%w: %w", ErrStorageFault, err)
}

func (s *service) publishPlaced(ctx context.Context, o *Order, items []OrderItem) {
	evt := events.OrderPlaced{
		EventID:     uuid.NewString(),
		Type:        events.TypeOrderPlaced,
		OrderID:     o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount,
		Items:       make([]events.OrderPlacedItem, 0, len(items)),
		Status:      string(o.Status),
		Timestamp:   s.now().UTC(),
		RequestID:   logger.RequestIDFrom(ctx),
	}
	for _, it := range items {
		evt.Items = append(evt.Items, events.OrderPlacedItem{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}

	// The checkout deadline may already be spent; the event gets its own.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	if err := s.publisher.PublishOrderPlaced(pubCtx, evt); err != nil {
		s.stats.PublishFailed.Inc()
		logger.FromCtx(ctx).Error("failed to publish order event",
			zap.String("layer", "service"),
			zap.Uint("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (s *service) List(ctx context.Context, userID uint) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) Get(ctx context.Context, userID, orderID uint) (*Order, error) {
	return s.repo.GetDetail(ctx, orderID, userID)
}

func (s *service) UpdateStatus(ctx context.Context, userID, orderID uint, status Status) error {
	if !status.IsValid() {
		return ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, orderID, userID, status); err != nil {
		return err
	}

	logger.FromCtx(ctx).Info("order status updated",
		zap.String("layer", "service"),
		zap.Uint("order_id", orderID),
		zap.String("status", string(status)),
	)
	return nil
}

func normalizeAddress(addr *string) *string {
	if addr == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*addr)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
