package checkout

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/config"
	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/observability"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
)

type OrderWriter interface {
	Create(ctx context.Context, order *domain.Order) error
}

// Dispatcher is the best-effort side channel; it never reports back.
type Dispatcher interface {
	DispatchOrder(o *domain.Order)
}

type CartView interface {
	Lines() []domain.CartLine
	Clear()
}

// Info is the customer/shipping snapshot captured from the checkout form.
type Info struct {
	CustomerName string
	Email        string
	Phone        string
	Address      string
	City         string
	Zip          string
	Region       string
	Payment      domain.Payment
}

// Orchestrator turns a cart into a durable order. The authoritative write
// goes first; the legacy sync and the email it triggers are fired after and
// never block, retry, or roll anything back. The cart is cleared only once
// the write has succeeded.
type Orchestrator struct {
	orders  OrderWriter
	legacy  Dispatcher
	charges config.Delivery
	logger  *zap.Logger
	metrics observability.Metrics
	now     func() time.Time
	newUID  func() string
}

func NewOrchestrator(orders OrderWriter, legacy Dispatcher, charges config.Delivery, logger *zap.Logger, metrics observability.Metrics) *Orchestrator {
	return &Orchestrator{
		orders:  orders,
		legacy:  legacy,
		charges: charges,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		newUID:  uuid.NewString,
	}
}

// Place runs the checkout sequence for one cart. On success the returned
// order is authoritative regardless of what the side channels do with it.
func (o *Orchestrator) Place(ctx context.Context, cart CartView, userID string, info Info) (*domain.Order, error) {
	lines := cart.Lines()
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if err := validate(info); err != nil {
		return nil, err
	}

	order := o.build(lines, userID, info)

	t0 := time.Now()
	if err := o.orders.Create(ctx, order); err != nil {
		o.metrics.ObserveCheckout(0, false)
		o.logger.Error("order write failed, cart kept",
			zap.String("order_uid", order.OrderUID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("place order: %w", err)
	}
	dbWriteMs := float64(time.Since(t0).Microseconds()) / 1000.0
	o.metrics.ObserveCheckout(dbWriteMs, true)

	// Best-effort fan-out: spreadsheet row plus the confirmation email the
	// endpoint sends on receipt. Outcome is logged inside the dispatcher.
	o.legacy.DispatchOrder(order)

	cart.Clear()

	o.logger.Info("order placed",
		zap.String("order_uid", order.OrderUID),
		zap.Float64("total", order.Total),
		zap.Float64("db_write_ms", dbWriteMs),
		zap.Int("items", len(order.Items)),
	)
	return order, nil
}

func (o *Orchestrator) build(lines []domain.CartLine, userID string, info Info) *domain.Order {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Title:     l.Title,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	order := &domain.Order{
		OrderUID:     o.newUID(),
		UserID:       userID,
		CustomerName: info.CustomerName,
		Email:        info.Email,
		Phone:        info.Phone,
		Address:      info.Address,
		City:         info.City,
		Zip:          info.Zip,
		Region:       info.Region,
		Payment:      info.Payment,
		Items:        items,
		DeliveryCost: o.DeliveryCharge(info.Region),
		Status:       domain.StatusPending,
		DateCreated:  o.now().UTC(),
	}
	order.Total = Round2(order.ItemsTotal() + order.DeliveryCost)
	return order
}

// DeliveryCharge is the two-tier flat-rate lookup: the primary metro region
// gets the discounted rate, everywhere else pays the higher one.
func (o *Orchestrator) DeliveryCharge(region string) float64 {
	if strings.EqualFold(strings.TrimSpace(region), o.charges.PrimaryRegion) {
		return o.charges.PrimaryCharge
	}
	return o.charges.OtherCharge
}

func validate(info Info) error {
	switch {
	case strings.TrimSpace(info.CustomerName) == "":
		return errors.New("customer name is required")
	case strings.TrimSpace(info.Phone) == "":
		return errors.New("phone is required")
	case strings.TrimSpace(info.Address) == "":
		return errors.New("address is required")
	case strings.TrimSpace(info.Region) == "":
		return errors.New("region is required")
	}
	if info.Payment.Method == domain.PaymentBkash {
		if info.Payment.BkashNumber == "" || info.Payment.TrxID == "" {
			return errors.New("bkash number and trx id are required")
		}
	}
	return nil
}

// Round2 rounds to two decimal currency display places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
