package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/config"
	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/observability"
	"github.com/choshma-zone/storefront/internal/pkg/retry"
)

//go:generate mockgen -source internal/ingest/handler.go -destination=internal/ingest/handler_mock_test.go -package=ingest

var (
	ErrBadJSON     = errors.New("bad json")
	ErrApply       = errors.New("apply failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// ProductEvent is one back-office catalog change on the wire.
type ProductEvent struct {
	Action  string          `json:"action"`
	Product *domain.Product `json:"product,omitempty"`
	ID      string          `json:"id,omitempty"`
}

type Catalog interface {
	Upsert(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

type brk interface {
	Allow() error
	Success()
	Failure()
}

type Handler struct {
	catalog     Catalog
	breaker     brk
	logger      *zap.Logger
	metrics     observability.Metrics
	retryPolicy config.Retry
}

func NewHandler(catalog Catalog, brk brk, retryPolicy config.Retry, logger *zap.Logger, metrics observability.Metrics) *Handler {
	return &Handler{
		catalog:     catalog,
		breaker:     brk,
		logger:      logger,
		metrics:     metrics,
		retryPolicy: retryPolicy,
	}
}

// Handle processes a single catalog event. The consumer commits the offset
// itself after Handle returns nil.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var event ProductEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		h.logger.Error("bad json format",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}
	if err := event.validate(); err != nil {
		h.logger.Error("invalid catalog event",
			zap.Error(err),
			zap.String("action", event.Action),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}

	start := time.Now()
	if err := retry.Do(ctx, h.retryPolicy, func() error {
		return h.apply(ctx, event)
	}); err != nil {
		h.metrics.ObserveIngest(msSince(start), false)
		h.logger.Error("catalog event failed after retries",
			zap.String("action", event.Action),
			zap.String("product_id", event.productID()),
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrApply
	}

	h.breaker.Success()
	h.metrics.ObserveIngest(msSince(start), true)
	h.logger.Info("catalog event applied",
		zap.String("action", event.Action),
		zap.String("product_id", event.productID()),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
		zap.Int("value_bytes", len(message.Value)),
	)
	return nil
}

func (h *Handler) apply(ctx context.Context, event ProductEvent) error {
	switch event.Action {
	case ActionUpsert:
		return h.catalog.Upsert(ctx, event.Product)
	case ActionDelete:
		return h.catalog.Delete(ctx, event.productID())
	}
	return fmt.Errorf("unknown action %q", event.Action)
}

func (e ProductEvent) validate() error {
	switch e.Action {
	case ActionUpsert:
		if e.Product == nil || e.Product.ID == "" {
			return errors.New("upsert without product id")
		}
	case ActionDelete:
		if e.productID() == "" {
			return errors.New("delete without product id")
		}
	default:
		return fmt.Errorf("unknown action %q", e.Action)
	}
	return nil
}

func (e ProductEvent) productID() string {
	if e.ID != "" {
		return e.ID
	}
	if e.Product != nil {
		return e.Product.ID
	}
	return ""
}

func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
