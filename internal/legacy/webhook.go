package legacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/config"
	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/observability"
	"github.com/choshma-zone/storefront/internal/pkg/breaker"
	"github.com/choshma-zone/storefront/internal/pkg/pool"
)

// Client talks to the legacy Apps-Script endpoint that appends order rows
// to a spreadsheet and sends the confirmation/OTP emails. Order dispatch is
// at-most-once and never retried: the spreadsheet is back-office
// bookkeeping redundancy, not customer-facing correctness, and the
// receiving end does not deduplicate.
type Client struct {
	url     string
	http    *http.Client
	breaker *breaker.Breaker
	pool    *pool.Pool
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewClient(cfg config.Legacy, brk *breaker.Breaker, p *pool.Pool, logger *zap.Logger, metrics observability.Metrics) *Client {
	return &Client{
		url:     cfg.WebhookURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: brk,
		pool:    p,
		logger:  logger,
		metrics: metrics,
	}
}

// Enabled reports whether an endpoint is configured at all.
func (c *Client) Enabled() bool { return c.url != "" }

// Close drains queued dispatches; for shutdown.
func (c *Client) Close() {
	c.pool.Close()
	c.pool.Wait()
}

type otpPayload struct {
	Action string `json:"action"`
	Email  string `json:"email"`
	OTP    string `json:"otp"`
}

// SendOTP triggers a one-time-code email. Unlike order sync this call is
// awaited: the caller's sign-in flow depends on the code going out.
func (c *Client) SendOTP(ctx context.Context, email, otp string) error {
	if !c.Enabled() {
		return fmt.Errorf("legacy webhook disabled")
	}
	return c.post(ctx, otpPayload{Action: "sendOTP", Email: email, OTP: otp})
}

// OrderRow is the fixed 16-column spreadsheet row the endpoint appends.
type OrderRow struct {
	Date               string  `json:"date"`
	Time               string  `json:"time"`
	Timestamp          string  `json:"timestamp"`
	OrderID            string  `json:"orderId"`
	CustomerName       string  `json:"customerName"`
	Email              string  `json:"email"`
	Phone              string  `json:"phone"`
	Address            string  `json:"address"`
	City               string  `json:"city"`
	Zip                string  `json:"zip"`
	PaymentMethod      string  `json:"paymentMethod"`
	PaymentDescription string  `json:"paymentDescription"`
	BkashNumber        string  `json:"bkashNumber"`
	TrxID              string  `json:"trxId"`
	ItemSummary        string  `json:"itemSummary"`
	Total              float64 `json:"total"`
}

// DispatchOrder queues a non-blocking, best-effort delivery of the order
// row. The caller never learns the outcome; failures are logged and
// counted only. A breaker stops hammering a dead endpoint, and a rejected
// dispatch is a logged drop, never a retry.
func (c *Client) DispatchOrder(o *domain.Order) {
	if !c.Enabled() {
		c.logger.Info("legacy webhook disabled, skipping order sync",
			zap.String("order_uid", o.OrderUID))
		return
	}

	row := BuildOrderRow(o)
	c.pool.Submit(func() {
		if err := c.breaker.Allow(); err != nil {
			c.logger.Warn("legacy sync dropped, breaker open",
				zap.String("order_uid", row.OrderID))
			c.metrics.ObserveWebhook(0, false)
			return
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
		defer cancel()

		err := c.post(ctx, row)
		durMs := float64(time.Since(start).Microseconds()) / 1000.0
		if err != nil {
			c.breaker.Failure()
			c.metrics.ObserveWebhook(durMs, false)
			c.logger.Warn("legacy sync failed",
				zap.String("order_uid", row.OrderID),
				zap.Error(err),
			)
			return
		}
		c.breaker.Success()
		c.metrics.ObserveWebhook(durMs, true)
		c.logger.Info("legacy sync delivered",
			zap.String("order_uid", row.OrderID),
			zap.Float64("dur_ms", durMs),
		)
	})
}

// post sends the payload and discards the response body; the endpoint's
// answer carries no information the storefront acts on.
func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("legacy webhook status %d", resp.StatusCode)
	}
	return nil
}

// BuildOrderRow denormalizes an order into the human-readable row the
// spreadsheet expects.
func BuildOrderRow(o *domain.Order) OrderRow {
	ts := o.DateCreated
	return OrderRow{
		Date:               ts.Format("02/01/2006"),
		Time:               ts.Format("3:04:05 PM"),
		Timestamp:          ts.Format(time.RFC3339),
		OrderID:            o.OrderUID,
		CustomerName:       o.CustomerName,
		Email:              o.Email,
		Phone:              o.Phone,
		Address:            o.Address,
		City:               o.City,
		Zip:                o.Zip,
		PaymentMethod:      paymentDisplay(o.Payment.Method),
		PaymentDescription: o.Payment.Description,
		BkashNumber:        maskNumber(o.Payment.BkashNumber),
		TrxID:              o.Payment.TrxID,
		ItemSummary:        itemSummary(o.Items),
		Total:              o.Total,
	}
}

func paymentDisplay(method string) string {
	switch method {
	case domain.PaymentCOD:
		return "Cash on Delivery"
	case domain.PaymentBkash:
		return "bKash"
	default:
		return method
	}
}

// maskNumber keeps the last four digits visible.
func maskNumber(s string) string {
	if len(s) <= 4 {
		return s
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func itemSummary(items []domain.OrderItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", it.Title, it.Quantity))
	}
	return strings.Join(parts, ", ")
}
