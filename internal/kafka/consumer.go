package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/config"
)

type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

func NewReader(cfg config.Kafka) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.Group,
		Topic:    cfg.Topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
}

// Consumer fetches messages one at a time, hands them to a worker pool, and
// commits offsets strictly in fetch order: an offset is committed only
// after its message was handled, so a crash never skips unprocessed input.
type Consumer struct {
	handler MessageHandler
	reader  Reader
	logger  *zap.Logger

	workers int
	jobs    chan jobItem
}

type jobItem struct {
	msg    kafkago.Message
	result chan error
}

func NewConsumer(handler MessageHandler, reader Reader, workers int, logger *zap.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		handler: handler,
		reader:  reader,
		logger:  logger,
		workers: workers,
		jobs:    make(chan jobItem, workers*2),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	rc := c.reader.Config()
	c.logger.Info("starting catalog ingest consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
	)

	for i := 0; i < c.workers; i++ {
		go c.worker(ctx)
	}

	// Fetch loop: each message is sent to the workers and its result
	// awaited before the commit, keeping commits in fetch order.
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if isBenignFetchTimeout(err) {
				c.logger.Debug("fetch timeout (idle), backing off", zap.Error(err))
				sleepWithContext(ctx, 10*time.Second)
				continue
			}
			// Temporary errors during rebalancing: wait and continue.
			c.logger.Warn("fetch error, backing off", zap.Error(err))
			sleepWithContext(ctx, 500*time.Millisecond)
			continue
		}

		done := make(chan error, 1)
		select {
		case c.jobs <- jobItem{msg: msg, result: done}:
		case <-ctx.Done():
			return
		}

		var procErr error
		select {
		case procErr = <-done:
		case <-ctx.Done():
			return
		}

		if procErr != nil {
			c.logger.Error("handler failed; message will not be committed",
				zap.Error(procErr),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			sleepWithContext(ctx, 200*time.Millisecond)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("commit failed",
				zap.Error(err),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			sleepWithContext(ctx, 200*time.Millisecond)
			continue
		}
	}
}

func (c *Consumer) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-c.jobs:
			if it.result == nil {
				continue
			}

			msg := it.msg
			start := time.Now()
			err := c.handler.Handle(ctx, msg)
			elapsed := time.Since(start)

			if err != nil {
				c.logger.Error("message handling failed",
					zap.Error(err),
					zap.String("topic", msg.Topic),
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Duration("elapsed", elapsed),
				)
				it.result <- err
				continue
			}

			c.logger.Debug("message handled",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Int("value_bytes", len(msg.Value)),
				zap.Duration("elapsed", elapsed),
			)
			it.result <- nil
		}
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isBenignFetchTimeout(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Request Timed Out") ||
		strings.Contains(s, "no messages received from kafka within the allocated time")
}
