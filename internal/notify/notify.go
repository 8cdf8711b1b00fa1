package notify

import (
	"sync"

	"go.uber.org/zap"
)

// Notifier receives user-facing, toast-style notices. Mutation failures are
// reported here instead of failing the session.
type Notifier interface {
	Info(msg string)
	Error(msg string)
}

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notice struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Collector buffers notices until the next Drain, so an HTTP response can
// carry everything raised while handling the request.
type Collector struct {
	mu      sync.Mutex
	pending []Notice
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Info(msg string) { c.push(Notice{Level: LevelInfo, Text: msg}) }

func (c *Collector) Error(msg string) { c.push(Notice{Level: LevelError, Text: msg}) }

func (c *Collector) push(n Notice) {
	c.mu.Lock()
	c.pending = append(c.pending, n)
	c.mu.Unlock()
}

func (c *Collector) Drain() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// ZapNotifier routes notices to the log, for contexts with no user to show
// them to.
type ZapNotifier struct {
	Logger *zap.Logger
}

func (z ZapNotifier) Info(msg string) { z.Logger.Info(msg) }

func (z ZapNotifier) Error(msg string) { z.Logger.Warn(msg) }
