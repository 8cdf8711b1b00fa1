package breaker

import (
	"errors"
	"sync"
	"time"

	"github.com/choshma-zone/storefront/internal/config"
)

var ErrOpenState = errors.New("circuit breaker is open")

type State uint8

const (
	Closed State = iota
	Open
	HalfOpen
)

// Breaker is a simple failure-count circuit breaker: Threshold consecutive
// failures open it, after OpenTimeout it lets up to MaxHalfOpen probes
// through, one success closes it again.
type Breaker struct {
	mu           sync.Mutex
	cfg          config.Breaker
	state        State
	failCount    uint32
	lastOpenTime time.Time
	halfOpenReq  uint32
}

func New(cfg config.Breaker) *Breaker {
	return &Breaker{cfg: cfg, state: Closed}
}

func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return nil
	case Open:
		if time.Since(b.lastOpenTime) < b.cfg.OpenTimeout {
			return ErrOpenState
		}
		b.state = HalfOpen
		b.halfOpenReq = 1
		return nil
	default: // HalfOpen
		if b.halfOpenReq >= b.cfg.MaxHalfOpen {
			return ErrOpenState
		}
		b.halfOpenReq++
		return nil
	}
}

func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failCount = 0
	if b.state == HalfOpen {
		b.state = Closed
	}
}

func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failCount++
		if b.failCount >= b.cfg.Threshold {
			b.state = Open
			b.lastOpenTime = time.Now()
		}
	case HalfOpen:
		b.state = Open
		b.lastOpenTime = time.Now()
	}
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
