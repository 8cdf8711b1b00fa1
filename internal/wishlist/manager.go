package wishlist

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/notify"
)

// Manager hands out one coordinator per signed-in user. Coordinators are
// created lazily and hold the session's local wishlist state for the life
// of the process.
type Manager struct {
	mu     sync.Mutex
	remote Remote
	logger *zap.Logger
	byUser map[string]*Session
}

// Session pairs a user's coordinator with the notice collector its
// user-facing messages drain through.
type Session struct {
	Coordinator *Coordinator
	Notices     *notify.Collector
}

func NewManager(remote Remote, logger *zap.Logger) *Manager {
	return &Manager{
		remote: remote,
		logger: logger,
		byUser: make(map[string]*Session),
	}
}

// ForUser returns the user's session, loading the remote collection on
// first access. A load failure is non-fatal: the coordinator starts empty
// and converges on the next successful mutation or refetch.
func (m *Manager) ForUser(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.byUser[userID]; ok {
		return s
	}

	collector := notify.NewCollector()
	c := NewCoordinator(m.remote, collector, m.logger, userID)
	if err := c.Load(ctx); err != nil {
		m.logger.Warn("initial wishlist load failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	s := &Session{Coordinator: c, Notices: collector}
	m.byUser[userID] = s
	return s
}

// Drop forgets a user's session state, e.g. on sign-out.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	delete(m.byUser, userID)
	m.mu.Unlock()
}
