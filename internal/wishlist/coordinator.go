package wishlist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/notify"
)

//go:generate mockgen -source internal/wishlist/coordinator.go -destination=internal/wishlist/coordinator_mock_test.go -package=wishlist

const (
	signInPrompt = "sign in to save items to your wishlist"
	addFailed    = "couldn't save to wishlist, please try again"
	removeFailed = "couldn't remove from wishlist, please try again"
)

type Remote interface {
	ListByUser(ctx context.Context, userID string) ([]domain.WishlistEntry, error)
	Add(ctx context.Context, e *domain.WishlistEntry) error
	Remove(ctx context.Context, userID, productID string) error
}

// Coordinator keeps one user's wishlist visible and mutable without waiting
// on the store: mutations apply to the local collection first, the remote
// write runs under the same lock, and a failed write restores the
// pre-mutation snapshot. Holding the lock across the remote call serializes
// mutations per collection, so concurrent toggles can't clobber each
// other's snapshots.
type Coordinator struct {
	mu      sync.Mutex
	remote  Remote
	notify  notify.Notifier
	logger  *zap.Logger
	userID  string
	entries []domain.WishlistEntry
}

// NewCoordinator builds the coordinator for one user. An empty userID means
// an anonymous session: mutations become prompts instead of writes.
func NewCoordinator(remote Remote, n notify.Notifier, logger *zap.Logger, userID string) *Coordinator {
	return &Coordinator{
		remote: remote,
		notify: n,
		logger: logger,
		userID: userID,
	}
}

// Load replaces the local collection with the remote one.
func (c *Coordinator) Load(ctx context.Context) error {
	if c.userID == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Entries returns a copy of the local collection.
func (c *Coordinator) Entries() []domain.WishlistEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.WishlistEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Contains decides membership from the local snapshot; no network round
// trip is needed to pick a toggle direction.
func (c *Coordinator) Contains(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.containsLocked(productID)
}

// Toggle adds the product when absent and removes it when present.
func (c *Coordinator) Toggle(ctx context.Context, p domain.Product) error {
	if c.Contains(p.ID) {
		return c.Remove(ctx, p.ID)
	}
	return c.Add(ctx, p)
}

// Add makes the entry visible immediately under a placeholder identity and
// reconciles with the store. A duplicate report from the store is benign:
// the desired end state (item present) already holds, so the placeholder is
// rolled back silently and the authoritative entry fetched instead.
func (c *Coordinator) Add(ctx context.Context, p domain.Product) error {
	if c.userID == "" {
		c.notify.Info(signInPrompt)
		return domain.ErrNotSignedIn
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.containsLocked(p.ID) {
		return nil
	}

	snapshot := c.snapshotLocked()
	optimistic := domain.WishlistEntry{
		ID:        uuid.NewString(),
		UserID:    c.userID,
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		ImageURL:  p.ImageURL,
		CreatedAt: time.Now(),
	}
	c.entries = append(c.entries, optimistic)

	err := c.remote.Add(ctx, &optimistic)
	switch {
	case err == nil:
		// Confirmed; refetch swaps the placeholder for the store identity.
		if rerr := c.refreshLocked(ctx); rerr != nil {
			c.logger.Warn("wishlist refresh after add failed, keeping optimistic entry",
				zap.String("user_id", c.userID),
				zap.String("product_id", p.ID),
				zap.Error(rerr),
			)
		}
		return nil
	case errors.Is(err, domain.ErrDuplicateEntry):
		c.logger.Info("wishlist add converged on existing remote entry",
			zap.String("user_id", c.userID),
			zap.String("product_id", p.ID),
		)
		if rerr := c.refreshLocked(ctx); rerr != nil {
			// The optimistic entry already mirrors the remote truth, so
			// keeping it preserves exactly one entry for the product.
			c.logger.Warn("wishlist refresh after duplicate add failed",
				zap.String("user_id", c.userID),
				zap.Error(rerr),
			)
		}
		return nil
	default:
		c.entries = snapshot
		c.notify.Error(addFailed)
		c.logger.Error("wishlist add rolled back",
			zap.String("user_id", c.userID),
			zap.String("product_id", p.ID),
			zap.Error(err),
		)
		return err
	}
}

// Remove drops the entry locally, then issues the remote delete scoped to
// (user, product). A remote not-found is benign convergence; any other
// failure restores the entry and surfaces a notice.
func (c *Coordinator) Remove(ctx context.Context, productID string) error {
	if c.userID == "" {
		c.notify.Info(signInPrompt)
		return domain.ErrNotSignedIn
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.containsLocked(productID) {
		return nil
	}

	snapshot := c.snapshotLocked()
	kept := c.entries[:0:0]
	for _, e := range c.entries {
		if e.ProductID != productID {
			kept = append(kept, e)
		}
	}
	c.entries = kept

	err := c.remote.Remove(ctx, c.userID, productID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		c.entries = snapshot
		c.notify.Error(removeFailed)
		c.logger.Error("wishlist remove rolled back",
			zap.String("user_id", c.userID),
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (c *Coordinator) containsLocked(productID string) bool {
	for _, e := range c.entries {
		if e.ProductID == productID {
			return true
		}
	}
	return false
}

func (c *Coordinator) snapshotLocked() []domain.WishlistEntry {
	s := make([]domain.WishlistEntry, len(c.entries))
	copy(s, c.entries)
	return s
}

func (c *Coordinator) refreshLocked(ctx context.Context) error {
	entries, err := c.remote.ListByUser(ctx, c.userID)
	if err != nil {
		return err
	}
	c.entries = entries
	return nil
}
