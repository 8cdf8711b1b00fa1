package cart

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/domain"
)

// Cart is the device-local system of record for cart lines: it is never
// synced to the remote store, only snapshotted into an order at checkout.
// Every mutation is persisted to a JSON file; a corrupt or missing file
// loads as an empty cart and persistence failures are logged, never fatal.
type Cart struct {
	mu     sync.Mutex
	path   string
	logger *zap.Logger
	lines  []domain.CartLine
}

// Load reads the persisted cart at path. Unreadable or malformed state is
// treated as absent.
func Load(path string, logger *zap.Logger) *Cart {
	c := &Cart{path: path, logger: logger}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cart file unreadable, starting empty",
				zap.String("path", path),
				zap.Error(err),
			)
		}
		return c
	}
	if err := json.Unmarshal(data, &c.lines); err != nil {
		logger.Warn("cart file corrupt, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		c.lines = nil
	}
	c.dropInvalid()
	return c
}

// Lines returns a copy of the current cart lines.
func (c *Cart) Lines() []domain.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Add merges the line into the cart: a product already present gets its
// quantity increased, otherwise the line is appended with its denormalized
// display fields captured as-is.
func (c *Cart) Add(line domain.CartLine) {
	if line.Quantity < 1 {
		line.Quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID == line.ProductID {
			c.lines[i].Quantity += line.Quantity
			c.persistLocked()
			return
		}
	}
	c.lines = append(c.lines, line)
	c.persistLocked()
}

// SetQuantity updates a line's quantity; qty <= 0 removes the line, a
// non-positive quantity is never persisted.
func (c *Cart) SetQuantity(productID string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.lines {
		if c.lines[i].ProductID != productID {
			continue
		}
		if qty <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = qty
		}
		c.persistLocked()
		return
	}
}

func (c *Cart) Remove(productID string) {
	c.SetQuantity(productID, 0)
}

// Clear empties the cart. Checkout calls this only after the authoritative
// order write has succeeded.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.persistLocked()
}

func (c *Cart) ItemsTotal() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum float64
	for _, l := range c.lines {
		sum += l.Subtotal()
	}
	return sum
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) dropInvalid() {
	kept := c.lines[:0]
	for _, l := range c.lines {
		if l.ProductID != "" && l.Quantity >= 1 {
			kept = append(kept, l)
		}
	}
	c.lines = kept
}

func (c *Cart) persistLocked() {
	if c.path == "" {
		return
	}
	data, err := json.Marshal(c.lines)
	if err != nil {
		c.logger.Warn("cart marshal failed", zap.Error(err))
		return
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		c.logger.Warn("cart persist failed",
			zap.String("path", c.path),
			zap.Error(err),
		)
		return
	}
	if err := os.Rename(tmp, c.path); err != nil {
		c.logger.Warn("cart persist rename failed",
			zap.String("path", c.path),
			zap.Error(err),
		)
	}
}

// Manager maps device identifiers to their carts, one JSON file per device.
type Manager struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
	byID   map[string]*Cart
}

func NewManager(dir string, logger *zap.Logger) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Manager{
		dir:    dir,
		logger: logger,
		byID:   make(map[string]*Cart),
	}, nil
}

// ForDevice returns the cart for a device id, loading it from disk on
// first access. The id is flattened to a safe file name.
func (m *Manager) ForDevice(deviceID string) *Cart {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.byID[deviceID]; ok {
		return c
	}
	path := filepath.Join(m.dir, filepath.Base(deviceID)+".json")
	c := Load(path, m.logger)
	m.byID[deviceID] = c
	return c
}
