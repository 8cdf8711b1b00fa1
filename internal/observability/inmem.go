package observability

import "sync"

// Inmem keeps the last max observations in memory, enough for the debug
// endpoint and tests. Not a real metrics backend.
type Inmem struct {
	mu     sync.Mutex
	last   []any
	max    int
	totals struct {
		cacheHits, cacheMiss int
	}
}

func NewInmem(max int) *Inmem {
	return &Inmem{max: max}
}

func (m *Inmem) push(v any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[1:]
	}
}

func (m *Inmem) ObserveLookup(source string, cacheMs, dbMs float64) {
	m.push(struct {
		Kind          string
		Source        string
		CacheMs, DbMs float64
	}{"lookup", source, cacheMs, dbMs})
}

func (m *Inmem) ObserveCheckout(dbWriteMs float64, ok bool) {
	m.push(struct {
		Kind      string
		DbWriteMs float64
		OK        bool
	}{"checkout", dbWriteMs, ok})
}

func (m *Inmem) ObserveWebhook(durMs float64, ok bool) {
	m.push(struct {
		Kind string
		Dur  float64
		OK   bool
	}{"webhook", durMs, ok})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(struct {
		Kind          string
		Method, Route string
		Status        int
		Dur           float64
	}{"http", method, route, status, durMs})
}

func (m *Inmem) ObserveIngest(processMs float64, ok bool) {
	m.push(struct {
		Kind string
		Dur  float64
		OK   bool
	}{"ingest", processMs, ok})
}

func (m *Inmem) IncCacheHit() {
	m.mu.Lock()
	m.totals.cacheHits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss() {
	m.mu.Lock()
	m.totals.cacheMiss++
	m.mu.Unlock()
}

// CacheTotals returns accumulated hit/miss counters.
func (m *Inmem) CacheTotals() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totals.cacheHits, m.totals.cacheMiss
}

// Last returns a copy of the retained observations, oldest first.
func (m *Inmem) Last() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]any, len(m.last))
	copy(out, m.last)
	return out
}
