package observability

type Metrics interface {
	ObserveLookup(source string, cacheMs, dbMs float64)
	ObserveCheckout(dbWriteMs float64, ok bool)
	ObserveWebhook(durMs float64, ok bool)
	ObserveHTTP(method, route string, status int, durMs float64)
	ObserveIngest(processMs float64, ok bool)
	IncCacheHit()
	IncCacheMiss()
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, float64, float64)   {}
func (Noop) ObserveCheckout(float64, bool)            {}
func (Noop) ObserveWebhook(float64, bool)             {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) ObserveIngest(float64, bool)              {}
func (Noop) IncCacheHit()                             {}
func (Noop) IncCacheMiss()                            {}
