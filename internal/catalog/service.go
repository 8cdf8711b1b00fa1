package catalog

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/choshma-zone/storefront/internal/domain"
	"github.com/choshma-zone/storefront/internal/observability"
)

//go:generate mockgen -source internal/catalog/service.go -destination=internal/catalog/service_mock_test.go -package=catalog

const (
	// Every catalog cache key shares this prefix so one product write can
	// invalidate all views of the collection at once.
	keyPrefix = "products_"

	keyActive = "products_active"
	keyAll    = "products_all"
	keyByID   = "products_id_"
)

type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	InvalidatePrefix(prefix string)
}

type Storage interface {
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	Upsert(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// Service is the catalog read path: a TTL cache in front of the product
// store, with a single invalidation point for writes.
type Service struct {
	cache   Cache
	storage Storage
	ttl     time.Duration
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewService(cache Cache, storage Storage, ttl time.Duration, logger *zap.Logger, metrics observability.Metrics) *Service {
	return &Service{
		cache:   cache,
		storage: storage,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	ps, _, err := s.ListWithStats(ctx, activeOnly)
	return ps, err
}

func (s *Service) ListWithStats(ctx context.Context, activeOnly bool) ([]domain.Product, LookupStats, error) {
	var st LookupStats

	key := keyAll
	if activeOnly {
		key = keyActive
	}

	tCacheStart := time.Now()
	if v, ok := s.cache.Get(key); ok {
		if products, ok := v.([]domain.Product); ok {
			st.Source = SourceCache
			st.CacheMs = convertToMs(tCacheStart)
			s.metrics.IncCacheHit()
			s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)
			return products, st, nil
		}
	}

	s.metrics.IncCacheMiss()
	st.CacheMs = convertToMs(tCacheStart)

	tDbStart := time.Now()
	products, err := s.storage.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error("can't list products",
			zap.Bool("active_only", activeOnly),
			zap.Error(err),
		)
		return nil, st, err
	}

	st.Source = SourceDB
	st.DBMs = convertToMs(tDbStart)

	s.cache.Set(key, products, s.ttl)

	s.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.DBMs)
	s.logger.Info("products fetched from DB",
		zap.Bool("active_only", activeOnly),
		zap.Int("count", len(products)),
		zap.Float64("db_ms", st.DBMs),
	)

	return products, st, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	p, _, err := s.GetByIDWithStats(ctx, id)
	return p, err
}

func (s *Service) GetByIDWithStats(ctx context.Context, id string) (*domain.Product, LookupStats, error) {
	var st LookupStats

	key := keyByID + id

	tCacheStart := time.Now()
	if v, ok := s.cache.Get(key); ok {
		if p, ok := v.(*domain.Product); ok {
			st.Source = SourceCache
			st.CacheMs = convertToMs(tCacheStart)
			s.metrics.IncCacheHit()
			s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)
			return p, st, nil
		}
	}

	s.metrics.IncCacheMiss()
	st.CacheMs = convertToMs(tCacheStart)

	tDbStart := time.Now()
	p, err := s.storage.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("can't find product",
			zap.String("product_id", id),
			zap.Error(err),
		)
		return nil, st, err
	}

	st.Source = SourceDB
	st.DBMs = convertToMs(tDbStart)

	s.cache.Set(key, p, s.ttl)
	s.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.DBMs)

	return p, st, nil
}

// Upsert writes the product and drops every catalog cache key: a single
// product write may change any cached view of the collection.
func (s *Service) Upsert(ctx context.Context, p *domain.Product) error {
	if err := s.storage.Upsert(ctx, p); err != nil {
		s.logger.Error("product upsert failed",
			zap.String("product_id", p.ID),
			zap.Error(err),
		)
		return err
	}
	s.cache.InvalidatePrefix(keyPrefix)
	s.logger.Info("product upserted", zap.String("product_id", p.ID))
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		s.logger.Error("product delete failed",
			zap.String("product_id", id),
			zap.Error(err),
		)
		return err
	}
	s.cache.InvalidatePrefix(keyPrefix)
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}
