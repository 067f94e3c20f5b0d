package reference

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

// Source lists the reference rows held by the external store.
type Source interface {
	ListCommodities(ctx context.Context) ([]models.Commodity, error)
	ListMarkets(ctx context.Context, activeOnly bool) ([]models.Market, error)
}

// Provider hands out immutable reference snapshots.
type Provider interface {
	Load(ctx context.Context) (*Data, error)
}

// Invalidator is implemented by providers that hold a snapshot between calls.
type Invalidator interface {
	Invalidate()
}

// Data is an immutable id-indexed snapshot of commodities and markets.
type Data struct {
	commodities map[string]models.Commodity
	markets     map[string]models.Market
}

// NewData indexes the provided rows. Later duplicates win.
func NewData(commodities []models.Commodity, markets []models.Market) *Data {
	d := &Data{
		commodities: make(map[string]models.Commodity, len(commodities)),
		markets:     make(map[string]models.Market, len(markets)),
	}
	for _, c := range commodities {
		d.commodities[c.ID] = c
	}
	for _, m := range markets {
		d.markets[m.ID] = m
	}
	return d
}

// Commodity looks a commodity up by id. A nil snapshot never matches.
func (d *Data) Commodity(id string) (models.Commodity, bool) {
	if d == nil {
		return models.Commodity{}, false
	}
	c, ok := d.commodities[id]
	return c, ok
}

// Market looks a market up by id. A nil snapshot never matches.
func (d *Data) Market(id string) (models.Market, bool) {
	if d == nil {
		return models.Market{}, false
	}
	m, ok := d.markets[id]
	return m, ok
}

// NewProvider returns a per-request provider when ttl is zero and a cached one otherwise.
func NewProvider(src Source, ttl time.Duration, logger *zap.Logger) Provider {
	if ttl <= 0 {
		return &PerRequest{src: src}
	}
	return NewCached(src, ttl, logger)
}

// PerRequest loads a fresh snapshot on every call.
type PerRequest struct {
	src Source
}

// Load fetches commodities and all markets from the source.
func (p *PerRequest) Load(ctx context.Context) (*Data, error) {
	return fetch(ctx, p.src)
}

// Cached reuses a snapshot until it is older than ttl or Invalidate is called.
type Cached struct {
	src    Source
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	data     *Data
	loadedAt time.Time
}

// NewCached builds a cached provider.
func NewCached(src Source, ttl time.Duration, logger *zap.Logger) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cached{src: src, ttl: ttl, logger: logger, now: time.Now}
}

// Load returns the cached snapshot, refreshing it when stale.
func (c *Cached) Load(ctx context.Context) (*Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data != nil && c.now().Sub(c.loadedAt) < c.ttl {
		return c.data, nil
	}

	data, err := fetch(ctx, c.src)
	if err != nil {
		return nil, err
	}

	c.data = data
	c.loadedAt = c.now()
	c.logger.Debug("reference snapshot refreshed",
		zap.Int("commodities", len(data.commodities)),
		zap.Int("markets", len(data.markets)))
	return data, nil
}

// Invalidate drops the cached snapshot so the next Load refetches.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
}

func fetch(ctx context.Context, src Source) (*Data, error) {
	commodities, err := src.ListCommodities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load commodities: %w", err)
	}

	markets, err := src.ListMarkets(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("load markets: %w", err)
	}

	return NewData(commodities, markets), nil
}
