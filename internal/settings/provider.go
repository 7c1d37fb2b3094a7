package settings

import (
	"context"
	"log/slog"
	"sync"
)

// Provider is the read-through view of one site's settings that every
// component receives. Writes go to the store and invalidate the cache.
type Provider struct {
	store  Store
	cache  Cache
	site   string
	logger *slog.Logger

	// mu orders cache fills against invalidations. gen counts writes; a
	// read that started before a write must not refill the cache.
	mu  sync.Mutex
	gen uint64
}

func NewProvider(store Store, cache Cache, site string, logger *slog.Logger) *Provider {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Provider{
		store:  store,
		cache:  cache,
		site:   site,
		logger: logger.With("component", "settings"),
	}
}

// Site is the site this provider serves.
func (p *Provider) Site() string {
	return p.site
}

// Get returns cached settings or loads them from the store. A cache failure
// falls back to the store.
func (p *Provider) Get(ctx context.Context) (Settings, error) {
	if s, ok, err := p.cache.Get(ctx, p.site); err != nil {
		p.logger.Warn("settings cache read failed", "site", p.site, "error", err)
	} else if ok {
		return s, nil
	}

	gen := p.generation()
	s, err := p.store.Get(ctx, p.site)
	if err != nil {
		return Settings{}, err
	}
	p.fill(ctx, s, gen)
	return s, nil
}

func (p *Provider) generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// fill caches s unless a write happened since the read began at gen.
func (p *Provider) fill(ctx context.Context, s Settings, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return
	}
	if err := p.cache.Set(ctx, s); err != nil {
		p.logger.Warn("settings cache write failed", "site", p.site, "error", err)
	}
}

// Put validates and stores s for this provider's site. A rejected write
// leaves both the store and the cache untouched.
func (p *Provider) Put(ctx context.Context, s Settings) error {
	s.Site = p.site
	if err := s.Validate(); err != nil {
		return err
	}
	if err := p.store.Put(ctx, s); err != nil {
		return err
	}
	p.Invalidate(ctx)
	p.logger.Info("settings updated", "site", p.site)
	return nil
}

// Invalidate drops the cached copy and stops reads already in flight from
// caching what they loaded.
func (p *Provider) Invalidate(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if err := p.cache.Invalidate(ctx, p.site); err != nil {
		p.logger.Warn("settings cache invalidate failed", "site", p.site, "error", err)
	}
}
