package modelcache

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"mpc-backend/internal/core/training"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

const DefaultCapacity = 10

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpc",
		Subsystem: "model_cache",
		Name:      "hits_total",
		Help:      "Model lookups served from the cache",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpc",
		Subsystem: "model_cache",
		Name:      "misses_total",
		Help:      "Model lookups that loaded from the artifact store",
	})
	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mpc",
		Subsystem: "model_cache",
		Name:      "evictions_total",
		Help:      "Models evicted to stay within capacity",
	})
)

type Loader interface {
	Load(ctx context.Context, id string) (*training.Model, error)
	LatestVersion(ctx context.Context) (string, error)
}

// Cache holds up to capacity loaded models. Eviction follows insertion order,
// hits do not refresh an entry.
type Cache struct {
	loader   Loader
	capacity int

	mu      sync.Mutex
	entries map[string]*training.Model
	order   []string

	loads singleflight.Group
}

func New(loader Loader, capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		loader:   loader,
		capacity: capacity,
		entries:  make(map[string]*training.Model),
	}
}

// Get returns the model for id, loading it on a miss. An empty id resolves to
// the latest version on every call. The resolved id is returned with the
// model.
func (c *Cache) Get(ctx context.Context, id string) (*training.Model, string, error) {
	if id == "" {
		latest, err := c.loader.LatestVersion(ctx)
		if err != nil {
			return nil, "", err
		}
		id = latest
	}

	if model, ok := c.lookup(id); ok {
		cacheHits.Inc()
		return model, id, nil
	}

	// The shared load outlives any single caller, each caller only stops
	// waiting when its own context ends.
	loadCtx := context.WithoutCancel(ctx)
	results := c.loads.DoChan(id, func() (any, error) {
		// Another caller may have finished loading while we waited.
		if model, ok := c.lookup(id); ok {
			return model, nil
		}

		cacheMisses.Inc()
		model, err := c.loader.Load(loadCtx, id)
		if err != nil {
			return nil, err
		}
		c.insert(id, model)
		return model, nil
	})

	var model any
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return nil, "", res.Err
		}
		model = res.Val
	}

	return model.(*training.Model), id, nil
}

func (c *Cache) lookup(id string) (*training.Model, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	model, ok := c.entries[id]
	return model, ok
}

func (c *Cache) insert(id string, model *training.Model) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[id]; ok {
		return
	}

	for len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		cacheEvictions.Inc()
		slog.Info("evicted model from cache", "version_id", oldest)
	}

	c.entries[id] = model
	c.order = append(c.order, id)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Versions returns the cached version ids, oldest insertion first.
func (c *Cache) Versions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.order)
}
