package favorites

import (
	"context"
	"slices"
	"sync"

	"github.com/motoshop/catalog/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var rebuilds = promauto.NewCounter(prometheus.CounterOpts{
	Name: "catalog_favorites_rebuilds_total",
	Help: "The total number of favorites index rebuilds",
})

// Favorites mirrors the persisted favorites of every owner into an Index. Each
// mutation reads the full list, writes the full new list and rebuilds the index.
type Favorites struct {
	store   Store
	logger  *zap.Logger
	mu      sync.Mutex
	indexes map[string]*Index
}

func New(store Store, logger *zap.Logger) *Favorites {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Favorites{
		store:   store,
		logger:  logger,
		indexes: make(map[string]*Index),
	}
}

func (f *Favorites) rebuild(owner string, list []types.Product) *Index {
	idx := Rebuild(list)
	rebuilds.Inc()
	f.indexes[owner] = idx
	return idx
}

// Refresh reloads the owner's list and rebuilds the index.
func (f *Favorites) Refresh(ctx context.Context, owner string) (*Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, err := f.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return f.rebuild(owner, list), nil
}

// Index returns the cached index of the owner, loading it on first use.
func (f *Favorites) Index(ctx context.Context, owner string) (*Index, error) {
	f.mu.Lock()
	idx, ok := f.indexes[owner]
	f.mu.Unlock()
	if ok {
		return idx, nil
	}
	return f.Refresh(ctx, owner)
}

// Has answers from the cached index without touching the store.
func (f *Favorites) Has(owner, id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexes[owner].Has(id)
}

func (f *Favorites) List(ctx context.Context, owner string) ([]types.Product, error) {
	return f.store.Load(ctx, owner)
}

// Invalidate drops the cached index so the next use reloads it.
func (f *Favorites) Invalidate(owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.indexes, owner)
}

func (f *Favorites) mutate(ctx context.Context, owner string, fn func([]types.Product) []types.Product) (*Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, err := f.store.Load(ctx, owner)
	if err != nil {
		return nil, err
	}
	next := fn(slices.Clone(list))
	if err := f.store.Save(ctx, owner, next); err != nil {
		return nil, err
	}
	return f.rebuild(owner, next), nil
}

func indexOf(list []types.Product, id string) int {
	return slices.IndexFunc(list, func(p types.Product) bool { return p.GetId() == id })
}

func (f *Favorites) Add(ctx context.Context, owner string, product types.Product) error {
	id := product.GetId()
	if id == "" {
		return ErrEmptyId
	}
	_, err := f.mutate(ctx, owner, func(list []types.Product) []types.Product {
		if indexOf(list, id) >= 0 {
			return list
		}
		return append(list, product)
	})
	return err
}

func (f *Favorites) Remove(ctx context.Context, owner, id string) error {
	if id == "" {
		return ErrEmptyId
	}
	_, err := f.mutate(ctx, owner, func(list []types.Product) []types.Product {
		return slices.DeleteFunc(list, func(p types.Product) bool { return p.GetId() == id })
	})
	return err
}

// Toggle adds the product when missing and removes it otherwise. It reports whether
// the product is a favorite afterwards.
func (f *Favorites) Toggle(ctx context.Context, owner string, product types.Product) (bool, error) {
	id := product.GetId()
	if id == "" {
		return false, ErrEmptyId
	}
	idx, err := f.mutate(ctx, owner, func(list []types.Product) []types.Product {
		if i := indexOf(list, id); i >= 0 {
			return slices.Delete(list, i, i+1)
		}
		return append(list, product)
	})
	if err != nil {
		return false, err
	}
	return idx.Has(id), nil
}

// Watch rebuilds an owner's index whenever the redis store announces a change
// made elsewhere.
func (f *Favorites) Watch(ctx context.Context, store *RedisStore) {
	store.Watch(ctx, func(owner string) {
		if _, err := f.Refresh(ctx, owner); err != nil {
			f.logger.Warn("favorites refresh failed", zap.String("owner", owner), zap.Error(err))
		}
	})
}
