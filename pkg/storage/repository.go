package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/motoshop/catalog/pkg/messaging"
	"github.com/motoshop/catalog/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var productReloads = promauto.NewCounter(prometheus.CounterOpts{
	Name: "catalog_product_reloads_total",
	Help: "The total number of product collection reloads",
})

// Repository keeps the resident product collection. A reload replaces the
// collection wholesale; the slice handed out is never modified afterwards.
type Repository struct {
	source      ProductSource
	logger      *zap.Logger
	mu          sync.RWMutex
	products    []types.Product
	byId        map[string]types.Product
	version     uint64
	subscribers []func(products []types.Product, version uint64)
}

func NewRepository(source ProductSource, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{
		source:   source,
		logger:   logger,
		products: []types.Product{},
		byId:     map[string]types.Product{},
	}
}

// Reload fetches the collection from the source. A missing products file is
// treated as an empty collection.
func (r *Repository) Reload(ctx context.Context) error {
	products, err := r.source.GetProducts(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Warn("no products file, starting empty")
		products, err = []types.Product{}, nil
	}
	if err != nil {
		return fmt.Errorf("reload products: %w", err)
	}
	r.Replace(products)
	return nil
}

// Replace installs a new collection and notifies subscribers.
func (r *Repository) Replace(products []types.Product) {
	byId := make(map[string]types.Product, len(products))
	for _, p := range products {
		if id := p.GetId(); id != "" {
			byId[id] = p
		}
	}

	r.mu.Lock()
	r.products = products
	r.byId = byId
	r.version++
	version := r.version
	subscribers := append([]func([]types.Product, uint64){}, r.subscribers...)
	r.mu.Unlock()

	productReloads.Inc()
	r.logger.Info("loaded products", zap.Int("count", len(products)), zap.Uint64("version", version))
	for _, fn := range subscribers {
		fn(products, version)
	}
}

// Products returns the current collection and its version. Callers must not modify it.
func (r *Repository) Products() ([]types.Product, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.products, r.version
}

func (r *Repository) GetProducts(_ context.Context) ([]types.Product, error) {
	products, _ := r.Products()
	return products, nil
}

func (r *Repository) GetProduct(_ context.Context, id string) (types.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byId[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
}

func (r *Repository) Subscribe(fn func(products []types.Product, version uint64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

// ListenForChanges reloads the collection whenever a product change is announced.
func (r *Repository) ListenForChanges(ctx context.Context, conn *amqp.Connection, prefix string) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := messaging.DefineTopic(ch, prefix, messaging.ProductsChanged); err != nil {
		ch.Close()
		return err
	}
	return messaging.ListenToTopic(ctx, ch, prefix, messaging.ProductsChanged, r.logger, r.HandleChange)
}

func (r *Repository) HandleChange(ctx context.Context, d amqp.Delivery) error {
	change, err := messaging.Decode[messaging.ProductChange](d)
	if err != nil {
		return err
	}
	r.logger.Info("products changed", zap.Strings("ids", change.Ids), zap.Bool("deleted", change.Deleted))
	return r.Reload(ctx)
}
