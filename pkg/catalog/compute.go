package catalog

import (
	"context"
	"time"

	"github.com/motoshop/catalog/pkg/facet"
	"github.com/motoshop/catalog/pkg/filter"
	"github.com/motoshop/catalog/pkg/pagination"
	"github.com/motoshop/catalog/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var (
	tracer = otel.Tracer("motoshop-catalog")

	recomputes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_recomputes_total",
		Help: "The total number of computed category page views",
	}, []string{"category"})
	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_recompute_seconds",
		Help:    "Time spent computing a category page view",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)

// View is everything a category page renders for one state.
type View struct {
	Category      string                  `json:"category"`
	Title         string                  `json:"title"`
	Items         []types.Product         `json:"items"`
	Total         int                     `json:"total"`
	Page          int                     `json:"page"`
	PageCount     int                     `json:"pageCount"`
	PageSize      int                     `json:"pageSize"`
	Pages         []pagination.PageLink   `json:"pages"`
	Facets        []types.FacetDefinition `json:"facets"`
	Domains       map[string][]string     `json:"domains"`
	Counts        facet.Counts            `json:"counts"`
	PriceBounds   types.PriceBounds       `json:"priceBounds"`
	State         types.FilterState       `json:"state"`
	ActiveFilters []filter.ActiveFilter   `json:"activeFilters"`
	Sort          types.SortKey           `json:"sort"`
	SortKeys      []types.SortKey         `json:"sortKeys"`
}

// Request is the input of one page computation.
type Request struct {
	State    types.FilterState
	Sort     types.SortKey
	Page     int
	PageSize int
}

// Compute filters, sorts and paginates the indexed subset. It has no side effects
// besides metrics.
func Compute(ctx context.Context, idx *facet.AttributeIndex, cfg CategoryConfig, req Request) View {
	_, span := tracer.Start(ctx, "catalog.Compute")
	defer span.End()
	start := time.Now()
	defer func() {
		recomputeDuration.Observe(time.Since(start).Seconds())
	}()
	recomputes.WithLabelValues(cfg.Key).Inc()

	engine := cfg.Engine()
	filtered := engine.Apply(idx.Products, cfg.Category, req.State)

	sorter := cfg.Sorting()
	key := sorter.Resolve(req.Sort)
	sorted := sorter.Sort(filtered, key)

	page := pagination.Paginate(sorted, cfg.pageSize(req.PageSize), req.Page)

	span.SetAttributes(
		attribute.String("category", cfg.Key),
		attribute.Int("total", page.Total),
		attribute.Int("page", page.Page),
	)

	return View{
		Category:      cfg.Key,
		Title:         cfg.Title,
		Items:         page.Items,
		Total:         page.Total,
		Page:          page.Page,
		PageCount:     page.PageCount,
		PageSize:      page.PageSize,
		Pages:         pagination.Window(page.Page, page.PageCount),
		Facets:        cfg.Facets,
		Domains:       idx.Domains,
		Counts:        facet.Count(idx, req.State, engine.BaseMatcher(req.State)),
		PriceBounds:   idx.PriceBounds,
		State:         req.State,
		ActiveFilters: filter.Describe(req.State, idx.PriceBounds, cfg.Facets...),
		Sort:          key,
		SortKeys:      sorter.Keys(),
	}
}

// ComputeRequest derives the state of a stateless catalog request against the
// page index.
func ComputeRequest(ctx context.Context, idx *facet.AttributeIndex, cfg CategoryConfig, r *types.CatalogRequest) View {
	return Compute(ctx, idx, cfg, Request{
		State:    r.ToFilterState(idx.PriceBounds),
		Sort:     r.SortKey(),
		Page:     r.Page,
		PageSize: r.PageSize,
	})
}
