package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/motoshop/catalog/pkg/common"
	"github.com/motoshop/catalog/pkg/facet"
	"github.com/motoshop/catalog/pkg/filter"
	"github.com/motoshop/catalog/pkg/types"
)

var (
	ErrUnknownAction = errors.New("unknown action")
	ErrInvalidAction = errors.New("invalid action")
)

type ActionType string

const (
	ActionQuery        ActionType = "query"
	ActionTypeQuery    ActionType = "type-query"
	ActionToggleValue  ActionType = "toggle-value"
	ActionSetValues    ActionType = "set-values"
	ActionClearFacet   ActionType = "clear-facet"
	ActionInStock      ActionType = "in-stock"
	ActionDiscountOnly ActionType = "discount-only"
	ActionPrice        ActionType = "price"
	ActionSort         ActionType = "sort"
	ActionPage         ActionType = "page"
	ActionClear        ActionType = "clear"
	ActionClearAll     ActionType = "clear-all"
)

// Action is one user interaction on a category page.
type Action struct {
	Type   ActionType `json:"type"`
	Field  string     `json:"field,omitempty"`
	Value  string     `json:"value,omitempty"`
	Values []string   `json:"values,omitempty"`
	On     bool       `json:"on,omitempty"`
	Min    *float64   `json:"min,omitempty"`
	Max    *float64   `json:"max,omitempty"`
	Sort   string     `json:"sort,omitempty"`
	Page   int        `json:"page,omitempty"`
	Id     string     `json:"id,omitempty"`
}

// ProductProvider returns the resident collection and a version that changes
// whenever the collection is replaced.
type ProductProvider interface {
	Products() ([]types.Product, uint64)
}

type SessionOptions struct {
	Debounce   time.Duration
	DefaultMax float64
	// OnChange receives the view after a debounced query has been applied.
	OnChange func(View)
}

// Session is the state of one mounted category page.
type Session struct {
	mu         sync.Mutex
	config     CategoryConfig
	source     ProductProvider
	defaultMax float64
	onChange   func(View)
	debounce   *common.Debouncer
	// queryGen invalidates a debounced query that was already due when the
	// query was replaced or cleared.
	queryGen uint64

	index   *facet.AttributeIndex
	version uint64
	state   types.FilterState
	sort    types.SortKey
	page    int
}

func NewSession(source ProductProvider, cfg CategoryConfig, opts SessionOptions) *Session {
	return &Session{
		config:     cfg,
		source:     source,
		defaultMax: opts.DefaultMax,
		onChange:   opts.OnChange,
		debounce:   common.NewDebouncer(opts.Debounce),
		sort:       types.SortDefault,
		page:       1,
	}
}

func (s *Session) Config() CategoryConfig {
	return s.config
}

// indexLocked returns the memoized index, rebuilding it only when the product
// collection changed. A price range left at the old bounds follows the new bounds,
// a narrowed one is clamped into them.
func (s *Session) indexLocked() *facet.AttributeIndex {
	products, version := s.source.Products()
	if s.index != nil && version == s.version {
		return s.index
	}
	idx := s.config.BuildIndex(products, s.defaultMax)
	if s.index == nil {
		s.state = types.NewFilterState(idx.PriceBounds)
	} else if s.state.PriceRange == s.index.PriceBounds {
		s.state = s.state.WithPriceRange(idx.PriceBounds.Min, idx.PriceBounds.Max)
	} else {
		s.state = s.state.WithPriceRange(s.state.PriceRange.Min, s.state.PriceRange.Max, idx.PriceBounds)
	}
	s.index = idx
	s.version = version
	return idx
}

func (s *Session) computeLocked(ctx context.Context) View {
	idx := s.indexLocked()
	view := Compute(ctx, idx, s.config, Request{State: s.state, Sort: s.sort, Page: s.page})
	s.sort = view.Sort
	s.page = view.Page
	return view
}

func (s *Session) View(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computeLocked(ctx)
}

func (s *Session) State() types.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexLocked()
	return s.state
}

// TypeQuery applies the query once no other call has arrived within the debounce
// delay. Only the last query is applied.
func (s *Session) TypeQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryGen++
	gen := s.queryGen
	s.debounce.Trigger(func() {
		s.mu.Lock()
		if gen != s.queryGen {
			s.mu.Unlock()
			return
		}
		s.indexLocked()
		s.state = s.state.WithQuery(query)
		s.page = 1
		view := s.computeLocked(context.Background())
		onChange := s.onChange
		s.mu.Unlock()
		if onChange != nil {
			onChange(view)
		}
	})
}

// FlushQuery applies a pending typed query immediately.
func (s *Session) FlushQuery() bool {
	return s.debounce.Flush()
}

// dropQueryLocked discards a pending typed query, including one whose timer has
// already fired but has not taken the lock yet.
func (s *Session) dropQueryLocked() {
	s.queryGen++
	s.debounce.Cancel()
}

func (s *Session) ClearAll(ctx context.Context) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clearAllLocked(ctx)
}

func (s *Session) clearAllLocked(ctx context.Context) View {
	s.dropQueryLocked()
	idx := s.indexLocked()
	s.state = filter.ClearAll(s.state, idx.PriceBounds)
	s.sort = types.SortDefault
	s.page = 1
	return s.computeLocked(ctx)
}

// Apply performs the action and returns the new view. Every filter or sort change
// returns to the first page.
func (s *Session) Apply(ctx context.Context, a Action) (View, error) {
	switch a.Type {
	case ActionTypeQuery:
		s.TypeQuery(a.Value)
		return s.View(ctx), nil
	case ActionClearAll:
		return s.ClearAll(ctx), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexLocked()
	state := s.state

	switch a.Type {
	case ActionQuery:
		s.dropQueryLocked()
		state = state.WithQuery(a.Value)
	case ActionToggleValue:
		if a.Field == "" || a.Value == "" {
			return View{}, fmt.Errorf("%w: %s needs field and value", ErrInvalidAction, a.Type)
		}
		state = state.ToggleFacetValue(a.Field, a.Value)
	case ActionSetValues:
		if a.Field == "" {
			return View{}, fmt.Errorf("%w: %s needs field", ErrInvalidAction, a.Type)
		}
		state = state.WithFacetValues(a.Field, a.Values...)
	case ActionClearFacet:
		state = state.ClearFacet(a.Field)
	case ActionInStock:
		state = state.WithInStock(a.On)
	case ActionDiscountOnly:
		state = state.WithDiscountOnly(a.On)
	case ActionPrice:
		lo, hi := state.PriceRange.Min, state.PriceRange.Max
		if a.Min != nil {
			lo = *a.Min
		}
		if a.Max != nil {
			hi = *a.Max
		}
		state = state.WithPriceRange(lo, hi, idx.PriceBounds)
	case ActionSort:
		s.sort = types.ParseSortKey(a.Sort)
	case ActionPage:
		s.page = a.Page
		return s.computeLocked(ctx), nil
	case ActionClear:
		if a.Id == filter.IdQuery {
			s.dropQueryLocked()
		}
		state = filter.Clear(state, a.Id, idx.PriceBounds)
	default:
		return View{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}

	s.state = state
	s.page = 1
	return s.computeLocked(ctx), nil
}

// Close drops a pending typed query.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropQueryLocked()
}
