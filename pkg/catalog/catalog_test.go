package catalog

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/motoshop/catalog/pkg/filter"
	"github.com/motoshop/catalog/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu       sync.Mutex
	products []types.Product
	version  uint64
}

func (f *fakeSource) Products() ([]types.Product, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, f.version
}

func (f *fakeSource) replace(products []types.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products = products
	f.version++
}

func helmets() []types.Product {
	return []types.Product{
		{"id": "1", "name": "AGV K1", "category": "Мотошлемы", "brand": "AGV", "helmetType": "integral", "price": 21000, "inStock": true, "size": []any{"M", "L"}},
		{"id": "2", "name": "Shoei GT-Air", "category": "Мотошлемы", "brand": "Shoei", "helmetType": "modular", "price": 45000, "discount": 10, "inStock": true, "size": []any{"L"}},
		{"id": "3", "name": "LS2 Rapid", "category": "Мотошлемы", "brand": "LS2", "helmetType": "integral", "price": 9000, "inStock": false, "size": []any{"S", "M"}},
		{"id": "4", "name": "Motul 7100", "category": "Мотохимия", "brand": "Motul", "chemistryType": "oil", "price": 1900, "inStock": true},
		{"id": "5", "name": "AGV Pista", "category": "Мотошлемы", "brand": "AGV", "helmetType": "integral", "price": 98000, "discount": 5, "inStock": true, "size": []any{"M"}},
	}
}

func helmetsConfig(t *testing.T) CategoryConfig {
	pages, err := NewPages(DefaultConfigs()...)
	require.NoError(t, err)
	cfg, err := pages.Get("helmets")
	require.NoError(t, err)
	return cfg
}

func ids(products []types.Product) []string {
	ret := make([]string, 0, len(products))
	for _, p := range products {
		ret = append(ret, p.GetId())
	}
	return ret
}

func TestDefaultPagesAreValid(t *testing.T) {
	pages, err := NewPages(DefaultConfigs()...)
	require.NoError(t, err)
	assert.Len(t, pages.List(), 6)

	moto, err := pages.Get("mototechnics")
	require.NoError(t, err)
	assert.Contains(t, moto.Sorting().Keys(), types.SortVolumeDesc)
	assert.Contains(t, moto.Sorting().Keys(), types.SortYearDesc)

	_, err = pages.Get("tyres")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = NewPages(DefaultConfigs()[0], DefaultConfigs()[0])
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestParsePages(t *testing.T) {
	pages, err := ParsePages([]byte(`
pages:
  - key: tyres
    title: Шины
    category: tyres
    typeField: tyreType
    pageSize: 24
    priceStep: 500
    sortKeys: [price-asc, year-desc]
    facets:
      - { field: brand, label: Бренд }
      - { field: width, label: Ширина }
`))
	require.NoError(t, err)
	cfg, err := pages.Get("tyres")
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.PageSize)
	assert.Equal(t, 500.0, cfg.PriceStep)
	assert.Equal(t, []types.SortKey{types.SortDefault, types.SortPriceAsc, types.SortYearDesc}, cfg.Sorting().Keys())
	assert.Equal(t, "width", cfg.Facets[1].Field)

	_, err = ParsePages([]byte("pages:\n  - key: broken\n    facets:\n      - { field: brand }\n"))
	assert.Error(t, err)
}

func TestComputeHelmetsPage(t *testing.T) {
	cfg := helmetsConfig(t)
	idx := cfg.BuildIndex(helmets(), 0)
	require.Equal(t, 4, idx.Len())
	assert.Equal(t, types.PriceBounds{Min: 9000, Max: 98000}, idx.PriceBounds)

	state := types.NewFilterState(idx.PriceBounds).
		ToggleFacetValue("brand", "AGV").
		WithInStock(true)
	view := Compute(context.Background(), idx, cfg, Request{State: state, Sort: types.SortPriceDesc, Page: 1})

	assert.Equal(t, []string{"5", "1"}, ids(view.Items))
	assert.Equal(t, 2, view.Total)
	assert.Equal(t, 1, view.PageCount)
	assert.Equal(t, 12, view.PageSize)
	assert.Equal(t, types.SortPriceDesc, view.Sort)
	assert.Equal(t, []string{"AGV", "LS2", "Shoei"}, view.Domains["brand"])
	// counts ignore the brand selection itself but keep the in-stock toggle
	assert.EqualValues(t, 2, view.Counts.Get("brand", "AGV"))
	assert.EqualValues(t, 1, view.Counts.Get("brand", "Shoei"))
	assert.EqualValues(t, 0, view.Counts.Get("brand", "LS2"))

	require.Len(t, view.ActiveFilters, 2)
	assert.Equal(t, filter.FacetId("brand"), view.ActiveFilters[0].Id)
	assert.Equal(t, filter.IdInStock, view.ActiveFilters[1].Id)
}

func TestHelmetsPageInStockToggle(t *testing.T) {
	products := make([]types.Product, 0, 26)
	for i := range 25 {
		products = append(products, types.Product{
			"id":       strconv.Itoa(i + 1),
			"category": "Мотошлемы",
			"brand":    "AGV",
			"price":    10000 + i*1000,
			"inStock":  i >= 10,
		})
	}
	products = append(products, types.Product{"id": "oil", "category": "Мотохимия", "price": 900, "inStock": true})

	pages, err := LoadPages("")
	require.NoError(t, err)
	cfg, err := pages.Get("helmets")
	require.NoError(t, err)
	idx := cfg.BuildIndex(products, 0)

	view := Compute(context.Background(), idx, cfg, Request{State: types.NewFilterState(idx.PriceBounds)})
	assert.Equal(t, 25, view.Total)

	view = Compute(context.Background(), idx, cfg, Request{State: types.NewFilterState(idx.PriceBounds).WithInStock(true)})
	assert.Equal(t, 15, view.Total)
	assert.NotContains(t, ids(view.Items), "1")
}

func TestComputeInvalidSortFallsBackToDefault(t *testing.T) {
	cfg := helmetsConfig(t)
	idx := cfg.BuildIndex(helmets(), 0)
	view := Compute(context.Background(), idx, cfg, Request{
		State: types.NewFilterState(idx.PriceBounds),
		Sort:  types.SortYearDesc,
		Page:  7,
	})
	assert.Equal(t, types.SortDefault, view.Sort)
	assert.Equal(t, []string{"1", "2", "3", "5"}, ids(view.Items))
	assert.Equal(t, 1, view.Page)
}

func TestComputeRequest(t *testing.T) {
	cfg := helmetsConfig(t)
	maxPrice := 30000.0
	req := &types.CatalogRequest{
		Query:    "agv",
		Sort:     "price-asc",
		Page:     1,
		PageSize: 1,
		MaxPrice: &maxPrice,
		Facets:   map[string][]string{},
	}
	view := ComputeRequest(context.Background(), cfg.BuildIndex(helmets(), 0), cfg, req)
	assert.Equal(t, []string{"1"}, ids(view.Items))
	assert.Equal(t, 1, view.Total)
	assert.Equal(t, types.PriceBounds{Min: 9000, Max: 30000}, view.State.PriceRange)
}

func TestSessionTransitionsResetPage(t *testing.T) {
	cfg := helmetsConfig(t)
	cfg.PageSize = 1
	source := &fakeSource{products: helmets()}
	s := NewSession(source, cfg, SessionOptions{})
	defer s.Close()
	ctx := context.Background()

	view, err := s.Apply(ctx, Action{Type: ActionPage, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, view.Page)
	assert.Equal(t, 4, view.PageCount)

	view, err = s.Apply(ctx, Action{Type: ActionToggleValue, Field: "brand", Value: "AGV"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 2, view.Total)

	_, err = s.Apply(ctx, Action{Type: ActionPage, Page: 2})
	require.NoError(t, err)
	view, err = s.Apply(ctx, Action{Type: ActionSort, Sort: "price-desc"})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Page)
	assert.Equal(t, []string{"5"}, ids(view.Items))

	minPrice := 50000.0
	view, err = s.Apply(ctx, Action{Type: ActionPrice, Min: &minPrice})
	require.NoError(t, err)
	assert.Equal(t, types.PriceBounds{Min: 50000, Max: 98000}, view.State.PriceRange)
	assert.Equal(t, 1, view.Total)

	view, err = s.Apply(ctx, Action{Type: ActionClear, Id: filter.IdPrice})
	require.NoError(t, err)
	assert.Equal(t, 2, view.Total)

	view = s.ClearAll(ctx)
	assert.Equal(t, 4, view.Total)
	assert.Equal(t, types.SortDefault, view.Sort)
	assert.True(t, view.State.IsDefault(view.PriceBounds))
}

func TestSessionRejectsBadActions(t *testing.T) {
	s := NewSession(&fakeSource{products: helmets()}, helmetsConfig(t), SessionOptions{})
	defer s.Close()

	_, err := s.Apply(context.Background(), Action{Type: "explode"})
	assert.ErrorIs(t, err, ErrUnknownAction)
	_, err = s.Apply(context.Background(), Action{Type: ActionToggleValue, Field: "brand"})
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestSessionTypeQueryIsDebounced(t *testing.T) {
	changed := make(chan View, 4)
	s := NewSession(&fakeSource{products: helmets()}, helmetsConfig(t), SessionOptions{
		Debounce: 20 * time.Millisecond,
		OnChange: func(v View) { changed <- v },
	})
	defer s.Close()

	s.TypeQuery("a")
	s.TypeQuery("ag")
	s.TypeQuery("shoei")

	select {
	case v := <-changed:
		assert.Equal(t, "shoei", v.State.Query)
		assert.Equal(t, []string{"2"}, ids(v.Items))
	case <-time.After(2 * time.Second):
		t.Fatal("debounced query was not applied")
	}
	assert.Equal(t, "shoei", s.State().Query)

	select {
	case v := <-changed:
		t.Fatalf("unexpected extra change for %q", v.State.Query)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestSessionFlushAndImmediateQuery(t *testing.T) {
	s := NewSession(&fakeSource{products: helmets()}, helmetsConfig(t), SessionOptions{Debounce: time.Hour})
	defer s.Close()

	s.TypeQuery("ls2")
	assert.Equal(t, "", s.State().Query)
	assert.True(t, s.FlushQuery())
	assert.Equal(t, "ls2", s.State().Query)

	s.TypeQuery("agv")
	view, err := s.Apply(context.Background(), Action{Type: ActionQuery, Value: "shoei"})
	require.NoError(t, err)
	assert.Equal(t, "shoei", view.State.Query)
	assert.False(t, s.FlushQuery())
}

func TestSessionRebuildsIndexOnlyOnNewCollection(t *testing.T) {
	source := &fakeSource{products: helmets()}
	s := NewSession(source, helmetsConfig(t), SessionOptions{})
	defer s.Close()
	ctx := context.Background()

	first := s.View(ctx)
	idx := s.index
	s.View(ctx)
	assert.Same(t, idx, s.index)

	source.replace(append(helmets(), types.Product{"id": "6", "category": "Мотошлемы", "brand": "HJC", "price": 150000}))
	second := s.View(ctx)
	assert.NotSame(t, idx, s.index)
	assert.Equal(t, first.Total+1, second.Total)
	assert.Equal(t, types.PriceBounds{Min: 9000, Max: 150000}, second.State.PriceRange)
	assert.Contains(t, second.Domains["brand"], "HJC")
}

func TestSessionsRegistry(t *testing.T) {
	pages, err := NewPages(DefaultConfigs()...)
	require.NoError(t, err)
	sessions := NewSessions(pages, &fakeSource{products: helmets()}, 2, SessionOptions{})

	a, err := sessions.Get("s1", "helmets")
	require.NoError(t, err)
	b, err := sessions.Get("s1", "helmets")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 2, a.Config().PageSize)

	_, err = sessions.Get("s1", "tyres")
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = sessions.Get("s2", "chemistry")
	require.NoError(t, err)
	assert.Equal(t, 2, sessions.Len())
	assert.Equal(t, 0, sessions.Prune(time.Hour))
	time.Sleep(2 * time.Millisecond)
	assert.Equal(t, 2, sessions.Prune(time.Millisecond))
	assert.Equal(t, 0, sessions.Len())
}

func TestSessionClearAllDropsFiredQuery(t *testing.T) {
	s := NewSession(&fakeSource{products: helmets()}, helmetsConfig(t), SessionOptions{Debounce: time.Hour})
	defer s.Close()
	ctx := context.Background()

	s.TypeQuery("agv")
	s.mu.Lock()
	done := make(chan struct{})
	go func() {
		s.FlushQuery()
		close(done)
	}()
	// the query has left the debouncer and waits for the session lock
	assert.Eventually(t, func() bool { return !s.debounce.Pending() }, time.Second, time.Millisecond)
	view := s.clearAllLocked(ctx)
	s.mu.Unlock()
	<-done

	assert.Equal(t, 4, view.Total)
	assert.Equal(t, "", s.State().Query)
	assert.Equal(t, 4, s.View(ctx).Total)
}

func TestSessionImmediateQueryWinsOverFiredQuery(t *testing.T) {
	s := NewSession(&fakeSource{products: helmets()}, helmetsConfig(t), SessionOptions{Debounce: time.Hour})
	defer s.Close()
	ctx := context.Background()

	s.TypeQuery("agv")
	s.mu.Lock()
	done := make(chan struct{})
	go func() {
		s.FlushQuery()
		close(done)
	}()
	assert.Eventually(t, func() bool { return !s.debounce.Pending() }, time.Second, time.Millisecond)
	s.mu.Unlock()
	view, err := s.Apply(ctx, Action{Type: ActionClear, Id: filter.IdQuery})
	require.NoError(t, err)
	<-done

	// the fired query either ran before the clear or was dropped by it
	assert.Equal(t, "", view.State.Query)
	assert.Equal(t, "", s.State().Query)
}

func TestSessionsOnChange(t *testing.T) {
	pages, err := NewPages(DefaultConfigs()...)
	require.NoError(t, err)
	perSession := make(chan View, 1)
	sessions := NewSessions(pages, &fakeSource{products: helmets()}, 0, SessionOptions{
		Debounce: time.Hour,
		OnChange: func(v View) { perSession <- v },
	})
	type change struct {
		sessionId string
		view      View
	}
	changes := make(chan change, 1)
	sessions.OnChange(func(sessionId string, view View) {
		changes <- change{sessionId, view}
	})

	s, err := sessions.Get("s1", "helmets")
	require.NoError(t, err)
	s.TypeQuery("agv")
	require.True(t, s.FlushQuery())

	got := <-changes
	assert.Equal(t, "s1", got.sessionId)
	assert.Equal(t, 2, got.view.Total)
	assert.Equal(t, "agv", (<-perSession).State.Query)
}

func TestIndexCache(t *testing.T) {
	source := &fakeSource{products: helmets()}
	cache := NewIndexCache(source, 0)
	cfg := helmetsConfig(t)

	idx := cache.Get(cfg)
	assert.Same(t, idx, cache.Get(cfg))
	assert.Equal(t, 4, idx.Len())

	pages, err := NewPages(DefaultConfigs()...)
	require.NoError(t, err)
	chemistry, err := pages.Get("chemistry")
	require.NoError(t, err)
	assert.NotSame(t, idx, cache.Get(chemistry))
	assert.Equal(t, 2, cache.Len())

	source.replace(append(helmets(), types.Product{"id": "6", "category": "Мотошлемы", "brand": "HJC", "price": 150000}))
	rebuilt := cache.Get(cfg)
	assert.NotSame(t, idx, rebuilt)
	assert.Equal(t, 5, rebuilt.Len())
	assert.Equal(t, 1, cache.Len())

	cache.Reset()
	assert.Equal(t, 0, cache.Len())
	assert.NotSame(t, rebuilt, cache.Get(cfg))
}
