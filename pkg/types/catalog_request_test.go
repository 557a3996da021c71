package types

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCatalogRequestFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/catalog/helmets?q=agv&sort=Price-Asc&page=2&size=24&stock=true&min=2000&f=brand:AGV||Shoei&f=size:M&f=broken", nil)
	req, err := GetCatalogRequest(r)
	require.NoError(t, err)

	assert.Equal(t, "agv", req.Query)
	assert.Equal(t, SortPriceAsc, req.SortKey())
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 24, req.PageSize)
	assert.True(t, req.InStock)
	assert.False(t, req.Discount)
	require.NotNil(t, req.MinPrice)
	assert.Nil(t, req.MaxPrice)
	assert.Equal(t, map[string][]string{
		"brand": {"AGV", "Shoei"},
		"size":  {"M"},
	}, req.Facets)

	state := req.ToFilterState(PriceBounds{Min: 1000, Max: 46000})
	assert.Equal(t, PriceBounds{Min: 2000, Max: 46000}, state.PriceRange)
	assert.Equal(t, []string{"AGV", "Shoei"}, state.Selected("brand"))
	assert.True(t, state.Toggles.InStock)
}

func TestGetCatalogRequestDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/catalog/helmets?page=-3&size=5000", nil)
	req, err := GetCatalogRequest(r)
	require.NoError(t, err)

	assert.Equal(t, 1, req.Page)
	assert.Equal(t, maxPageSize, req.PageSize)
	assert.Equal(t, SortDefault, req.SortKey())

	bounds := PriceBounds{Min: 0, Max: 100000}
	assert.True(t, req.ToFilterState(bounds).IsDefault(bounds))
}

func TestGetCatalogRequestFromJson(t *testing.T) {
	body := `{"q":"масло","sort":"rating-desc","discount":true,"max":5000,"facets":{"viscosity":["5W-40"]}}`
	r := httptest.NewRequest("POST", "/api/catalog/chemistry", strings.NewReader(body))
	req, err := GetCatalogRequest(r)
	require.NoError(t, err)

	state := req.ToFilterState(PriceBounds{Min: 100, Max: 9000})
	assert.Equal(t, PriceBounds{Min: 100, Max: 5000}, state.PriceRange)
	assert.Equal(t, []string{"5W-40"}, state.Selected("viscosity"))
	assert.True(t, state.Toggles.DiscountOnly)
	assert.Equal(t, SortRatingDesc, req.SortKey())
}
