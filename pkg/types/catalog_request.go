package types

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/schema"
	"github.com/motoshop/catalog/pkg/common/jsoncompat"
)

// CatalogRequest is the wire form of a page view request.
//
//	GET /api/catalog/helmets?q=agv&sort=price-asc&page=2&stock=true&min=1000&max=20000&f=brand:AGV||Shoei&f=size:M
type CatalogRequest struct {
	Query    string              `json:"q" schema:"q"`
	Sort     string              `json:"sort" schema:"sort,default:default"`
	Page     int                 `json:"page" schema:"page,default:1"`
	PageSize int                 `json:"size" schema:"size"`
	InStock  bool                `json:"stock" schema:"stock"`
	Discount bool                `json:"discount" schema:"discount"`
	MinPrice *float64            `json:"min" schema:"min"`
	MaxPrice *float64            `json:"max" schema:"max"`
	Facets   map[string][]string `json:"facets" schema:"-"`
}

const maxPageSize = 100

var decoder = schema.NewDecoder()

func init() {
	decoder.IgnoreUnknownKeys(true)
}

func (r *CatalogRequest) Sanitize() {
	if r.Page < 1 {
		r.Page = 1
	}
	r.PageSize = clamp(r.PageSize, 0, maxPageSize)
	if strings.TrimSpace(r.Sort) == "" {
		r.Sort = string(SortDefault)
	}
	if r.Facets == nil {
		r.Facets = map[string][]string{}
	}
}

func (r *CatalogRequest) SortKey() SortKey {
	return ParseSortKey(r.Sort)
}

// ToFilterState builds the filter state for a page with the given observed bounds.
// Missing price ends default to the bounds.
func (r *CatalogRequest) ToFilterState(bounds PriceBounds) FilterState {
	state := NewFilterState(bounds).
		WithQuery(r.Query).
		WithInStock(r.InStock).
		WithDiscountOnly(r.Discount)

	if r.MinPrice != nil || r.MaxPrice != nil {
		min, max := bounds.Min, bounds.Max
		if r.MinPrice != nil {
			min = *r.MinPrice
		}
		if r.MaxPrice != nil {
			max = *r.MaxPrice
		}
		state = state.WithPriceRange(min, max, bounds)
	}
	for field, values := range r.Facets {
		state = state.WithFacetValues(field, values...)
	}
	return state
}

func GetCatalogRequest(r *http.Request) (*CatalogRequest, error) {
	cr := &CatalogRequest{Sort: string(SortDefault), Page: 1}
	var err error
	if r.Method == http.MethodGet {
		err = catalogRequestFromQuery(r.URL.Query(), cr)
	} else {
		var data []byte
		if data, err = io.ReadAll(r.Body); err == nil {
			err = jsoncompat.Unmarshal(data, cr)
		}
	}
	cr.Sanitize()
	return cr, err
}

func catalogRequestFromQuery(query url.Values, result *CatalogRequest) error {
	if err := decoder.Decode(result, query); err != nil {
		return err
	}
	result.Facets = decodeFacetSelections(query["f"])
	return nil
}

// decodeFacetSelections reads repeated "field:value||value" parameters.
func decodeFacetSelections(params []string) map[string][]string {
	ret := map[string][]string{}
	for _, v := range params {
		field, value, found := strings.Cut(v, ":")
		if !found {
			continue
		}
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		for part := range strings.SplitSeq(value, "||") {
			part = strings.TrimSpace(part)
			if part != "" {
				ret[field] = append(ret[field], part)
			}
		}
	}
	return ret
}
