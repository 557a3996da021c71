package catalog

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/motoshop/catalog/pkg/facet"
	"github.com/motoshop/catalog/pkg/filter"
	"github.com/motoshop/catalog/pkg/pagination"
	"github.com/motoshop/catalog/pkg/sorting"
	"github.com/motoshop/catalog/pkg/types"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateKey    = errors.New("duplicate category key")
)

// CategoryConfig describes one category page.
type CategoryConfig struct {
	Key   string `json:"key" yaml:"key" validate:"required"`
	Title string `json:"title" yaml:"title" validate:"required"`
	// Category is the product category value the page is gated on; empty shows everything.
	Category  string                  `json:"category,omitempty" yaml:"category,omitempty"`
	TypeField string                  `json:"typeField,omitempty" yaml:"typeField,omitempty"`
	Facets    []types.FacetDefinition `json:"facets" yaml:"facets" validate:"dive"`
	SortKeys  []types.SortKey         `json:"sortKeys,omitempty" yaml:"sortKeys,omitempty"`
	PageSize  int                     `json:"pageSize,omitempty" yaml:"pageSize,omitempty" validate:"gte=0,lte=100"`
	// PriceStep overrides the automatic price rounding step when > 0.
	PriceStep float64 `json:"priceStep,omitempty" yaml:"priceStep,omitempty" validate:"gte=0"`
}

func (c CategoryConfig) Engine() *filter.Engine {
	return filter.NewEngine(c.TypeField)
}

func (c CategoryConfig) Sorting() *sorting.Sorting {
	return sorting.NewSorting(c.SortKeys...)
}

// pageSize prefers an explicitly requested size over the configured one.
func (c CategoryConfig) pageSize(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.PageSize > 0 {
		return c.PageSize
	}
	return pagination.DefaultPageSize
}

// WithDefaultPageSize sets the page size when the page does not configure one.
func (c CategoryConfig) WithDefaultPageSize(size int) CategoryConfig {
	if c.PageSize <= 0 {
		c.PageSize = size
	}
	return c
}

// BuildIndex builds the attribute index of the page for a product collection.
func (c CategoryConfig) BuildIndex(products []types.Product, defaultMax float64) *facet.AttributeIndex {
	return facet.Build(products, c.Facets, c.Category, facet.Options{Step: c.PriceStep, DefaultMax: defaultMax})
}

var brand = types.FacetDefinition{Field: types.FieldBrand, Label: "Бренд", Type: "brand"}

func withSpecialKeys(keys ...types.SortKey) []types.SortKey {
	ret := make([]types.SortKey, 0, len(types.StandardSortKeys)+len(keys))
	ret = append(ret, types.StandardSortKeys...)
	return append(ret, keys...)
}

// DefaultConfigs are the built-in category pages.
func DefaultConfigs() []CategoryConfig {
	return []CategoryConfig{
		{
			Key: "chemistry", Title: "Мотохимия", Category: "Мотохимия", TypeField: "chemistryType",
			Facets: []types.FacetDefinition{
				brand,
				{Field: "chemistryType", Label: "Тип"},
				{Field: "viscosity", Label: "Вязкость"},
				{Field: "volume", Label: "Объём"},
			},
		},
		{
			Key: "equipment", Title: "Экипировка", Category: "Экипировка", TypeField: "equipmentType",
			Facets: []types.FacetDefinition{
				brand,
				{Field: "equipmentType", Label: "Тип"},
				{Field: "size", Label: "Размер", Type: "size"},
				{Field: "material", Label: "Материал"},
			},
		},
		{
			Key: "helmets", Title: "Мотошлемы", Category: "Мотошлемы", TypeField: "helmetType",
			Facets: []types.FacetDefinition{
				brand,
				{Field: "helmetType", Label: "Тип шлема"},
				{Field: "size", Label: "Размер", Type: "size"},
				{Field: "material", Label: "Материал"},
			},
		},
		{
			Key: "spare-parts", Title: "Запчасти", Category: "Запчасти", TypeField: "partType",
			Facets: []types.FacetDefinition{
				brand,
				{Field: "partType", Label: "Тип запчасти"},
				{Field: "compatibility", Label: "Совместимость"},
			},
		},
		{
			Key: "mototechnics", Title: "Мототехника", Category: "Мототехника", TypeField: "vehicleType",
			Facets: []types.FacetDefinition{
				brand,
				{Field: "vehicleType", Label: "Тип техники"},
				{Field: "engineVolume", Label: "Объём двигателя"},
				{Field: "year", Label: "Год"},
			},
			SortKeys: withSpecialKeys(types.SortVolumeDesc, types.SortYearDesc),
		},
		{
			Key: "catalog", Title: "Каталог",
			Facets: []types.FacetDefinition{
				{Field: types.FieldCategory, Label: "Категория"},
				brand,
			},
		},
	}
}

// Pages is the set of configured category pages, in configuration order.
type Pages struct {
	list  []CategoryConfig
	byKey map[string]int
}

var validate = validator.New()

func NewPages(configs ...CategoryConfig) (*Pages, error) {
	p := &Pages{
		list:  make([]CategoryConfig, 0, len(configs)),
		byKey: make(map[string]int, len(configs)),
	}
	for _, c := range configs {
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Key, err)
		}
		if _, ok := p.byKey[c.Key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, c.Key)
		}
		p.byKey[c.Key] = len(p.list)
		p.list = append(p.list, c)
	}
	return p, nil
}

func (p *Pages) Get(key string) (CategoryConfig, error) {
	idx, ok := p.byKey[key]
	if !ok {
		return CategoryConfig{}, fmt.Errorf("%w: %s", ErrUnknownCategory, key)
	}
	return p.list[idx], nil
}

func (p *Pages) List() []CategoryConfig {
	return append([]CategoryConfig(nil), p.list...)
}

type pagesFile struct {
	Pages []CategoryConfig `yaml:"pages"`
}

// LoadPages reads the pages from a YAML file, or returns the built-in pages when
// path is empty.
//
//	pages:
//	  - key: helmets
//	    title: Мотошлемы
//	    category: Мотошлемы
//	    typeField: helmetType
//	    facets:
//	      - { field: brand, label: Бренд }
func LoadPages(path string) (*Pages, error) {
	if path == "" {
		return NewPages(DefaultConfigs()...)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePages(data)
}

func ParsePages(data []byte) (*Pages, error) {
	var file pagesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return NewPages(file.Pages...)
}
