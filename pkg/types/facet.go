package types

// FacetDefinition maps a product field to a multi-select filter.
type FacetDefinition struct {
	Field string `json:"field" yaml:"field" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required"`
	// Type is a rendering hint, e.g. "brand" or "size".
	Type string `json:"valueType,omitempty" yaml:"type,omitempty"`
	Hide bool   `json:"hide,omitempty" yaml:"hide,omitempty"`
}

type NumberRange[V int | float64] struct {
	Min V `json:"min"`
	Max V `json:"max"`
}

func (r NumberRange[V]) Contains(v V) bool {
	return v >= r.Min && v <= r.Max
}

// Normalized swaps the bounds when they are reversed.
func (r NumberRange[V]) Normalized() NumberRange[V] {
	if r.Min > r.Max {
		return NumberRange[V]{Min: r.Max, Max: r.Min}
	}
	return r
}

// Clamp restricts the range to lie within outer.
func (r NumberRange[V]) Clamp(outer NumberRange[V]) NumberRange[V] {
	r = r.Normalized()
	return NumberRange[V]{
		Min: clamp(r.Min, outer.Min, outer.Max),
		Max: clamp(r.Max, outer.Min, outer.Max),
	}
}

func clamp[T int | float64](value, min, max T) T {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

type PriceBounds = NumberRange[float64]
