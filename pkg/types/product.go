package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Product is an open product record as delivered by the product source.
// The engine only ever reads from it.
type Product map[string]any

const (
	FieldId           = "id"
	FieldName         = "name"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldBrand        = "brand"
	FieldCategory     = "category"
	FieldPrice        = "price"
	FieldDiscount     = "discount"
	FieldInStock      = "inStock"
	FieldRating       = "rating"
	FieldPopularity   = "popularity"
	FieldCountInStock = "countInStock"
	FieldCreatedAt    = "createdAt"
)

func (p Product) GetId() string {
	v, _ := p.GetStringFieldValue(FieldId)
	return v
}

// GetTitle returns name, falling back to title.
func (p Product) GetTitle() string {
	if v, ok := p.GetStringFieldValue(FieldName); ok {
		return v
	}
	v, _ := p.GetStringFieldValue(FieldTitle)
	return v
}

func (p Product) GetCategory() string {
	v, _ := p.GetStringFieldValue(FieldCategory)
	return v
}

func (p Product) GetPrice() float64 {
	return p.GetNumberFieldValue(FieldPrice)
}

func (p Product) GetDiscount() float64 {
	return p.GetNumberFieldValue(FieldDiscount)
}

func (p Product) GetRating() float64 {
	return p.GetNumberFieldValue(FieldRating)
}

// GetPopularity returns popularity, falling back to countInStock.
func (p Product) GetPopularity() float64 {
	if _, ok := p[FieldPopularity]; ok {
		return p.GetNumberFieldValue(FieldPopularity)
	}
	return p.GetNumberFieldValue(FieldCountInStock)
}

// HasStock is true only for an explicit true value.
func (p Product) HasStock() bool {
	switch v := p[FieldInStock].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return false
}

func (p Product) GetCreated() time.Time {
	switch v := p[FieldCreatedAt].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	case time.Time:
		return v
	case map[string]any:
		// firestore style timestamp {seconds, nanoseconds}
		secs := ToNumber(v["seconds"])
		return time.Unix(int64(secs), int64(ToNumber(v["nanoseconds"])))
	}
	if n := p.GetNumberFieldValue(FieldCreatedAt); n > 0 {
		return time.UnixMilli(int64(n))
	}
	return time.Time{}
}

// GetNumberFieldValue coerces the field to a number; anything missing or malformed is 0.
func (p Product) GetNumberFieldValue(field string) float64 {
	return ToNumber(p[field])
}

// GetStringFieldValue returns the trimmed string form of a scalar field.
func (p Product) GetStringFieldValue(field string) (string, bool) {
	v, ok := p[field]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(formatScalar(v))
	return s, s != ""
}

// GetStringsFieldValue returns every non-empty value of a field. Lists contribute one
// value per element and strings are split on ';'.
func (p Product) GetStringsFieldValue(field string) []string {
	v, ok := p[field]
	if !ok || v == nil {
		return nil
	}
	ret := make([]string, 0, 1)
	add := func(s string) {
		for part := range strings.SplitSeq(s, ";") {
			part = strings.TrimSpace(part)
			if part != "" {
				ret = append(ret, part)
			}
		}
	}
	switch typed := v.(type) {
	case []any:
		for _, e := range typed {
			if e != nil {
				add(formatScalar(e))
			}
		}
	case []string:
		for _, e := range typed {
			add(e)
		}
	default:
		add(formatScalar(typed))
	}
	return ret
}

func formatScalar(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	}
	return ""
}

// ToNumber is the lenient numeric coercion used for every numeric product field.
func ToNumber(v any) float64 {
	var f float64
	switch typed := v.(type) {
	case float64:
		f = typed
	case float32:
		f = float64(typed)
	case int:
		f = float64(typed)
	case int32:
		f = float64(typed)
	case int64:
		f = float64(typed)
	case uint:
		f = float64(typed)
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(typed, ",", ".")), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
