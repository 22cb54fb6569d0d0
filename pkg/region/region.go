// Package region resolves stable identifiers and display names for map
// features whose source data uses inconsistent property schemes (ISO codes,
// ONS GSS codes, census area codes, plain names).
package region

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
)

// Properties is the attribute bag carried by a feature. Values are strings
// or numbers; anything else is ignored by the resolvers.
type Properties map[string]any

// Feature is one region shape with its attributes. ID is the feature-level
// identifier from the source file, empty when absent.
type Feature struct {
	ID         string
	Shape      geo.Shape
	Properties Properties
}

// String returns the trimmed textual form of a property, or "" when the key is
// missing, blank or not a scalar.
func (p Properties) String(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	return scalar(v)
}

func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return strings.TrimSpace(x.String())
	}
	return ""
}

// Accessor is one named strategy for pulling a value out of a feature.
type Accessor struct {
	Name string
	Get  func(Feature) string
}

// Prop reads the first non-blank property among keys.
func Prop(keys ...string) Accessor {
	return Accessor{
		Name: "prop:" + strings.Join(keys, "|"),
		Get: func(f Feature) string {
			for _, k := range keys {
				if v := f.Properties.String(k); v != "" {
					return v
				}
			}
			return ""
		},
	}
}

// Cased reads key in its lowercase and uppercase spellings.
func Cased(key string) Accessor {
	return Prop(strings.ToLower(key), strings.ToUpper(key))
}

// FeatureID reads the feature-level identifier.
func FeatureID() Accessor {
	return Accessor{
		Name: "feature-id",
		Get:  func(f Feature) string { return strings.TrimSpace(f.ID) },
	}
}

// KeyScan walks every property key in sorted order and returns the first
// non-blank value whose lowercased key satisfies match.
func KeyScan(name string, match func(lowerKey string) bool) Accessor {
	return Accessor{
		Name: "scan:" + name,
		Get: func(f Feature) string {
			keys := make([]string, 0, len(f.Properties))
			for k := range f.Properties {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if !match(strings.ToLower(k)) {
					continue
				}
				if v := f.Properties.String(k); v != "" {
					return v
				}
			}
			return ""
		},
	}
}

// Resolve evaluates accessors in order and returns the first non-blank value.
func Resolve(f Feature, accessors []Accessor) string {
	for _, a := range accessors {
		if v := a.Get(f); v != "" {
			return v
		}
	}
	return ""
}

// IdentifierAccessors is the priority order for canonical identifiers:
// administrative codes, then global ids, then the feature id, then generic
// name fields, then a scan for any code-like key.
var IdentifierAccessors = []Accessor{
	Cased("ctyua23cd"),
	Cased("ctyua22cd"),
	Cased("ctyua21cd"),
	Cased("lad23cd"),
	Cased("lad22cd"),
	Cased("gss_code"),
	Cased("gsscode"),
	Cased("iso_a3"),
	Cased("iso_a2"),
	Prop("code", "Code", "CODE"),
	Prop("globalid", "GLOBALID", "GlobalID"),
	FeatureID(),
	Cased("name"),
	Cased("admin"),
	Cased("formal_en"),
	KeyScan("code", func(k string) bool {
		switch k {
		case "ctyua21cd", "ctyua22cd", "ctyua23cd":
			return true
		}
		return strings.HasSuffix(k, "code")
	}),
}

// NameAccessors is the priority order for display names.
var NameAccessors = []Accessor{
	Cased("name"),
	Cased("admin"),
	Cased("formal_en"),
	Cased("ctyua22nm"),
	Cased("ctyua21nm"),
	Cased("ctyua23nm"),
	Cased("lad22nm"),
	Cased("lad23nm"),
}

// GroupKeys are the properties that classify a feature into a larger area
// such as a continent, a UK nation or a county sub-region.
var GroupKeys = []string{
	"region", "REGION",
	"kent_region", "KentRegion",
	"country_region", "CountryRegion",
	"continent", "CONTINENT",
	"continent_na", "REGION_UN",
}

// ResolveIdentifier returns the canonical identifier of f, or "" when the
// feature cannot be indexed.
func ResolveIdentifier(f Feature) string {
	return Resolve(f, IdentifierAccessors)
}

// ResolveName returns the display name of f, falling back to fallback.
func ResolveName(f Feature, fallback string) string {
	if v := Resolve(f, NameAccessors); v != "" {
		return v
	}
	return fallback
}

// ResolveGroup returns the first non-blank value among keys.
func ResolveGroup(f Feature, keys []string) string {
	return Prop(keys...).Get(f)
}
