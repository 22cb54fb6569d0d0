// Package datasource loads map features from disk and builds the playable
// region catalog for each mode.
package datasource

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/pkg/region"
)

// KentTownCount is how many towns a kent-towns session plays with.
const KentTownCount = 20

// DefaultUKRegion is the region of a county without a nation property.
const DefaultUKRegion = "United Kingdom"

var countyRegionKeys = append([]string{"CTYUA22NMW", "ctyua22nmw"}, region.GroupKeys...)

// LoadFile reads a GeoJSON FeatureCollection from path.
func LoadFile(path string) ([]region.Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open features: %w", err)
	}
	defer f.Close()
	features, err := region.LoadFeatures(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	return features, nil
}

// LoadMode reads the data file for mode from dir.
func LoadMode(dir string, mode model.Mode) ([]region.Feature, error) {
	return LoadFile(filepath.Join(dir, mode.DataFile()))
}

// Regions builds one region per indexable feature. Codes are the canonical
// identifiers the render engine indexes by, so a region's Code can be passed
// straight to the engine. Repeated codes keep the first feature.
func Regions(mode model.Mode, features []region.Feature) []model.Region {
	seen := make(map[string]bool, len(features))
	out := make([]model.Region, 0, len(features))
	for _, f := range features {
		code := region.ResolveIdentifier(f)
		if code == "" || seen[strings.ToUpper(code)] {
			continue
		}
		seen[strings.ToUpper(code)] = true

		r := model.Region{
			Code: code,
			Name: region.ResolveName(f, code),
		}
		switch mode {
		case model.ModeUKCounties:
			r.Region = region.ResolveGroup(f, countyRegionKeys)
			if r.Region == "" {
				r.Region = DefaultUKRegion
			}
		default:
			r.Region = region.ResolveGroup(f, region.GroupKeys)
		}
		out = append(out, r)
	}
	return out
}

// RandomSubset returns up to n regions in random order. A nil rng uses the
// global source.
func RandomSubset(regions []model.Region, n int, rng *rand.Rand) []model.Region {
	if n <= 0 || len(regions) == 0 {
		return nil
	}
	picked := make([]model.Region, len(regions))
	copy(picked, regions)
	swap := func(i, j int) { picked[i], picked[j] = picked[j], picked[i] }
	if rng != nil {
		rng.Shuffle(len(picked), swap)
	} else {
		rand.Shuffle(len(picked), swap)
	}
	if n < len(picked) {
		picked = picked[:n]
	}
	return picked
}

// FilterFeatures keeps the features whose identifier is among regions.
func FilterFeatures(features []region.Feature, regions []model.Region) []region.Feature {
	keep := make(map[string]bool, len(regions))
	for _, r := range regions {
		keep[strings.ToUpper(r.Code)] = true
	}
	var out []region.Feature
	for _, f := range features {
		if keep[strings.ToUpper(region.ResolveIdentifier(f))] {
			out = append(out, f)
		}
	}
	return out
}
