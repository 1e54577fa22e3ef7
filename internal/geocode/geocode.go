/*
Copyright 2024 The Tanuki Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package geocode shapes a reverse-geocoding collaborator's raw
// {city, region, country} answer into an asset.Location, per spec.md
// §4.10. The singleflight-per-key dedup of concurrent identical lookups
// follows the teacher's pkg/geocode/geocode.go Lookup function, which
// folds repeat requests for the same address into one outbound call.
package geocode

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go4.org/syncutil/singleflight"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/errs"
	"github.com/nlfiedler/tanuki/internal/logging"
)

// Result is the raw answer from a reverse-geocoding collaborator.
// Fields may be empty.
type Result struct {
	City    string
	Region  string
	Country string
}

// Reverser is the collaborator interface Import consumes: a
// latitude/longitude pair in, a best-effort place name out. Consumed
// only — no implementation is mandated by spec.md §4.10.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (Result, error)
}

// Geocoder wraps a Reverser with per-coordinate coalescing of concurrent
// requests, and converts results to asset.Location under spec.md
// §4.10's promotion rules. Resolved coordinates are not cached: each
// non-overlapping call reaches the Reverser.
type Geocoder struct {
	reverser Reverser
	log      logging.Logger
	sf       singleflight.Group
}

// New constructs a Geocoder over reverser.
func New(reverser Reverser, log logging.Logger) *Geocoder {
	return &Geocoder{reverser: reverser, log: log}
}

func coordKey(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lon, 'f', 6, 64)
}

// Locate reverse-geocodes (lat, lon) into a Location. Failures are
// non-fatal: Import proceeds without a location, so Locate logs the
// failure via internal/logging and returns (nil, nil) rather than
// propagating an errs.External.
func (g *Geocoder) Locate(ctx context.Context, lat, lon float64) (*asset.Location, error) {
	key := coordKey(lat, lon)
	resi, err := g.sf.Do(key, func() (any, error) {
		return g.reverser.Reverse(ctx, lat, lon)
	})
	if err != nil {
		logging.External(g.log, "geocode.Locate", errs.E(errs.External, "geocode.Locate", err))
		return nil, nil
	}
	res := resi.(Result)
	loc := shapeLocation(res)
	if loc == nil {
		return nil, nil
	}
	return loc, nil
}

// shapeLocation applies spec.md §4.10's promotion rules: if city is
// absent but region is present, promote region into city and country
// into region; if city equals region, or region starts or ends with
// the city string, replace region with country.
func shapeLocation(res Result) *asset.Location {
	city, region := res.City, res.Region
	if city == "" && region != "" {
		city = region
		region = res.Country
	} else if city != "" && region != "" {
		lowerCity, lowerRegion := strings.ToLower(city), strings.ToLower(region)
		if lowerCity == lowerRegion ||
			strings.HasPrefix(lowerRegion, lowerCity) ||
			strings.HasSuffix(lowerRegion, lowerCity) {
			region = res.Country
		}
	}
	if city == "" && region == "" {
		return nil
	}
	return &asset.Location{City: city, Region: region}
}

// String formats the city, region and country of r for logging/debugging.
func (r Result) String() string {
	return fmt.Sprintf("{city:%q region:%q country:%q}", r.City, r.Region, r.Country)
}
