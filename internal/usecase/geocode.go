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

package usecase

import (
	"context"
	"path/filepath"

	"github.com/nlfiedler/tanuki/internal/logging"
)

// Geocoder is the bulk Geocode use case: a retroactive sweep over
// assets that were imported without a location (no GPS at capture
// time, or a geocoder outage during Import) attempting to fill one in
// now. Distinct from the Locator collaborator interface this package
// consumes; Geocoder is the orchestration around it.
type Geocoder struct {
	records  Records
	blobRoot string
	geo      Locator
	log      logging.Logger
}

// NewGeocoder constructs a Geocoder. log may be nil.
func NewGeocoder(records Records, blobRoot string, geo Locator, log logging.Logger) *Geocoder {
	return &Geocoder{records: records, blobRoot: blobRoot, geo: geo, log: log}
}

// Geocode re-reads GPS coordinates for every asset lacking a Location
// and geocodes those that have them, persisting the ones it fills in.
// It returns the count of assets updated.
func (g *Geocoder) Geocode(ctx context.Context) (int, error) {
	ids, err := g.records.AllAssets()
	if err != nil {
		return 0, err
	}
	filled := 0
	for _, id := range ids {
		ok, err := g.geocodeOne(ctx, id)
		if err != nil {
			logging.Batch(g.log, "usecase.Geocode", id, err)
			continue
		}
		if ok {
			filled++
		}
	}
	return filled, nil
}

func (g *Geocoder) geocodeOne(ctx context.Context, id string) (bool, error) {
	a, err := g.records.GetByID(id)
	if err != nil {
		return false, err
	}
	if a.Location != nil && a.Location.HasValues() {
		return false, nil
	}
	relPath, base64Err, utf8Err := decodeID(id)
	if base64Err || utf8Err {
		return false, nil
	}
	lat, lon, ok := exifGPSCoordinates(filepath.Join(g.blobRoot, relPath))
	if !ok {
		return false, nil
	}
	loc, err := g.geo.Locate(ctx, lat, lon)
	if err != nil || loc == nil {
		return false, nil
	}
	a.Location = loc
	if err := g.records.Put(a); err != nil {
		return false, err
	}
	return true, nil
}
