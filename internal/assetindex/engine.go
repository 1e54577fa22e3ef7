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

package assetindex

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/codec"
)

// Entry is one fully-built composite index entry, ready to write to the
// KV store as (CompositeKey, Payload). Payload is nil for payload-less
// indices (by_checksum, raw_locations, by_year).
type Entry struct {
	IndexName   string
	CompositeKey string
	Payload     []byte
}

// EntriesFor computes every index entry asset a emits under key
// assetKey, applying the eight map rules of spec.md §4.3. It has no
// side effects and touches no storage: it is the "pure map function"
// the Index Engine is specified around. Callers (entitysource) are
// responsible for diffing against any previously-stored entries and
// issuing the actual KV deletes/puts.
func EntriesFor(assetKey string, a *asset.Asset) ([]Entry, error) {
	sr := a.ToSearchResult(assetKey)
	srPayload, err := codec.EncodeSearchResult(sr)
	if err != nil {
		return nil, fmt.Errorf("assetindex: encoding search result: %w", err)
	}

	var out []Entry
	add := func(name, keyPart string, payload []byte) {
		out = append(out, Entry{
			IndexName:    name,
			CompositeKey: composite(name, keyPart, assetKey),
			Payload:      payload,
		})
	}

	// by_checksum: always, no payload.
	add(ByChecksum, strings.ToLower(a.Checksum), nil)

	// by_media_type: always, SearchResult payload.
	add(ByMediaType, strings.ToLower(a.MediaType), srPayload)

	// by_tags: one entry per tag.
	for _, tag := range a.Tags {
		add(ByTags, strings.ToLower(tag), srPayload)
	}

	// by_location: one entry per non-empty field.
	if a.Location != nil {
		for _, v := range a.Location.IndexValues() {
			add(ByLocation, v, srPayload)
		}
	}

	// raw_locations: only if location has values; no payload; raw case,
	// empties allowed, tab-joined label/city/region.
	if a.Location != nil && a.Location.HasValues() {
		raw := a.Location.Label + "\t" + a.Location.City + "\t" + a.Location.Region
		add(RawLocation, raw, nil)
	}

	best := a.BestDate()

	// by_year: always, no payload.
	add(ByYear, strconv.Itoa(best.Year()), nil)

	// by_date: always, SearchResult payload, using best_date.
	add(ByDate, EncodeTime(best), srPayload)

	// newborn: only if tags empty AND caption absent AND (location is
	// none OR location.label is none); keyed by import_date.
	if a.IsNewborn() {
		add(Newborn, EncodeTime(a.ImportDate), srPayload)
	}

	return out, nil
}

// DecodeRawLocation reverses the tab-joined raw_locations key part back
// into a Location, used by Entitysource.RawLocations.
func DecodeRawLocation(keyPart string) asset.Location {
	parts := strings.SplitN(keyPart, "\t", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return asset.Location{Label: parts[0], City: parts[1], Region: parts[2]}
}

// KeyPart recovers the un-encoded key part from a composite key stored
// under index `name`.
func KeyPart(name, compositeKey string) (string, bool) {
	return keyPartOf(name, compositeKey)
}

// AssetKeyOf recovers the asset key suffix from a composite key, given
// the key part it was built from.
func AssetKeyOf(name, keyPart, compositeKey string) string {
	prefixLen := len(Prefix(name, keyPart))
	return splitAssetKey(compositeKey, prefixLen)
}
