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

// Package asset defines the authoritative digital-asset record and the
// small value types that travel with it (Location, Dimensions,
// SearchResult), plus the derived-attribute rules that every other
// package must use consistently (best_date, location matching).
package asset

import (
	"strings"
	"time"
)

// Dimensions is the width x height, in pixels, of an image or video asset.
type Dimensions struct {
	Width, Height uint32
}

// Location is a structured place. Any of its three fields may be empty.
type Location struct {
	Label  string
	City   string
	Region string
}

// HasValues reports whether any field of loc is non-empty.
func (loc Location) HasValues() bool {
	return loc.Label != "" || loc.City != "" || loc.Region != ""
}

// Equal is componentwise equality.
func (loc Location) Equal(other Location) bool {
	return loc.Label == other.Label && loc.City == other.City && loc.Region == other.Region
}

// IndexValues returns the lowercased set of non-empty fields, used to
// build by_location index entries.
func (loc Location) IndexValues() []string {
	var out []string
	for _, v := range []string{loc.Label, loc.City, loc.Region} {
		if v != "" {
			out = append(out, strings.ToLower(v))
		}
	}
	return out
}

// PartialMatch reports whether any of loc's three fields, lowercased,
// equals query exactly. query is expected to already be lowercased by
// the caller (callers pass query.ToLower() in per spec.md §4.7).
func (loc Location) PartialMatch(query string) bool {
	if loc.Label != "" && strings.ToLower(loc.Label) == query {
		return true
	}
	if loc.City != "" && strings.ToLower(loc.City) == query {
		return true
	}
	if loc.Region != "" && strings.ToLower(loc.Region) == query {
		return true
	}
	return false
}

// Asset is the authoritative record for one stored media file.
type Asset struct {
	// Key is the base64 of a lowercase relative path
	// YYYY/MM/DD/HHMM/<ulid>[.ext]; it both identifies the asset and
	// determines its blob location.
	Key string
	// Checksum is "sha256-<hex>" of the original file bytes.
	Checksum string
	// Filename is the original name at ingest; never empty.
	Filename string
	// ByteLength is the exact file size at ingest.
	ByteLength uint64
	// MediaType is the MIME essence, e.g. "image/jpeg".
	MediaType string
	// Tags are user-assigned, lowercased for indexing by the caller.
	Tags []string
	// ImportDate is assigned by Import and never changes.
	ImportDate time.Time
	// Caption is free text; may contain #tag and @location fragments.
	Caption *string
	// Location is the structured place, if any.
	Location *Location
	// UserDate is a user override of the asset's date.
	UserDate *time.Time
	// OriginalDate is extracted from file metadata at ingest.
	OriginalDate *time.Time
	// Dimensions is width x height for images.
	Dimensions *Dimensions
}

// BestDate is user_date ?? original_date ?? import_date.
func (a *Asset) BestDate() time.Time {
	if a.UserDate != nil {
		return *a.UserDate
	}
	if a.OriginalDate != nil {
		return *a.OriginalDate
	}
	return a.ImportDate
}

// IsNewborn reports whether a has no tags, no caption, and no location
// label (city/region alone do not disqualify it). A caption explicitly
// set to "" still counts as newborn here; only a non-empty caption
// disqualifies.
func (a *Asset) IsNewborn() bool {
	if len(a.Tags) > 0 {
		return false
	}
	if a.Caption != nil && *a.Caption != "" {
		return false
	}
	if a.Location != nil && a.Location.Label != "" {
		return false
	}
	return true
}

// SearchResult is the projection of an Asset carried in index payloads
// and returned from queries. AssetID never carries the "asset/" prefix.
type SearchResult struct {
	AssetID   string
	Filename  string
	MediaType string
	Location  *Location
	Datetime  time.Time
}

// ToSearchResult projects a into a SearchResult keyed by id (which must
// already have the "asset/" prefix stripped).
func (a *Asset) ToSearchResult(id string) SearchResult {
	return SearchResult{
		AssetID:   id,
		Filename:  a.Filename,
		MediaType: a.MediaType,
		Location:  a.Location,
		Datetime:  a.BestDate(),
	}
}
