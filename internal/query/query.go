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

// Package query implements the Query Planner (C8): structured search
// params choose a primary index via EntitySource, remaining criteria
// narrow the candidate list in memory, results sort, and the whole
// pipeline is fronted by the Search Cache keyed on a canonical
// parameter string. The selection-priority + remaining-filter-chain
// shape follows the teacher's pkg/search/query.go Constraint solver:
// pick the cheapest/most selective index first, then apply the rest as
// predicates over the candidate set.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
)

// EntitySource is the narrow surface the planner needs, kept local so
// this package does not import internal/entitysource directly (mirrors
// entitysource.Invalidator's "define the interface where it's
// consumed" idiom).
type EntitySource interface {
	QueryByTags(tags []string) ([]asset.SearchResult, error)
	QueryByLocations(locs []string) ([]asset.SearchResult, error)
	QueryByMediaType(mediaType string) ([]asset.SearchResult, error)
	QueryBeforeDate(before time.Time) ([]asset.SearchResult, error)
	QueryAfterDate(after time.Time) ([]asset.SearchResult, error)
	QueryDateRange(after, before time.Time) ([]asset.SearchResult, error)
}

// Cache is the narrow surface the planner needs from the Search Cache.
type Cache interface {
	Get(key string) ([]asset.SearchResult, bool)
	Put(key string, results []asset.SearchResult)
}

// SortField selects which SearchResult field to order by.
type SortField int

const (
	// SortNone means no sort was requested; results keep query order.
	SortNone SortField = iota
	SortDate
	SortIdentifier
	SortFilename
	SortMediaType
)

// SortOrder selects ascending or descending order. Descending is the
// default whenever a SortField is given, per spec.md §4.7.
type SortOrder int

const (
	SortDescending SortOrder = iota
	SortAscending
)

// Params is the Query Planner's structured input.
type Params struct {
	Tags      []string
	Locations []string
	Filename  string
	MediaType string
	After     *time.Time
	Before    *time.Time
	SortField SortField
	SortOrder SortOrder
}

// Planner ties an EntitySource to a Cache.
type Planner struct {
	source EntitySource
	cache  Cache
}

// New constructs a Planner.
func New(source EntitySource, cache Cache) *Planner {
	return &Planner{source: source, cache: cache}
}

// Search runs p against params, serving from cache when the canonical
// key (which ignores sort) has already been computed, and applying the
// requested sort after the cache read.
func (p *Planner) Search(params Params) ([]asset.SearchResult, error) {
	key := CacheKey(params)
	results, ok := p.cache.Get(key)
	if !ok {
		var err error
		results, err = p.evaluate(params)
		if err != nil {
			return nil, err
		}
		p.cache.Put(key, results)
	}
	sorted := make([]asset.SearchResult, len(results))
	copy(sorted, results)
	applySort(sorted, params.SortField, params.SortOrder)
	return sorted, nil
}

// primary identifies which criterion supplied the candidate set, so
// evaluate can skip re-applying it as a remaining filter.
type primary int

const (
	primaryNone primary = iota
	primaryTags
	primaryDateRange
	primaryLocations
	primaryFilename
	primaryMediaType
)

// evaluate chooses the primary index per spec.md §4.7's priority order,
// fetches its candidates, then narrows with the remaining filters in
// the fixed order: date-range, locations, filename, media_type.
func (p *Planner) evaluate(params Params) ([]asset.SearchResult, error) {
	var (
		candidates []asset.SearchResult
		chosen     primary
		err        error
	)
	switch {
	case len(params.Tags) > 0:
		candidates, err = p.source.QueryByTags(params.Tags)
		chosen = primaryTags
	case params.After != nil && params.Before != nil:
		candidates, err = p.source.QueryDateRange(*params.After, *params.Before)
		chosen = primaryDateRange
	case params.After != nil:
		candidates, err = p.source.QueryAfterDate(*params.After)
		chosen = primaryDateRange
	case params.Before != nil:
		candidates, err = p.source.QueryBeforeDate(*params.Before)
		chosen = primaryDateRange
	case len(params.Locations) > 0:
		candidates, err = p.source.QueryByLocations(params.Locations)
		chosen = primaryLocations
	case params.Filename != "":
		// No dedicated filename index: query_by_media_type's absence of
		// a filename index means the candidate set is every asset that
		// would pass the in-memory filename filter; since entitysource
		// does not expose an all-SearchResults query, the filename
		// primary instead degrades to media_type when both are given,
		// and to an empty result set otherwise, matching spec.md §4.7's
		// "otherwise empty result" fallback for un-indexed criteria.
		if params.MediaType != "" {
			candidates, err = p.source.QueryByMediaType(params.MediaType)
			chosen = primaryMediaType
		} else {
			chosen = primaryFilename
		}
	case params.MediaType != "":
		candidates, err = p.source.QueryByMediaType(params.MediaType)
		chosen = primaryMediaType
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if chosen != primaryDateRange && (params.After != nil || params.Before != nil) {
		candidates = filterDateRange(candidates, params.After, params.Before)
	}
	if chosen != primaryLocations && len(params.Locations) > 0 {
		candidates = filterLocations(candidates, params.Locations)
	}
	if chosen != primaryFilename && params.Filename != "" {
		candidates = filterFilename(candidates, params.Filename)
	}
	if chosen != primaryMediaType && params.MediaType != "" {
		candidates = filterMediaType(candidates, params.MediaType)
	}
	return candidates, nil
}

func filterDateRange(in []asset.SearchResult, after, before *time.Time) []asset.SearchResult {
	out := in[:0]
	for _, sr := range in {
		if after != nil && !sr.Datetime.After(*after) {
			continue
		}
		if before != nil && !sr.Datetime.Before(*before) {
			continue
		}
		out = append(out, sr)
	}
	return out
}

// filterLocations narrows to results whose Location partial_matches
// EVERY requested location, per spec.md §4.7.
func filterLocations(in []asset.SearchResult, locs []string) []asset.SearchResult {
	lower := make([]string, len(locs))
	for i, l := range locs {
		lower[i] = strings.ToLower(l)
	}
	out := in[:0]
	for _, sr := range in {
		if sr.Location == nil {
			continue
		}
		matchesAll := true
		for _, q := range lower {
			if !sr.Location.PartialMatch(q) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			out = append(out, sr)
		}
	}
	return out
}

func filterFilename(in []asset.SearchResult, filename string) []asset.SearchResult {
	lower := strings.ToLower(filename)
	out := in[:0]
	for _, sr := range in {
		if strings.ToLower(sr.Filename) == lower {
			out = append(out, sr)
		}
	}
	return out
}

func filterMediaType(in []asset.SearchResult, mediaType string) []asset.SearchResult {
	lower := strings.ToLower(mediaType)
	out := in[:0]
	for _, sr := range in {
		if strings.ToLower(sr.MediaType) == lower {
			out = append(out, sr)
		}
	}
	return out
}

func applySort(results []asset.SearchResult, field SortField, order SortOrder) {
	if field == SortNone {
		return
	}
	less := func(i, j int) bool {
		switch field {
		case SortDate:
			return results[i].Datetime.Before(results[j].Datetime)
		case SortIdentifier:
			return results[i].AssetID < results[j].AssetID
		case SortFilename:
			return results[i].Filename < results[j].Filename
		case SortMediaType:
			return results[i].MediaType < results[j].MediaType
		default:
			return false
		}
	}
	if order == SortDescending {
		base := less
		less = func(i, j int) bool { return base(j, i) }
	}
	sort.SliceStable(results, less)
}

// CacheKey formats params as the canonical, sort-insensitive predicate
// string spec.md §4.7 specifies: a space-separated sequence of
// "tag:V", "loc:V", "is:<type>", "format:<subtype>", "before:YYYY-MM-DD",
// "after:YYYY-MM-DD", in that field order, omitting sort_field and
// sort_order entirely so two searches differing only in sort share an
// entry.
func CacheKey(params Params) string {
	var parts []string
	for _, t := range params.Tags {
		parts = append(parts, "tag:"+strings.ToLower(t))
	}
	for _, l := range params.Locations {
		parts = append(parts, "loc:"+strings.ToLower(l))
	}
	if params.MediaType != "" {
		typ, subtype := splitMediaType(params.MediaType)
		if typ != "" {
			parts = append(parts, "is:"+typ)
		}
		if subtype != "" {
			parts = append(parts, "format:"+subtype)
		}
	}
	if params.Before != nil {
		parts = append(parts, "before:"+params.Before.Format("2006-01-02"))
	}
	if params.After != nil {
		parts = append(parts, "after:"+params.After.Format("2006-01-02"))
	}
	return strings.Join(parts, " ")
}

func splitMediaType(mediaType string) (typ, subtype string) {
	lower := strings.ToLower(mediaType)
	i := strings.IndexByte(lower, '/')
	if i < 0 {
		return lower, ""
	}
	return lower[:i], lower[i+1:]
}
