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

package scanquery

import (
	"github.com/nlfiedler/tanuki/internal/asset"
)

// BatchSize is the cursor-pagination page size the Scan usecase reads
// at, per spec.md §4.8.
const BatchSize = 1024

// AssetPager is the narrow paging surface scanquery needs from the
// entity source, defined consumer-side so this package does not import
// internal/entitysource.
type AssetPager interface {
	FetchAssets(cursor string, count int) ([]*asset.Asset, string, error)
}

// Cache is the narrow surface scanquery needs from the search cache,
// keyed on the raw query string itself per spec.md §4.8.
type Cache interface {
	Get(key string) ([]asset.SearchResult, bool)
	Put(key string, results []asset.SearchResult)
}

// Evaluator runs parsed scan queries over an AssetPager, caching
// materialized results under the raw query string.
type Evaluator struct {
	pager AssetPager
	cache Cache
}

// New constructs an Evaluator.
func New(pager AssetPager, cache Cache) *Evaluator {
	return &Evaluator{pager: pager, cache: cache}
}

// Scan parses query and evaluates it over every stored asset in
// BatchSize-sized pages, returning matches as SearchResults. The raw
// query string (not a canonicalized form) is the cache key, per
// spec.md §4.8.
func (e *Evaluator) Scan(query string) ([]asset.SearchResult, error) {
	if cached, ok := e.cache.Get(query); ok {
		return cached, nil
	}
	node, err := Parse(query)
	if err != nil {
		return nil, err
	}
	if _, ok := node.(Empty); ok {
		e.cache.Put(query, nil)
		return nil, nil
	}

	var results []asset.SearchResult
	cursor := ""
	for {
		assets, next, err := e.pager.FetchAssets(cursor, BatchSize)
		if err != nil {
			return nil, err
		}
		for _, a := range assets {
			if node.Eval(a) {
				results = append(results, a.ToSearchResult(assetIDOf(a)))
			}
		}
		if next == "" {
			break
		}
		cursor = next
	}
	e.cache.Put(query, results)
	return results, nil
}

// assetIDOf recovers the id SearchResult should carry. Asset.Key *is*
// that id (the base64 relative path), so this just documents the
// relationship at the one call site that needs it.
func assetIDOf(a *asset.Asset) string {
	return a.Key
}
