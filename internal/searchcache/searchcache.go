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

// Package searchcache is the Search Cache (C7): an LRU of materialized
// SearchResult lists keyed by the Query Planner's canonical parameter
// string, using the same hashicorp/golang-lru wrapper idiom as
// internal/thumbnail's ThumbMeta-style cache (C6), just holding a
// different value type.
package searchcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nlfiedler/tanuki/internal/asset"
)

// DefaultCapacity is spec.md §4.2's config default for the search
// cache (small: distinct canonical queries churn quickly relative to
// thumbnails).
const DefaultCapacity = 2

// Cache holds materialized, unsorted query results keyed by canonical
// query string. Sorting happens after a cache read, so entries are
// shared across requests that differ only in sort_field/sort_order per
// spec.md §4.7.
type Cache struct {
	lru *lru.Cache[string, []asset.SearchResult]
}

// New constructs a Cache with the given capacity (DefaultCapacity if
// capacity <= 0).
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[string, []asset.SearchResult](capacity)
	if err != nil {
		panic(err)
	}
	return &Cache{lru: c}
}

// Get returns the cached results for key, if present.
func (c *Cache) Get(key string) ([]asset.SearchResult, bool) {
	return c.lru.Get(key)
}

// Put stores results under key.
func (c *Cache) Put(key string, results []asset.SearchResult) {
	c.lru.Add(key, results)
}

// Clear evicts every entry, called by entitysource on every mutation.
func (c *Cache) Clear() {
	c.lru.Purge()
}
