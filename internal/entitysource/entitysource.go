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

// Package entitysource wraps the KV store (C2) and the Index Engine (C3)
// behind the CRUD and typed-query surface of spec.md §4.4, the way the
// teacher's pkg/store wraps pkg/sorted + pkg/index behind a single
// higher-level contract. Asset records live under the "asset/" prefix;
// every mutation recomputes the asset's index entries, diffs them
// against whatever was previously stored, and commits record plus index
// delta in one kvstore.Batch.
package entitysource

import (
	"sort"
	"strings"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/assetindex"
	"github.com/nlfiedler/tanuki/internal/codec"
	"github.com/nlfiedler/tanuki/internal/errs"
	"github.com/nlfiedler/tanuki/internal/kvstore"
	"github.com/nlfiedler/tanuki/internal/logging"
)

// AssetPrefix namespaces every asset record's KV key.
const AssetPrefix = "asset/"

// Invalidator is the search cache's narrow surface as seen from here:
// every mutation clears it, per spec.md §4.4's "invalidates search
// cache" contract. A nil Invalidator is a valid no-op, so entitysource
// can be exercised and tested without wiring a cache.
type Invalidator interface {
	Clear()
}

// LabelCount is one entry of an all_X() aggregate: a distinct index key
// and how many assets carry it.
type LabelCount struct {
	Label string
	Count int
}

// Store is the Entity Source.
type Store struct {
	kv    kvstore.KeyValue
	cache Invalidator
	log   logging.Logger
}

// New constructs a Store over an already-open kvstore.KeyValue. cache
// and log may be nil.
func New(kv kvstore.KeyValue, cache Invalidator, log logging.Logger) *Store {
	return &Store{kv: kv, cache: cache, log: log}
}

func (s *Store) invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

func assetKey(id string) string { return AssetPrefix + id }

// GetByID is a point lookup; it fails with errs.NotFound if id is
// absent.
func (s *Store) GetByID(id string) (*asset.Asset, error) {
	v, err := s.kv.Get(assetKey(id))
	if err == kvstore.ErrNotFound {
		return nil, errs.E(errs.NotFound, "entitysource.GetByID", err)
	}
	if err != nil {
		return nil, errs.E(errs.IO, "entitysource.GetByID", err)
	}
	return codec.DecodeAsset(id, []byte(v))
}

// GetByDigest resolves checksum via the by_checksum index to at most
// one asset, then loads it.
func (s *Store) GetByDigest(checksum string) (*asset.Asset, error) {
	prefix := assetindex.Prefix(assetindex.ByChecksum, strings.ToLower(checksum))
	it := s.kv.PrefixScan(prefix)
	defer it.Close()
	if !it.Next() {
		return nil, errs.E(errs.NotFound, "entitysource.GetByDigest", nil)
	}
	id := it.Key()[len(prefix):]
	return s.GetByID(id)
}

// existingEntries loads the previously-stored asset (if any) under id
// and computes the index entries it currently occupies, so Put can
// diff them against the new entry set.
func (s *Store) existingEntries(id string) ([]assetindex.Entry, error) {
	prev, err := s.GetByID(id)
	if errs.Is(err, errs.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assetindex.EntriesFor(id, prev)
}

// Put upserts a, recomputing its index entries, removing any entries
// from a previous version of the same id that no longer apply, and
// invalidating the search cache. a.Key is used as the id.
func (s *Store) Put(a *asset.Asset) error {
	id := a.Key
	oldEntries, err := s.existingEntries(id)
	if err != nil {
		return err
	}
	newEntries, err := assetindex.EntriesFor(id, a)
	if err != nil {
		return errs.E(errs.Corrupt, "entitysource.Put", err)
	}
	newSet := make(map[string]bool, len(newEntries))
	for _, e := range newEntries {
		newSet[e.CompositeKey] = true
	}

	payload, err := codec.EncodeAsset(a)
	if err != nil {
		return errs.E(errs.Corrupt, "entitysource.Put", err)
	}

	b := kvstore.NewBatch()
	b.Put(assetKey(id), string(payload))
	for _, e := range oldEntries {
		if !newSet[e.CompositeKey] {
			b.Delete(e.CompositeKey)
		}
	}
	for _, e := range newEntries {
		b.Put(e.CompositeKey, string(e.Payload))
	}
	if err := s.kv.WriteBatch(b); err != nil {
		return errs.E(errs.IO, "entitysource.Put", err)
	}
	s.invalidate()
	return nil
}

// Delete removes the asset record and every index entry it occupies.
func (s *Store) Delete(id string) error {
	a, err := s.GetByID(id)
	if err != nil {
		return err
	}
	entries, err := assetindex.EntriesFor(id, a)
	if err != nil {
		return errs.E(errs.Corrupt, "entitysource.Delete", err)
	}
	b := kvstore.NewBatch()
	b.Delete(assetKey(id))
	for _, e := range entries {
		b.Delete(e.CompositeKey)
	}
	if err := s.kv.WriteBatch(b); err != nil {
		return errs.E(errs.IO, "entitysource.Delete", err)
	}
	s.invalidate()
	return nil
}

// CountAssets counts records under the asset/ prefix.
func (s *Store) CountAssets() (int, error) {
	it := s.kv.PrefixScan(AssetPrefix)
	defer it.Close()
	n := 0
	for it.Next() {
		n++
	}
	return n, nil
}

// aggregate counts distinct key parts under the named index.
func (s *Store) aggregate(name string) ([]LabelCount, error) {
	it := s.kv.PrefixScan(name + "/")
	defer it.Close()
	counts := map[string]int{}
	var order []string
	for it.Next() {
		kp, ok := assetindex.KeyPart(name, it.Key())
		if !ok {
			continue
		}
		if _, seen := counts[kp]; !seen {
			order = append(order, kp)
		}
		counts[kp]++
	}
	out := make([]LabelCount, 0, len(order))
	for _, kp := range order {
		out = append(out, LabelCount{Label: kp, Count: counts[kp]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

// AllLocations aggregates the by_location index.
func (s *Store) AllLocations() ([]LabelCount, error) { return s.aggregate(assetindex.ByLocation) }

// AllTags aggregates the by_tags index.
func (s *Store) AllTags() ([]LabelCount, error) { return s.aggregate(assetindex.ByTags) }

// AllYears aggregates the by_year index.
func (s *Store) AllYears() ([]LabelCount, error) { return s.aggregate(assetindex.ByYear) }

// AllMediaTypes aggregates the by_media_type index.
func (s *Store) AllMediaTypes() ([]LabelCount, error) { return s.aggregate(assetindex.ByMediaType) }

// RawLocations decodes each distinct raw_locations index key back into
// a Location.
func (s *Store) RawLocations() ([]asset.Location, error) {
	it := s.kv.PrefixScan(assetindex.RawLocation + "/")
	defer it.Close()
	seen := map[string]bool{}
	var out []asset.Location
	for it.Next() {
		kp, ok := assetindex.KeyPart(assetindex.RawLocation, it.Key())
		if !ok || seen[kp] {
			continue
		}
		seen[kp] = true
		out = append(out, assetindex.DecodeRawLocation(kp))
	}
	return out, nil
}

// decodePosting loads and decodes one index entry's SearchResult
// payload, recovering the asset id from the composite key.
func decodePosting(name, compositeKey, payload string) (asset.SearchResult, bool) {
	kp, ok := assetindex.KeyPart(name, compositeKey)
	if !ok {
		return asset.SearchResult{}, false
	}
	id := assetindex.AssetKeyOf(name, kp, compositeKey)
	sr, err := codec.DecodeSearchResult(id, []byte(payload))
	if err != nil {
		return asset.SearchResult{}, false
	}
	return sr, true
}

func (s *Store) scanExact(name, keyPart string) ([]asset.SearchResult, error) {
	prefix := assetindex.Prefix(name, keyPart)
	it := s.kv.PrefixScan(prefix)
	defer it.Close()
	var out []asset.SearchResult
	for it.Next() {
		if sr, ok := decodePosting(name, it.Key(), it.Value()); ok {
			out = append(out, sr)
		}
	}
	return out, nil
}

// QueryByTags returns assets present in *every* tag's posting list
// (set intersection), preserving the iteration order of the first
// posting list, per spec.md §4.3's set-intersection rule.
func (s *Store) QueryByTags(tags []string) ([]asset.SearchResult, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	first, err := s.scanExact(assetindex.ByTags, strings.ToLower(tags[0]))
	if err != nil {
		return nil, err
	}
	for _, tag := range tags[1:] {
		members, err := s.scanExact(assetindex.ByTags, strings.ToLower(tag))
		if err != nil {
			return nil, err
		}
		memberSet := make(map[string]bool, len(members))
		for _, sr := range members {
			memberSet[sr.AssetID] = true
		}
		kept := first[:0]
		for _, sr := range first {
			if memberSet[sr.AssetID] {
				kept = append(kept, sr)
			}
		}
		first = kept
	}
	return first, nil
}

// QueryByLocations returns the union of every location value's by_location
// candidates, deduplicated by asset id. Per spec.md §4.7, locations is a
// union-of-candidates primary selection; the AND-all narrowing of
// partial_match happens in the Query Planner when locations is not the
// primary criterion.
func (s *Store) QueryByLocations(locs []string) ([]asset.SearchResult, error) {
	seen := map[string]bool{}
	var out []asset.SearchResult
	for _, loc := range locs {
		members, err := s.scanExact(assetindex.ByLocation, strings.ToLower(loc))
		if err != nil {
			return nil, err
		}
		for _, sr := range members {
			if !seen[sr.AssetID] {
				seen[sr.AssetID] = true
				out = append(out, sr)
			}
		}
	}
	return out, nil
}

// QueryByMediaType is an exact lowercase match against by_media_type.
func (s *Store) QueryByMediaType(mediaType string) ([]asset.SearchResult, error) {
	return s.scanExact(assetindex.ByMediaType, strings.ToLower(mediaType))
}

func (s *Store) scanRanges(name string, ranges []assetindex.DateRange) ([]asset.SearchResult, error) {
	var out []asset.SearchResult
	for _, r := range ranges {
		it := s.kv.RangeScan(r.Low, r.High)
		for it.Next() {
			if sr, ok := decodePosting(name, it.Key(), it.Value()); ok {
				out = append(out, sr)
			}
		}
		it.Close()
	}
	return out, nil
}

// QueryBeforeDate returns assets whose by_date key is chronologically
// before, applying the epoch split of spec.md §4.7.
func (s *Store) QueryBeforeDate(before time.Time) ([]asset.SearchResult, error) {
	return s.scanRanges(assetindex.ByDate, assetindex.BeforeDateRanges(assetindex.ByDate, before))
}

// QueryAfterDate returns assets whose by_date key is chronologically
// after, applying the epoch split.
func (s *Store) QueryAfterDate(after time.Time) ([]asset.SearchResult, error) {
	return s.scanRanges(assetindex.ByDate, assetindex.AfterDateRanges(assetindex.ByDate, after))
}

// QueryDateRange returns assets whose by_date key falls in [after, before].
func (s *Store) QueryDateRange(after, before time.Time) ([]asset.SearchResult, error) {
	return s.scanRanges(assetindex.ByDate, assetindex.DateRangeRanges(assetindex.ByDate, after, before))
}

// QueryNewborn returns assets eligible for the newborn index with
// import_date after the given instant, unioning across the epoch when
// after is pre-epoch.
func (s *Store) QueryNewborn(after time.Time) ([]asset.SearchResult, error) {
	ranges := assetindex.NewbornAfterRanges(assetindex.Newborn, after, time.Now())
	return s.scanRanges(assetindex.Newborn, ranges)
}

// AllAssets scans every asset/ key, returning ids (prefix stripped).
func (s *Store) AllAssets() ([]string, error) {
	it := s.kv.PrefixScan(AssetPrefix)
	defer it.Close()
	var out []string
	for it.Next() {
		out = append(out, it.Key()[len(AssetPrefix):])
	}
	return out, nil
}

// FetchAssets pages through full Asset records in key order, starting
// at cursor (empty for the first page), returning up to count records
// plus the cursor to resume from, which is the first key not yet
// returned (empty when exhausted).
func (s *Store) FetchAssets(cursor string, count int) ([]*asset.Asset, string, error) {
	from := AssetPrefix
	if cursor != "" {
		from = cursor
	}
	pairs, next, err := s.kv.Seek(from, count)
	if err != nil {
		return nil, "", errs.E(errs.IO, "entitysource.FetchAssets", err)
	}
	out := make([]*asset.Asset, 0, len(pairs))
	for _, p := range pairs {
		if !strings.HasPrefix(p.Key, AssetPrefix) {
			next = ""
			break
		}
		id := p.Key[len(AssetPrefix):]
		a, err := codec.DecodeAsset(id, []byte(p.Value))
		if err != nil {
			logging.Batch(s.log, "entitysource.FetchAssets", id, err)
			continue
		}
		out = append(out, a)
	}
	if next != "" && !strings.HasPrefix(next, AssetPrefix) {
		next = ""
	}
	return out, next, nil
}

// StoreAssets bulk-upserts list, logging and continuing past any
// per-item failure other than an IO error on the KV handle itself, per
// spec.md §7's batch error policy.
func (s *Store) StoreAssets(list []*asset.Asset) error {
	for _, a := range list {
		if err := s.Put(a); err != nil {
			if errs.Is(err, errs.IO) {
				return err
			}
			logging.Batch(s.log, "entitysource.StoreAssets", a.Key, err)
		}
	}
	return nil
}
