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

package entitysource

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/errs"
	"github.com/nlfiedler/tanuki/internal/kvstore"
)

type countingInvalidator struct{ clears int }

func (c *countingInvalidator) Clear() { c.clears++ }

func newTestStore(t *testing.T) (*Store, *countingInvalidator) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "db")
	kv, err := kvstore.Registry.Open(dir, kvstore.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })
	inv := &countingInvalidator{}
	return New(kv, inv, nil), inv
}

func mkAsset(key, checksum, mediaType string, tags []string, when time.Time) *asset.Asset {
	return &asset.Asset{
		Key:        key,
		Checksum:   checksum,
		Filename:   key + ".jpg",
		MediaType:  mediaType,
		Tags:       tags,
		ImportDate: when,
	}
}

func TestPutGetByIDAndDigest(t *testing.T) {
	s, inv := newTestStore(t)
	a := mkAsset("k1", "sha256-abc", "image/jpeg", []string{"cat"}, time.Unix(1000, 0))
	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}
	if inv.clears != 1 {
		t.Fatalf("want 1 cache clear, got %d", inv.clears)
	}
	got, err := s.GetByID("k1")
	if err != nil || got.Checksum != "sha256-abc" {
		t.Fatalf("got %+v, %v", got, err)
	}
	got2, err := s.GetByDigest("SHA256-ABC")
	if err != nil || got2.Key != "k1" {
		t.Fatalf("digest lookup case-insensitive failed: %+v, %v", got2, err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.GetByID("missing")
	if !errs.Is(err, errs.NotFound) {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestDeleteRemovesIndexEntries(t *testing.T) {
	s, inv := newTestStore(t)
	a := mkAsset("k1", "sha256-abc", "image/jpeg", []string{"cat"}, time.Unix(1000, 0))
	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete("k1"); err != nil {
		t.Fatal(err)
	}
	if inv.clears != 2 {
		t.Fatalf("want 2 cache clears, got %d", inv.clears)
	}
	if _, err := s.GetByID("k1"); !errs.Is(err, errs.NotFound) {
		t.Fatalf("want NotFound after delete, got %v", err)
	}
	results, err := s.QueryByTags([]string{"cat"})
	if err != nil || len(results) != 0 {
		t.Fatalf("want no tag entries after delete, got %+v", results)
	}
}

func TestPutReindexesOnTagChange(t *testing.T) {
	s, _ := newTestStore(t)
	a := mkAsset("k1", "sha256-abc", "image/jpeg", []string{"cat"}, time.Unix(1000, 0))
	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}
	a.Tags = []string{"dog"}
	if err := s.Put(a); err != nil {
		t.Fatal(err)
	}
	if res, _ := s.QueryByTags([]string{"cat"}); len(res) != 0 {
		t.Fatalf("stale cat entry should be gone, got %+v", res)
	}
	if res, _ := s.QueryByTags([]string{"dog"}); len(res) != 1 {
		t.Fatalf("want 1 dog entry, got %+v", res)
	}
}

func TestQueryByTagsIntersection(t *testing.T) {
	s, _ := newTestStore(t)
	must(t, s.Put(mkAsset("a1", "c1", "image/jpeg", []string{"cat", "dog"}, time.Unix(1, 0))))
	must(t, s.Put(mkAsset("a2", "c2", "image/jpeg", []string{"cat", "mouse"}, time.Unix(2, 0))))
	must(t, s.Put(mkAsset("a3", "c3", "image/jpeg", []string{"bird", "dog"}, time.Unix(3, 0))))

	res, err := s.QueryByTags([]string{"cat", "dog"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0].AssetID != "a1" {
		t.Fatalf("want exactly a1, got %+v", res)
	}
}

func TestQueryByLocationsUnion(t *testing.T) {
	s, _ := newTestStore(t)
	paris := mkAsset("a1", "c1", "image/jpeg", nil, time.Unix(1, 0))
	paris.Location = &asset.Location{City: "Paris"}
	texas := mkAsset("a2", "c2", "image/jpeg", nil, time.Unix(2, 0))
	texas.Location = &asset.Location{Region: "Texas"}
	must(t, s.Put(paris))
	must(t, s.Put(texas))

	res, err := s.QueryByLocations([]string{"paris", "texas"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 2 {
		t.Fatalf("want union of 2, got %+v", res)
	}
}

func TestCountAssetsAndAllAssets(t *testing.T) {
	s, _ := newTestStore(t)
	must(t, s.Put(mkAsset("a1", "c1", "image/jpeg", nil, time.Unix(1, 0))))
	must(t, s.Put(mkAsset("a2", "c2", "image/jpeg", nil, time.Unix(2, 0))))
	n, err := s.CountAssets()
	if err != nil || n != 2 {
		t.Fatalf("want 2, got %d %v", n, err)
	}
	ids, err := s.AllAssets()
	if err != nil || len(ids) != 2 {
		t.Fatalf("want 2 ids, got %v %v", ids, err)
	}
}

func TestFetchAssetsPaging(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 5; i++ {
		must(t, s.Put(mkAsset(string(rune('a'+i)), "c", "image/jpeg", nil, time.Unix(int64(i), 0))))
	}
	page1, cursor, err := s.FetchAssets("", 2)
	if err != nil || len(page1) != 2 || cursor == "" {
		t.Fatalf("page1: %v %q %v", page1, cursor, err)
	}
	page2, cursor2, err := s.FetchAssets(cursor, 2)
	if err != nil || len(page2) != 2 {
		t.Fatalf("page2: %v %q %v", page2, cursor2, err)
	}
	page3, cursor3, err := s.FetchAssets(cursor2, 2)
	if err != nil || len(page3) != 1 || cursor3 != "" {
		t.Fatalf("page3: %v %q %v", page3, cursor3, err)
	}
}

func TestQueryDateRangeEpochCrossing(t *testing.T) {
	s, _ := newTestStore(t)
	// 1940-ish pre-epoch, two post-epoch dates straddling a wide range.
	must(t, s.Put(mkAsset("old", "c1", "image/jpeg", nil, time.Date(1940, 6, 1, 0, 0, 0, 0, time.UTC))))
	must(t, s.Put(mkAsset("a1", "c2", "image/jpeg", nil, time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC))))
	must(t, s.Put(mkAsset("a2", "c3", "image/jpeg", nil, time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC))))
	must(t, s.Put(mkAsset("a3", "c4", "image/jpeg", nil, time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC))))

	after := time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := s.QueryDateRange(after, before)
	if err != nil {
		t.Fatal(err)
	}
	years := map[int]bool{}
	for _, sr := range res {
		years[sr.Datetime.Year()] = true
	}
	if len(res) != 4 || !years[1940] || !years[2011] || !years[2013] || !years[2015] {
		t.Fatalf("want 4 results spanning {1940,2011,2013,2015}, got %+v", res)
	}
}

func TestAggregatesAndRawLocations(t *testing.T) {
	s, _ := newTestStore(t)
	a := mkAsset("a1", "c1", "image/jpeg", []string{"cat", "dog"}, time.Unix(1, 0))
	a.Location = &asset.Location{Label: "Home", City: "Paris"}
	must(t, s.Put(a))

	tags, err := s.AllTags()
	if err != nil || len(tags) != 2 {
		t.Fatalf("want 2 tags, got %+v %v", tags, err)
	}
	locs, err := s.RawLocations()
	if err != nil || len(locs) != 1 || locs[0].City != "Paris" {
		t.Fatalf("want 1 raw location, got %+v %v", locs, err)
	}
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
