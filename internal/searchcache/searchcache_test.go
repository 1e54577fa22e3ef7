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

package searchcache

import (
	"testing"

	"github.com/nlfiedler/tanuki/internal/asset"
)

func TestPutGetAndClear(t *testing.T) {
	c := New(2)
	results := []asset.SearchResult{{AssetID: "a1"}}
	c.Put("tag:cat", results)
	got, ok := c.Get("tag:cat")
	if !ok || len(got) != 1 || got[0].AssetID != "a1" {
		t.Fatalf("got %+v, %v", got, ok)
	}
	c.Clear()
	if _, ok := c.Get("tag:cat"); ok {
		t.Fatal("expected cache to be empty after Clear")
	}
}

func TestSortInsensitiveKeySharing(t *testing.T) {
	// The cache itself is sort-agnostic: the planner is responsible for
	// omitting sort_field/sort_order from the key, so the same key
	// naturally serves both sort orders.
	c := New(2)
	key := "tag:kittens"
	c.Put(key, []asset.SearchResult{{AssetID: "a1"}, {AssetID: "a2"}})
	got1, _ := c.Get(key)
	got2, _ := c.Get(key)
	if len(got1) != len(got2) {
		t.Fatal("expected identical underlying result set across repeated reads")
	}
}
