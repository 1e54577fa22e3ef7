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

package codec

import (
	"reflect"
	"testing"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/errs"
)

func sampleAsset() *asset.Asset {
	imp := time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC)
	return &asset.Asset{
		Key:        "irrelevant-for-wire",
		Checksum:   "sha256-abc123",
		Filename:   "kittens.jpg",
		ByteLength: 1024,
		MediaType:  "image/jpeg",
		Tags:       []string{"cat", "cute"},
		ImportDate: imp,
	}
}

func TestRoundTripMinimal(t *testing.T) {
	a := sampleAsset()
	b, err := EncodeAsset(a)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeAsset(a.Key, b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", a, got)
	}
}

func TestRoundTripFullOptional(t *testing.T) {
	a := sampleAsset()
	cap := "a #tag caption"
	ud := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	od := time.Date(2021, 5, 2, 0, 0, 0, 0, time.UTC)
	a.Caption = &cap
	a.UserDate = &ud
	a.OriginalDate = &od
	a.Dimensions = &asset.Dimensions{Width: 1600, Height: 1200}
	a.Location = &asset.Location{Label: "beach", City: "Santa Cruz", Region: "California"}

	b, err := EncodeAsset(a)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeAsset(a.Key, b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, got) {
		t.Fatalf("round trip mismatch:\nwant %+v\ngot  %+v", a, got)
	}
}

func TestLocationSingleLabelIsCompact(t *testing.T) {
	a := sampleAsset()
	a.Location = &asset.Location{Label: "home"}
	b, err := EncodeAsset(a)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeAsset(a.Key, b)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Location.Equal(*a.Location) {
		t.Fatalf("want %+v got %+v", a.Location, got.Location)
	}
}

func TestDecodeMissingFieldIsCorrupt(t *testing.T) {
	a := sampleAsset()
	b, err := EncodeAsset(a)
	if err != nil {
		t.Fatal(err)
	}
	// Truncate the record so it can't possibly contain all required keys.
	truncated := b[:len(b)/2]
	if _, err := DecodeAsset(a.Key, truncated); err == nil {
		t.Fatal("expected decode error on truncated record")
	} else if !errs.Is(err, errs.Corrupt) {
		t.Fatalf("expected Corrupt, got %v", err)
	}
}

func TestSearchResultRoundTrip(t *testing.T) {
	sr := asset.SearchResult{
		AssetID:   "abc",
		Filename:  "x.png",
		MediaType: "image/png",
		Location:  &asset.Location{City: "Paris"},
		Datetime:  time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	b, err := EncodeSearchResult(sr)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeSearchResult(sr.AssetID, b)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(sr, got) {
		t.Fatalf("want %+v got %+v", sr, got)
	}
}
