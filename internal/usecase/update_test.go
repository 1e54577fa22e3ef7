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
	"testing"

	"github.com/nlfiedler/tanuki/internal/asset"
)

func TestParseCaptionExtractsTagsAndBareLocation(t *testing.T) {
	tags, loc := parseCaption("a day at the #beach with #friends @seaside")
	if len(tags) != 2 || tags[0] != "beach" || tags[1] != "friends" {
		t.Fatalf("got tags %v", tags)
	}
	if loc != "seaside" {
		t.Fatalf("got location %q", loc)
	}
}

func TestParseCaptionExtractsQuotedLocation(t *testing.T) {
	_, loc := parseCaption(`dinner @"Golden Gate Park"`)
	if loc != "Golden Gate Park" {
		t.Fatalf("got location %q", loc)
	}
}

func TestParseCaptionNoFragments(t *testing.T) {
	tags, loc := parseCaption("just a plain caption")
	if len(tags) != 0 || loc != "" {
		t.Fatalf("got tags %v loc %q", tags, loc)
	}
}

func TestUpdateSetsLocationLabelOnlyIfUnset(t *testing.T) {
	records := newFakeRecords(&asset.Asset{Key: "a", Location: &asset.Location{Label: "Original"}})
	u := NewUpdater(records)
	caption := "trip @NewPlace"
	updated, err := u.Update("a", UpdateInput{Caption: &caption})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Location.Label != "Original" {
		t.Fatalf("expected existing label preserved, got %q", updated.Location.Label)
	}
}

func TestUpdateSetsLocationLabelWhenUnset(t *testing.T) {
	records := newFakeRecords(&asset.Asset{Key: "a"})
	u := NewUpdater(records)
	caption := "trip @NewPlace"
	updated, err := u.Update("a", UpdateInput{Caption: &caption})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Location == nil || updated.Location.Label != "NewPlace" {
		t.Fatalf("expected label set, got %+v", updated.Location)
	}
}

func TestUpdateAppendsCaptionTagsWithoutDuplicating(t *testing.T) {
	records := newFakeRecords(&asset.Asset{Key: "a", Tags: []string{"beach"}})
	u := NewUpdater(records)
	caption := "more #beach #sun"
	updated, err := u.Update("a", UpdateInput{Caption: &caption})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Tags) != 2 {
		t.Fatalf("expected beach not duplicated, got %v", updated.Tags)
	}
}

func TestUpdateNoopWhenNothingChanges(t *testing.T) {
	records := newFakeRecords(&asset.Asset{Key: "a"})
	u := NewUpdater(records)
	_, err := u.Update("a", UpdateInput{})
	if err != nil {
		t.Fatal(err)
	}
}
