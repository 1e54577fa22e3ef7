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

package asset

import (
	"testing"
	"time"
)

func TestBestDate(t *testing.T) {
	imp := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	orig := time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	user := time.Date(2018, 3, 1, 0, 0, 0, 0, time.UTC)

	a := &Asset{ImportDate: imp}
	if got := a.BestDate(); !got.Equal(imp) {
		t.Fatalf("want import date, got %v", got)
	}
	a.OriginalDate = &orig
	if got := a.BestDate(); !got.Equal(orig) {
		t.Fatalf("want original date, got %v", got)
	}
	a.UserDate = &user
	if got := a.BestDate(); !got.Equal(user) {
		t.Fatalf("want user date, got %v", got)
	}
}

func TestLocationPartialMatch(t *testing.T) {
	loc := Location{Label: "beach", City: "São Paulo", Region: "State of São Paulo"}
	if !loc.PartialMatch("beach") {
		t.Error("expected label match")
	}
	if !loc.PartialMatch("são paulo") {
		t.Error("expected city match")
	}
	if loc.PartialMatch("berkeley") {
		t.Error("unexpected match")
	}

	var empty Location
	if empty.HasValues() {
		t.Error("empty location should not have values")
	}
}

func TestIsNewborn(t *testing.T) {
	a := &Asset{}
	if !a.IsNewborn() {
		t.Fatal("expected newborn with no tags/caption/location")
	}
	a.Tags = []string{"cat"}
	if a.IsNewborn() {
		t.Fatal("tagged asset should not be newborn")
	}
	a.Tags = nil
	a.Location = &Location{City: "Paris"}
	if !a.IsNewborn() {
		t.Fatal("city-only location should still be newborn")
	}
	a.Location.Label = "home"
	if a.IsNewborn() {
		t.Fatal("label should disqualify newborn")
	}
}
