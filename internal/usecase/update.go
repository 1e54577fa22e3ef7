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
	"regexp"
	"strings"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
)

// UpdateInput is a whole-value replacement for the mutable fields of a
// single asset, per spec.md §4.9's "Update / Edit: merges a partial
// input into an asset." Unlike bulk Edit's incremental operations,
// Update sets each field present in the input outright; a nil field
// leaves the corresponding asset field untouched.
type UpdateInput struct {
	Tags     []string
	Caption  *string
	Location *asset.Location
	UserDate *time.Time
}

var (
	tagPattern       = regexp.MustCompile(`#(\S+)`)
	quotedLocPattern = regexp.MustCompile(`@"([^"]+)"`)
	bareLocPattern   = regexp.MustCompile(`@(\S+)`)
)

// Updater is the single-asset Update use case.
type Updater struct {
	records Records
}

// NewUpdater constructs an Updater.
func NewUpdater(records Records) *Updater {
	return &Updater{records: records}
}

// Update applies input to the asset at assetID and persists it if
// anything changed.
func (u *Updater) Update(assetID string, input UpdateInput) (*asset.Asset, error) {
	a, err := u.records.GetByID(assetID)
	if err != nil {
		return nil, err
	}
	changed := false

	if input.Caption != nil {
		tags, label := parseCaption(*input.Caption)
		a.Caption = input.Caption
		changed = true
		for _, t := range tags {
			if !containsFold(a.Tags, t) {
				a.Tags = append(a.Tags, t)
			}
		}
		if label != "" && (a.Location == nil || a.Location.Label == "") {
			if a.Location == nil {
				a.Location = &asset.Location{}
			}
			a.Location.Label = label
		}
	}
	if input.Tags != nil {
		a.Tags = input.Tags
		changed = true
	}
	if input.Location != nil {
		a.Location = input.Location
		changed = true
	}
	if input.UserDate != nil {
		a.UserDate = input.UserDate
		changed = true
	}

	if !changed {
		return a, nil
	}
	if err := u.records.Put(a); err != nil {
		return nil, err
	}
	return a, nil
}

// parseCaption extracts #tag fragments (lowercased, for append-only
// merge into the asset's tags) and an @location or @"quoted location"
// fragment (set only if the asset's location label is currently
// unset), per spec.md §4.9's Update/Edit paragraph.
func parseCaption(caption string) (tags []string, location string) {
	for _, m := range tagPattern.FindAllStringSubmatch(caption, -1) {
		tags = append(tags, strings.ToLower(m[1]))
	}
	if m := quotedLocPattern.FindStringSubmatch(caption); m != nil {
		return tags, m[1]
	}
	if m := bareLocPattern.FindStringSubmatch(caption); m != nil {
		return tags, m[1]
	}
	return tags, ""
}

// containsFold reports whether needle is present in haystack by exact
// case (the name is kept for symmetry with edit.go's indexFold; neither
// actually folds case - tags are compared case-sensitively, per edit.rs).
func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}
