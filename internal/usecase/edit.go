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
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/logging"
)

// Filter selects which assets a bulk Edit touches, grounded on
// edit.rs's Filter.
type Filter struct {
	Tags       []string
	Location   *asset.Location
	AfterDate  *time.Time
	BeforeDate *time.Time
	MediaType  *string
}

// IsEmpty reports whether the filter matches nothing at all, in which
// case Edit skips every asset outright (edit.rs's Filter::is_empty).
func (f Filter) IsEmpty() bool {
	return len(f.Tags) == 0 && f.Location == nil && f.AfterDate == nil &&
		f.BeforeDate == nil && f.MediaType == nil
}

// TagOperation adds or removes a single tag.
type TagOperation struct {
	Add bool // false means Remove
	Tag string
}

// LocationField names one of Location's three parts.
type LocationField int

const (
	LocationLabel LocationField = iota
	LocationCity
	LocationRegion
)

// LocationOperation sets or clears one field of an asset's location.
type LocationOperation struct {
	Field LocationField
	Clear bool
	Value string // used when Clear is false
}

// DatetimeOperation adjusts an asset's UserDate.
type DatetimeOperation struct {
	Kind DatetimeOpKind
	Set  time.Time
	Days uint16
}

// DatetimeOpKind distinguishes DatetimeOperation's four forms.
type DatetimeOpKind int

const (
	DatetimeSet DatetimeOpKind = iota
	DatetimeAdd
	DatetimeSubtract
	DatetimeClear
)

// EditParams bundles a Filter with the operations to apply to every
// asset it matches, per edit.rs's Params.
type EditParams struct {
	Filter      Filter
	TagOps      []TagOperation
	LocationOps []LocationOperation
	DatetimeOp  *DatetimeOperation
}

// Editor is the bulk Edit use case.
type Editor struct {
	records Records
	log     logging.Logger
}

// NewEditor constructs an Editor. log may be nil.
func NewEditor(records Records, log logging.Logger) *Editor {
	return &Editor{records: records, log: log}
}

// Edit applies params.TagOps/LocationOps/DatetimeOp to every asset
// matching params.Filter, persisting only the assets that actually
// changed. When dryRun is true no asset is persisted; matched and
// updated both still report what would have happened, per the
// distillation's count-only dry-run addition.
func (ed *Editor) Edit(params EditParams, dryRun bool) (matched, updated int, err error) {
	if params.Filter.IsEmpty() {
		return 0, 0, nil
	}
	ids, err := ed.records.AllAssets()
	if err != nil {
		return 0, 0, err
	}
	for _, id := range ids {
		a, err := ed.records.GetByID(id)
		if err != nil {
			logging.Batch(ed.log, "usecase.Edit", id, err)
			continue
		}
		if !assetMatches(a, params.Filter) {
			continue
		}
		matched++
		if !modifyAsset(a, params) {
			continue
		}
		updated++
		if dryRun {
			continue
		}
		if err := ed.records.Put(a); err != nil {
			logging.Batch(ed.log, "usecase.Edit", id, err)
		}
	}
	return matched, updated, nil
}

// assetMatches reports whether a satisfies every clause of f, per
// edit.rs's asset_matches.
func assetMatches(a *asset.Asset, f Filter) bool {
	if f.MediaType != nil && a.MediaType != *f.MediaType {
		return false
	}
	if !filterByDateRange(a.BestDate(), f.AfterDate, f.BeforeDate) {
		return false
	}
	if !locationMatches(a.Location, f.Location) {
		return false
	}
	if !tagsMatch(a.Tags, f.Tags) {
		return false
	}
	return true
}

// filterByDateRange applies a strict half-open range test against
// best_date, per edit.rs's filter_by_date_range.
func filterByDateRange(best time.Time, after, before *time.Time) bool {
	if after != nil && !best.After(*after) {
		return false
	}
	if before != nil && !best.Before(*before) {
		return false
	}
	return true
}

// locationMatches implements edit.rs's location_matches: an absent
// filter matches anything; a present filter against an absent asset
// location matches only if the filter is entirely blank; otherwise
// every filter field must match per locationPartMatches.
func locationMatches(have *asset.Location, filter *asset.Location) bool {
	if filter == nil {
		return true
	}
	if have == nil {
		return allBlankLocation(*filter)
	}
	return locationPartMatches(filter.Label, have.Label) &&
		locationPartMatches(filter.City, have.City) &&
		locationPartMatches(filter.Region, have.Region)
}

// locationPartMatches: a blank filter value requires the asset's value
// to also be blank; a non-blank filter value requires an exact match.
func locationPartMatches(filterValue, assetValue string) bool {
	if filterValue == "" {
		return assetValue == ""
	}
	return filterValue == assetValue
}

func allBlankLocation(loc asset.Location) bool {
	return loc.Label == "" && loc.City == "" && loc.Region == ""
}

// tagsMatch reports whether have is a superset of want, by exact case,
// per edit.rs's tags_match (tags are preserved cased for display and
// compared case-sensitively here; only the scan query DSL's tag:X
// predicate folds case).
func tagsMatch(have, want []string) bool {
	if len(want) > len(have) {
		return false
	}
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// modifyAsset applies params' tag, location, and datetime operations
// to a in place, reporting whether anything actually changed. Grounded
// on edit.rs's modifiy_asset.
func modifyAsset(a *asset.Asset, params EditParams) bool {
	changed := false
	for _, op := range params.TagOps {
		if op.Add {
			if !containsFold(a.Tags, op.Tag) {
				a.Tags = append(a.Tags, op.Tag)
				changed = true
			}
		} else {
			if idx := indexFold(a.Tags, op.Tag); idx >= 0 {
				a.Tags = append(a.Tags[:idx], a.Tags[idx+1:]...)
				changed = true
			}
		}
	}
	for _, op := range params.LocationOps {
		if applyLocationOp(a, op) {
			changed = true
		}
	}
	if params.DatetimeOp != nil {
		if applyDatetimeOp(a, *params.DatetimeOp) {
			changed = true
		}
	}
	return changed
}

func applyLocationOp(a *asset.Asset, op LocationOperation) bool {
	if op.Clear {
		if a.Location == nil {
			return false
		}
		var had bool
		switch op.Field {
		case LocationLabel:
			had = a.Location.Label != ""
			a.Location.Label = ""
		case LocationCity:
			had = a.Location.City != ""
			a.Location.City = ""
		case LocationRegion:
			had = a.Location.Region != ""
			a.Location.Region = ""
		}
		return had
	}
	if a.Location == nil {
		a.Location = &asset.Location{}
	}
	switch op.Field {
	case LocationLabel:
		if a.Location.Label == op.Value {
			return false
		}
		a.Location.Label = op.Value
	case LocationCity:
		if a.Location.City == op.Value {
			return false
		}
		a.Location.City = op.Value
	case LocationRegion:
		if a.Location.Region == op.Value {
			return false
		}
		a.Location.Region = op.Value
	}
	return true
}

func applyDatetimeOp(a *asset.Asset, op DatetimeOperation) bool {
	switch op.Kind {
	case DatetimeSet:
		if a.BestDate().Equal(op.Set) {
			return false
		}
		t := op.Set
		a.UserDate = &t
		return true
	case DatetimeAdd:
		base := a.BestDate()
		t := base.AddDate(0, 0, int(op.Days))
		a.UserDate = &t
		return true
	case DatetimeSubtract:
		base := a.BestDate()
		t := base.AddDate(0, 0, -int(op.Days))
		a.UserDate = &t
		return true
	case DatetimeClear:
		if a.UserDate == nil {
			return false
		}
		a.UserDate = nil
		return true
	}
	return false
}

// indexFold finds needle in haystack by exact case, matching edit.rs's
// retain comparison (the name is kept for symmetry with containsFold;
// neither actually folds case).
func indexFold(haystack []string, needle string) int {
	for i, h := range haystack {
		if h == needle {
			return i
		}
	}
	return -1
}
