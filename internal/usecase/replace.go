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
	"context"
	"os"
	"time"

	"github.com/nlfiedler/tanuki/internal/errs"
	"github.com/nlfiedler/tanuki/internal/logging"
)

// Replacer is the Replace use case, grounded on main.rs's
// ReplaceAsset::new(records, blobs, geocoder) wiring shape. Replace
// swaps an existing asset's bytes for a new file while carrying its
// tags, caption, and user date forward; the old blob and record are
// removed once the new ones are in place.
type Replacer struct {
	records Records
	blobs   Blobs
	geo     Locator
	log     logging.Logger
}

// NewReplacer constructs a Replacer. geo and log may be nil.
func NewReplacer(records Records, blobs Blobs, geo Locator, log logging.Logger) *Replacer {
	return &Replacer{records: records, blobs: blobs, geo: geo, log: log}
}

// Replace ingests params as a new version of the asset at assetID,
// returning the id of the record that now holds the current bytes
// (unchanged if the new file is a byte-for-byte duplicate).
func (rp *Replacer) Replace(ctx context.Context, assetID string, params ImportParams) (string, error) {
	existing, err := rp.records.GetByID(assetID)
	if err != nil {
		return "", err
	}

	checksum, err := checksumFile(params.SourcePath)
	if err != nil {
		return "", errs.E(errs.IO, "usecase.Replace", err)
	}
	if checksum == existing.Checksum {
		return assetID, nil
	}

	now := time.Now().UTC()
	referenceDate := now
	var originalDate *time.Time
	if t, err := getOriginalDate(params.DeclaredMediaType, params.SourcePath); err == nil {
		referenceDate = t
		originalDate = &t
	} else {
		logging.External(rp.log, "usecase.Replace", errs.E(errs.External, "usecase.Replace", err))
	}

	dims, err := getDimensions(params.DeclaredMediaType, params.SourcePath)
	if err != nil {
		dims = nil
	}

	loc := existing.Location
	if rp.geo != nil {
		if lat, lon, ok := exifGPSCoordinates(params.SourcePath); ok {
			if l, err := rp.geo.Locate(ctx, lat, lon); err == nil {
				loc = l
			}
		}
	}

	newID := newAssetID(referenceDate, params.SourcePath, params.DeclaredMediaType)

	info, err := os.Stat(params.SourcePath)
	if err != nil {
		return "", errs.E(errs.IO, "usecase.Replace", err)
	}

	replaced := *existing
	replaced.Key = newID
	replaced.Checksum = checksum
	replaced.ByteLength = uint64(info.Size())
	replaced.MediaType = params.DeclaredMediaType
	replaced.Location = loc
	replaced.OriginalDate = originalDate
	replaced.Dimensions = dims
	if params.Filename != "" {
		replaced.Filename = params.Filename
	}

	if err := rp.blobs.StoreBlob(params.SourcePath, newID); err != nil {
		return "", errs.E(errs.IO, "usecase.Replace", err)
	}
	if err := rp.records.Put(&replaced); err != nil {
		return "", err
	}
	if err := rp.records.Delete(assetID); err != nil {
		return "", err
	}
	if err := rp.blobs.DeleteBlob(assetID); err != nil {
		return "", err
	}
	rp.blobs.ClearCache(newID)
	return newID, nil
}
