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
	"path/filepath"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/errs"
	"github.com/nlfiedler/tanuki/internal/logging"
)

// ImportParams describes one file to bring into the library, per
// spec.md §4.9's "input is (source_path, declared_media_type)".
type ImportParams struct {
	SourcePath        string
	Filename          string // defaults to filepath.Base(SourcePath) when empty
	DeclaredMediaType string
}

// Importer is the Import use case, grounded on main.rs's
// ImportAsset::new(records, blobs, geocoder) wiring shape.
type Importer struct {
	records Records
	blobs   Blobs
	geo     Locator
	log     logging.Logger
}

// NewImporter constructs an Importer. geo and log may be nil.
func NewImporter(records Records, blobs Blobs, geo Locator, log logging.Logger) *Importer {
	return &Importer{records: records, blobs: blobs, geo: geo, log: log}
}

// Import runs spec.md §4.9's six-step Import contract: checksum, digest
// dedup, metadata extraction, optional geocoding, key construction,
// and committing the blob plus record.
func (im *Importer) Import(ctx context.Context, params ImportParams) (*asset.Asset, error) {
	checksum, err := checksumFile(params.SourcePath)
	if err != nil {
		return nil, errs.E(errs.IO, "usecase.Import", err)
	}

	existing, err := im.records.GetByDigest(checksum)
	if err == nil {
		return existing, nil
	}
	if !errs.Is(err, errs.NotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	referenceDate := now
	var originalDate *time.Time
	if t, err := getOriginalDate(params.DeclaredMediaType, params.SourcePath); err == nil {
		referenceDate = t
		originalDate = &t
	} else {
		logging.External(im.log, "usecase.Import", errs.E(errs.External, "usecase.Import", err))
	}

	var dims *asset.Dimensions
	if d, err := getDimensions(params.DeclaredMediaType, params.SourcePath); err == nil {
		dims = d
	}

	loc := im.locate(ctx, params.SourcePath)

	id := newAssetID(referenceDate, params.SourcePath, params.DeclaredMediaType)

	info, err := os.Stat(params.SourcePath)
	if err != nil {
		return nil, errs.E(errs.IO, "usecase.Import", err)
	}
	filename := params.Filename
	if filename == "" {
		filename = filepath.Base(params.SourcePath)
	}

	a := &asset.Asset{
		Key:          id,
		Checksum:     checksum,
		Filename:     filename,
		ByteLength:   uint64(info.Size()),
		MediaType:    params.DeclaredMediaType,
		ImportDate:   now,
		Location:     loc,
		OriginalDate: originalDate,
		Dimensions:   dims,
	}

	if err := im.blobs.StoreBlob(params.SourcePath, id); err != nil {
		return nil, errs.E(errs.IO, "usecase.Import", err)
	}
	if err := im.records.Put(a); err != nil {
		return nil, err
	}
	return a, nil
}

// locate reads GPS coordinates from sourcePath (if any) and reverse
// geocodes them; failures of either step are non-fatal, per spec.md
// §4.10.
func (im *Importer) locate(ctx context.Context, sourcePath string) *asset.Location {
	if im.geo == nil {
		return nil
	}
	lat, lon, ok := exifGPSCoordinates(sourcePath)
	if !ok {
		return nil
	}
	loc, err := im.geo.Locate(ctx, lat, lon)
	if err != nil {
		return nil
	}
	return loc
}
