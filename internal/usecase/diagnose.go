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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nlfiedler/tanuki/internal/logging"
)

// ErrorCode enumerates the ways an asset record can disagree with its
// blob, per diagnose.rs's ErrorCode (11 variants).
type ErrorCode int

const (
	CodeBase64 ErrorCode = iota
	CodeUtf8
	CodeMissing
	CodeRenamed
	CodeAccess
	CodeSize
	CodeDigest
	CodeMediaType
	CodeOriginalDate
	CodeFilename
	CodeExtension
)

func (c ErrorCode) String() string {
	switch c {
	case CodeBase64:
		return "base64"
	case CodeUtf8:
		return "utf8"
	case CodeMissing:
		return "missing"
	case CodeRenamed:
		return "renamed"
	case CodeAccess:
		return "access"
	case CodeSize:
		return "size"
	case CodeDigest:
		return "digest"
	case CodeMediaType:
		return "media_type"
	case CodeOriginalDate:
		return "original_date"
	case CodeFilename:
		return "filename"
	case CodeExtension:
		return "extension"
	}
	return "unknown"
}

// Diagnosis pairs a failing asset with the problem found in it.
type Diagnosis struct {
	AssetID string
	Code    ErrorCode
}

// Diagnostician is the Diagnose/Repair use case.
type Diagnostician struct {
	records  Records
	blobRoot string
	blobs    Blobs
	log      logging.Logger
}

// NewDiagnostician constructs a Diagnostician. blobRoot is the
// blobstore's root directory, needed to stat and glob files directly
// (diagnose.rs inspects the filesystem below the blob path, not just
// through the Blobs interface).
func NewDiagnostician(records Records, blobs Blobs, blobRoot string, log logging.Logger) *Diagnostician {
	return &Diagnostician{records: records, blobRoot: blobRoot, blobs: blobs, log: log}
}

// Diagnose runs checkAsset over every asset in the library. When
// checkDigest is true it also recomputes and compares each blob's
// checksum, the expensive pass a caller opts into explicitly.
func (d *Diagnostician) Diagnose(checkDigest bool) ([]Diagnosis, error) {
	ids, err := d.records.AllAssets()
	if err != nil {
		return nil, err
	}
	var out []Diagnosis
	for _, id := range ids {
		codes, err := d.checkAsset(id, checkDigest)
		if err != nil {
			logging.Batch(d.log, "usecase.Diagnose", id, err)
			continue
		}
		for _, c := range codes {
			out = append(out, Diagnosis{AssetID: id, Code: c})
		}
	}
	return out, nil
}

// checkAsset inspects a single asset's record against its blob, per
// diagnose.rs's check_asset.
func (d *Diagnostician) checkAsset(id string, checkDigest bool) ([]ErrorCode, error) {
	relPath, base64Err, utf8Err := decodeID(id)
	if base64Err {
		return []ErrorCode{CodeBase64}, nil
	}
	if utf8Err {
		return []ErrorCode{CodeUtf8}, nil
	}

	a, err := d.records.GetByID(id)
	if err != nil {
		return nil, err
	}

	blobPath := filepath.Join(d.blobRoot, relPath)
	info, err := os.Stat(blobPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return []ErrorCode{CodeAccess}, nil
		}
		matches, _ := filepath.Glob(strings.TrimSuffix(blobPath, filepath.Ext(blobPath)) + ".*")
		if len(matches) == 0 {
			return []ErrorCode{CodeMissing}, nil
		}
		return []ErrorCode{CodeRenamed}, nil
	}

	var codes []ErrorCode
	if uint64(info.Size()) != a.ByteLength {
		codes = append(codes, CodeSize)
	}
	if checkDigest {
		sum, err := checksumFile(blobPath)
		if err == nil && sum != a.Checksum {
			codes = append(codes, CodeDigest)
		}
	}
	if a.Filename == "" {
		codes = append(codes, CodeFilename)
	}
	if typ, _ := splitMediaType(a.MediaType); typ == "" {
		codes = append(codes, CodeMediaType)
	} else if got, err := getOriginalDate(a.MediaType, blobPath); err == nil {
		if a.OriginalDate == nil || !got.Equal(*a.OriginalDate) {
			codes = append(codes, CodeOriginalDate)
		}
	}

	ext := strings.TrimPrefix(filepath.Ext(blobPath), ".")
	if ext == "" {
		codes = append(codes, CodeExtension)
	} else if a.MediaType == "application/octet-stream" {
		if inferMediaType(ext) != a.MediaType {
			codes = append(codes, CodeMediaType)
		}
	} else if !extensionListed(extensionsForMediaType(a.MediaType), ext) {
		codes = append(codes, CodeExtension)
	}

	return codes, nil
}

func extensionListed(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// Repair applies fixes for every diagnosis found, in diagnose.rs's
// three-phase order: simple field fixes first, then the id-changing
// fixes (Renamed, Extension), then a fresh Diagnose so the caller sees
// what remains.
func (d *Diagnostician) Repair(checkDigest bool) ([]Diagnosis, error) {
	first, err := d.Diagnose(checkDigest)
	if err != nil {
		return nil, err
	}
	for _, diag := range first {
		var err error
		switch diag.Code {
		case CodeDigest:
			err = d.fixChecksum(diag.AssetID)
		case CodeSize:
			err = d.fixByteLength(diag.AssetID)
		case CodeFilename:
			err = d.fixFilename(diag.AssetID)
		case CodeMediaType:
			err = d.fixMediaType(diag.AssetID)
		case CodeOriginalDate:
			err = d.fixOriginalDate(diag.AssetID)
		}
		if err != nil {
			logging.Batch(d.log, "usecase.Repair", diag.AssetID, err)
		}
	}
	for _, diag := range first {
		var err error
		switch diag.Code {
		case CodeRenamed:
			err = d.fixRenamed(diag.AssetID)
		case CodeExtension:
			err = d.fixExtension(diag.AssetID)
		}
		if err != nil {
			logging.Batch(d.log, "usecase.Repair", diag.AssetID, err)
		}
	}
	return d.Diagnose(checkDigest)
}

func (d *Diagnostician) fixChecksum(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	relPath, _, _ := decodeID(id)
	sum, err := checksumFile(filepath.Join(d.blobRoot, relPath))
	if err != nil {
		return err
	}
	a.Checksum = sum
	return d.records.Put(a)
}

func (d *Diagnostician) fixByteLength(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	relPath, _, _ := decodeID(id)
	info, err := os.Stat(filepath.Join(d.blobRoot, relPath))
	if err != nil {
		return err
	}
	a.ByteLength = uint64(info.Size())
	return d.records.Put(a)
}

func (d *Diagnostician) fixFilename(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	relPath, _, _ := decodeID(id)
	a.Filename = filepath.Base(relPath)
	return d.records.Put(a)
}

func (d *Diagnostician) fixMediaType(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	ext := strings.TrimPrefix(filepath.Ext(a.Filename), ".")
	a.MediaType = inferMediaType(ext)
	return d.records.Put(a)
}

func (d *Diagnostician) fixOriginalDate(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	relPath, _, _ := decodeID(id)
	got, err := getOriginalDate(a.MediaType, filepath.Join(d.blobRoot, relPath))
	if err != nil {
		return err
	}
	a.OriginalDate = &got
	return d.records.Put(a)
}

// fixRenamed finds the single sibling file with a different extension
// at the asset's base path and moves the record to a new id pointing
// at it, per diagnose.rs's fix_renamed.
func (d *Diagnostician) fixRenamed(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	relPath, _, _ := decodeID(id)
	base := strings.TrimSuffix(relPath, filepath.Ext(relPath))
	matches, err := filepath.Glob(filepath.Join(d.blobRoot, base) + ".*")
	if err != nil {
		return err
	}
	if len(matches) != 1 {
		if len(matches) > 1 {
			logging.Batch(d.log, "usecase.Repair", id, fmt.Errorf("%d sibling files match, asset not renamed", len(matches)))
		}
		return nil
	}
	newExt := strings.TrimPrefix(filepath.Ext(matches[0]), ".")
	newID := replaceExtension(relPath, newExt)
	a.Key = newID
	a.MediaType = inferMediaType(newExt)
	if err := d.records.Put(a); err != nil {
		return err
	}
	return d.records.Delete(id)
}

// fixExtension renames the blob to carry the preferred extension for
// its media type and moves the record to match, rolling the record
// back if the blob rename fails, per diagnose.rs's fix_extension.
func (d *Diagnostician) fixExtension(id string) error {
	a, err := d.records.GetByID(id)
	if err != nil {
		return err
	}
	relPath, _, _ := decodeID(id)
	best, ok := selectBestExtension(a.MediaType)
	if !ok {
		return nil
	}
	newID := replaceExtension(relPath, best)
	a.Key = newID
	if err := d.records.Put(a); err != nil {
		return err
	}
	if err := d.blobs.RenameBlob(id, newID); err != nil {
		_ = d.records.Delete(newID)
		return err
	}
	return d.records.Delete(id)
}
