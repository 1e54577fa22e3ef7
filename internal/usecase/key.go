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
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
)

// checksumFile computes "sha256-<hex>" of infile's bytes, per mod.rs's
// checksum_file. crypto/sha256 is the stdlib package the teacher's own
// internal/hashutil uses for content hashing.
func checksumFile(infile string) (string, error) {
	f, err := os.Open(infile)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256-%x", h.Sum(nil)), nil
}

// newAssetID builds the blob-store relative path for a newly imported
// or replaced asset and returns it base64 encoded, per spec.md §4.9
// step 5 and mod.rs's new_asset_id: round datetime down to the nearest
// quarter hour, format YYYY/MM/DD/HHMM/, append a lowercase ULID, the
// source file's extension, and (if the extension-inferred media type
// differs from declaredMediaType) a second suffix naming the preferred
// extension for declaredMediaType.
func newAssetID(datetime time.Time, sourcePath, declaredMediaType string) string {
	datetime = datetime.UTC()
	minute := (datetime.Minute() / 15) * 15
	rounded := time.Date(datetime.Year(), datetime.Month(), datetime.Day(),
		datetime.Hour(), minute, 0, 0, time.UTC)
	leading := rounded.Format("2006/01/02/1504/")

	name := strings.ToLower(ulid.Make().String())
	ext := strings.TrimPrefix(filepath.Ext(sourcePath), ".")
	appendSuffix := true
	if ext != "" {
		name += "." + ext
		appendSuffix = inferMediaType(ext) != strings.ToLower(declaredMediaType)
	}
	if appendSuffix {
		if mimeExt, ok := selectBestExtension(declaredMediaType); ok {
			name += "." + mimeExt
		}
	}
	relPath := strings.ToLower(leading + name)
	return base64.StdEncoding.EncodeToString([]byte(relPath))
}

// replaceExtension swaps relPath's extension for extension and
// re-encodes as a base64 id, per diagnose.rs's replace_extension (used
// by the Renamed and Extension repairs).
func replaceExtension(relPath, extension string) string {
	ext := filepath.Ext(relPath)
	base := strings.TrimSuffix(relPath, ext)
	return base64.StdEncoding.EncodeToString([]byte(base + "." + extension))
}

// decodeID base64-decodes id into its relative path, failing distinctly
// on a bad base64 payload versus non-UTF-8 content so callers can
// report Diagnose's Base64 vs Utf8 error codes.
func decodeID(id string) (path string, base64Err, utf8Err bool) {
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return "", true, false
	}
	if !utf8.Valid(raw) {
		return "", false, true
	}
	return string(raw), false, false
}
