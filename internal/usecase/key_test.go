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
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestChecksumFileMatchesKnownVector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := checksumFile(path)
	if err != nil {
		t.Fatal(err)
	}
	const want = "sha256-2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNewAssetIDRoundsToQuarterHourAndDecodes(t *testing.T) {
	datetime := time.Date(2021, 6, 15, 13, 47, 9, 0, time.UTC)
	id := newAssetID(datetime, "/tmp/photo.jpg", "image/jpeg")
	relPath, base64Err, utf8Err := decodeID(id)
	if base64Err || utf8Err {
		t.Fatalf("decode failed: base64Err=%v utf8Err=%v", base64Err, utf8Err)
	}
	if !strings.HasPrefix(relPath, "2021/06/15/1345/") {
		t.Fatalf("expected quarter-hour rounded leading path, got %q", relPath)
	}
	if !strings.HasSuffix(relPath, ".jpg") {
		t.Fatalf("expected source extension preserved, got %q", relPath)
	}
}

func TestNewAssetIDAppendsPreferredExtensionWhenDeclaredTypeDiffers(t *testing.T) {
	datetime := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	id := newAssetID(datetime, "/tmp/photo.unknownext", "image/jpeg")
	relPath, _, _ := decodeID(id)
	if !strings.HasSuffix(relPath, ".unknownext.jpeg") {
		t.Fatalf("expected dual extension suffix, got %q", relPath)
	}
}

func TestNewAssetIDPathIsLowercased(t *testing.T) {
	datetime := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	id := newAssetID(datetime, "/tmp/Photo.JPG", "image/jpeg")
	relPath, _, _ := decodeID(id)
	if relPath != strings.ToLower(relPath) {
		t.Fatalf("expected lowercase relative path, got %q", relPath)
	}
}

func TestReplaceExtensionSwapsSuffix(t *testing.T) {
	original := base64.StdEncoding.EncodeToString([]byte("2021/01/01/0000/abc.jpg"))
	newID := replaceExtension(mustDecode(t, original), "png")
	relPath, _, _ := decodeID(newID)
	if relPath != "2021/01/01/0000/abc.png" {
		t.Fatalf("got %q", relPath)
	}
}

func mustDecode(t *testing.T, id string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestDecodeIDBadBase64(t *testing.T) {
	_, base64Err, utf8Err := decodeID("not base64!!")
	if !base64Err || utf8Err {
		t.Fatalf("expected base64Err only, got base64Err=%v utf8Err=%v", base64Err, utf8Err)
	}
}

func TestDecodeIDBadUTF8(t *testing.T) {
	bad := base64.StdEncoding.EncodeToString([]byte{0xff, 0xfe, 0xfd})
	_, base64Err, utf8Err := decodeID(bad)
	if base64Err || !utf8Err {
		t.Fatalf("expected utf8Err only, got base64Err=%v utf8Err=%v", base64Err, utf8Err)
	}
}
