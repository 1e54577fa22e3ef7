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
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// buildMP4Fixture constructs a minimal moov/mvhd box tree holding
// creation_time (version 0, seconds since 1904-01-01), enough for
// mp4OriginalDate to locate and decode.
func buildMP4Fixture(t *testing.T, want time.Time) string {
	t.Helper()
	creation := uint32(want.Unix() + mp4EpochDelta)

	mvhdContent := make([]byte, 8)
	// mvhdContent[0:4] is version(1 byte)+flags(3 bytes), left zero for version 0
	binary.BigEndian.PutUint32(mvhdContent[4:8], creation)

	mvhdBox := appendMP4Box(nil, "mvhd", mvhdContent)
	moovBox := appendMP4Box(nil, "moov", mvhdBox)

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, moovBox, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func appendMP4Box(buf []byte, typ string, content []byte) []byte {
	size := uint32(8 + len(content))
	hdr := make([]byte, 8)
	binary.BigEndian.PutUint32(hdr[0:4], size)
	copy(hdr[4:8], typ)
	buf = append(buf, hdr...)
	buf = append(buf, content...)
	return buf
}

func TestMP4OriginalDateReadsMvhdCreationTime(t *testing.T) {
	want := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	path := buildMP4Fixture(t, want)

	got, err := mp4OriginalDate(path)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
