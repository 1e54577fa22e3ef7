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

// buildAVIFixture constructs a minimal RIFF/AVI file containing a
// single top-level IDIT chunk, enough for aviOriginalDate to locate
// and parse.
func buildAVIFixture(t *testing.T, idit string) string {
	t.Helper()
	chunkData := []byte(idit)
	if len(chunkData)%2 == 1 {
		chunkData = append(chunkData, 0)
	}
	chunk := make([]byte, 8+len(chunkData))
	copy(chunk[0:4], "IDIT")
	binary.LittleEndian.PutUint32(chunk[4:8], uint32(len(idit)))
	copy(chunk[8:], chunkData)

	body := append([]byte("AVI "), chunk...)
	riff := make([]byte, 8+len(body))
	copy(riff[0:4], "RIFF")
	binary.LittleEndian.PutUint32(riff[4:8], uint32(len(body)))
	copy(riff[8:], body)

	dir := t.TempDir()
	path := filepath.Join(dir, "clip.avi")
	if err := os.WriteFile(path, riff, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAVIOriginalDateParsesSamsungLayout(t *testing.T) {
	path := buildAVIFixture(t, "2005:08:17 11:42:43")
	got, err := aviOriginalDate(path)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2005, 8, 17, 11, 42, 43, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestAVIOriginalDateParsesCanonLayout(t *testing.T) {
	path := buildAVIFixture(t, "SAT DEC 19 05:46:12 2009")
	got, err := aviOriginalDate(path)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2009, 12, 19, 5, 46, 12, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestCanonicalizeWeekdayMonth(t *testing.T) {
	got := canonicalizeWeekdayMonth("SAT DEC 19 05:46:12 2009")
	want := "Sat Dec 19 05:46:12 2009"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
