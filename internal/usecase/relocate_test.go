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
	"os"
	"path/filepath"
	"testing"

	"github.com/nlfiedler/tanuki/internal/asset"
)

func TestRelocateRefreshesDriftedByteLength(t *testing.T) {
	blobRoot := t.TempDir()
	relPath := "2021/01/01/0000/abc.dat"
	full := filepath.Join(blobRoot, relPath)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte("nine bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	id := idForRelPath(relPath)
	records := newFakeRecords(&asset.Asset{Key: id, ByteLength: 1})
	rl := NewRelocator(records, blobRoot, nil)

	fixed, err := rl.Relocate()
	if err != nil {
		t.Fatal(err)
	}
	if fixed != 1 {
		t.Fatalf("expected 1 fixed, got %d", fixed)
	}
	got, _ := records.GetByID(id)
	if got.ByteLength != 10 {
		t.Fatalf("expected byte length 10, got %d", got.ByteLength)
	}
}

func TestRelocateSkipsUnreachableBlobsWithoutEscalation(t *testing.T) {
	blobRoot := t.TempDir()
	relPath := "2021/01/01/0000/missing.dat"
	id := idForRelPath(relPath)
	records := newFakeRecords(&asset.Asset{Key: id, ByteLength: 1})
	rl := NewRelocator(records, blobRoot, nil)

	fixed, err := rl.Relocate()
	if err != nil {
		t.Fatal(err)
	}
	if fixed != 0 {
		t.Fatalf("expected 0 fixed for unreachable blob, got %d", fixed)
	}
}
