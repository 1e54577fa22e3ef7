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
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
)

func TestDumpWritesOneJSONObjectPerLine(t *testing.T) {
	records := newFakeRecords(
		&asset.Asset{Key: "a", Checksum: "sha256-1", Filename: "a.jpg", MediaType: "image/jpeg", ImportDate: time.Unix(0, 0).UTC()},
		&asset.Asset{Key: "b", Checksum: "sha256-2", Filename: "b.jpg", MediaType: "image/jpeg", ImportDate: time.Unix(0, 0).UTC()},
	)
	du := NewDumper(records, nil)
	var buf bytes.Buffer
	if err := du.Dump(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for _, line := range lines {
		if !strings.Contains(line, `"checksum"`) {
			t.Fatalf("expected checksum field in line %q", line)
		}
	}
}

func TestLoadUpsertsRecordsWithoutClearing(t *testing.T) {
	records := newFakeRecords(&asset.Asset{Key: "existing", Checksum: "sha256-keep", Filename: "keep.jpg"})
	du := NewDumper(records, nil)
	input := strings.NewReader(
		`{"key":"new","checksum":"sha256-new","filename":"new.jpg","media_type":"image/jpeg","import_date":"2021-01-01T00:00:00Z"}` + "\n",
	)
	count, err := du.Load(input)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record loaded, got %d", count)
	}
	if _, err := records.GetByID("existing"); err != nil {
		t.Fatal("expected existing record preserved")
	}
	if _, err := records.GetByID("new"); err != nil {
		t.Fatal("expected new record inserted")
	}
}

func TestLoadLaterDuplicateKeyOverwritesEarlier(t *testing.T) {
	records := newFakeRecords()
	du := NewDumper(records, nil)
	input := strings.NewReader(strings.Join([]string{
		`{"key":"dup","checksum":"sha256-first","filename":"first.jpg"}`,
		`{"key":"dup","checksum":"sha256-second","filename":"second.jpg"}`,
	}, "\n") + "\n")
	if _, err := du.Load(input); err != nil {
		t.Fatal(err)
	}
	got, err := records.GetByID("dup")
	if err != nil {
		t.Fatal(err)
	}
	if got.Checksum != "sha256-second" {
		t.Fatalf("expected later line to win, got %q", got.Checksum)
	}
}
