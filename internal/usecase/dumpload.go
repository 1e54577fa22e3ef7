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
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/logging"
)

// dumpRecord is the one-line-per-asset JSON shape spec.md §6 names
// explicitly: key, checksum, filename, byte_length, media_type, tags,
// import_date, caption, location, user_date, original_date,
// dimensions, with RFC-3339 UTC timestamps. It is intentionally
// distinct from the codec package's compact CBOR wire format, since
// Dump/Load is a human-readable interchange file, not the KV record
// shape.
type dumpRecord struct {
	Key          string            `json:"key"`
	Checksum     string            `json:"checksum"`
	Filename     string            `json:"filename"`
	ByteLength   uint64            `json:"byte_length"`
	MediaType    string            `json:"media_type"`
	Tags         []string          `json:"tags,omitempty"`
	ImportDate   time.Time         `json:"import_date"`
	Caption      *string           `json:"caption,omitempty"`
	Location     *asset.Location   `json:"location,omitempty"`
	UserDate     *time.Time        `json:"user_date,omitempty"`
	OriginalDate *time.Time        `json:"original_date,omitempty"`
	Dimensions   *asset.Dimensions `json:"dimensions,omitempty"`
}

func toDumpRecord(a *asset.Asset) dumpRecord {
	return dumpRecord{
		Key:          a.Key,
		Checksum:     a.Checksum,
		Filename:     a.Filename,
		ByteLength:   a.ByteLength,
		MediaType:    a.MediaType,
		Tags:         a.Tags,
		ImportDate:   a.ImportDate.UTC(),
		Caption:      a.Caption,
		Location:     a.Location,
		UserDate:     utcPtr(a.UserDate),
		OriginalDate: utcPtr(a.OriginalDate),
		Dimensions:   a.Dimensions,
	}
}

func (r dumpRecord) toAsset() *asset.Asset {
	return &asset.Asset{
		Key:          r.Key,
		Checksum:     r.Checksum,
		Filename:     r.Filename,
		ByteLength:   r.ByteLength,
		MediaType:    r.MediaType,
		Tags:         r.Tags,
		ImportDate:   r.ImportDate,
		Caption:      r.Caption,
		Location:     r.Location,
		UserDate:     r.UserDate,
		OriginalDate: r.OriginalDate,
		Dimensions:   r.Dimensions,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Dumper is the Dump/Load use case.
type Dumper struct {
	records Records
	log     logging.Logger
}

// NewDumper constructs a Dumper. log may be nil.
func NewDumper(records Records, log logging.Logger) *Dumper {
	return &Dumper{records: records, log: log}
}

// Dump writes one JSON asset per line, newline-terminated, in id order.
func (du *Dumper) Dump(w io.Writer) error {
	ids, err := du.records.AllAssets()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	for _, id := range ids {
		a, err := du.records.GetByID(id)
		if err != nil {
			logging.Batch(du.log, "usecase.Dump", id, err)
			continue
		}
		if err := enc.Encode(toDumpRecord(a)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the Dump line format and upserts each record. It does not
// clear existing records first; duplicate keys in the input overwrite
// in the order they appear, per spec.md §8's Load scenario.
func (du *Dumper) Load(r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	count := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec dumpRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			logging.Batch(du.log, "usecase.Load", rec.Key, err)
			continue
		}
		if err := du.records.Put(rec.toAsset()); err != nil {
			logging.Batch(du.log, "usecase.Load", rec.Key, err)
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, err
	}
	return count, nil
}
