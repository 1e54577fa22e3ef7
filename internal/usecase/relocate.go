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

	"github.com/nlfiedler/tanuki/internal/logging"
)

// Relocate re-verifies every asset's blob still resolves and refreshes
// a drifted byte_length, without Diagnose's Missing/Renamed escalation:
// a library moved wholesale to new storage (a new disk, a new mount
// point) needs its byte lengths refreshed quickly, not a full
// diagnosis with sibling-extension search for every asset whose blob
// briefly wasn't reachable mid-move.
type Relocator struct {
	records  Records
	blobRoot string
	log      logging.Logger
}

// NewRelocator constructs a Relocator. log may be nil.
func NewRelocator(records Records, blobRoot string, log logging.Logger) *Relocator {
	return &Relocator{records: records, blobRoot: blobRoot, log: log}
}

// Relocate returns the count of assets whose byte_length was corrected.
func (rl *Relocator) Relocate() (int, error) {
	ids, err := rl.records.AllAssets()
	if err != nil {
		return 0, err
	}
	fixed := 0
	for _, id := range ids {
		ok, err := rl.relocateOne(id)
		if err != nil {
			logging.Batch(rl.log, "usecase.Relocate", id, err)
			continue
		}
		if ok {
			fixed++
		}
	}
	return fixed, nil
}

func (rl *Relocator) relocateOne(id string) (bool, error) {
	relPath, base64Err, utf8Err := decodeID(id)
	if base64Err || utf8Err {
		return false, nil
	}
	a, err := rl.records.GetByID(id)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(rl.blobRoot, relPath))
	if err != nil {
		return false, nil
	}
	if uint64(info.Size()) == a.ByteLength {
		return false, nil
	}
	a.ByteLength = uint64(info.Size())
	if err := rl.records.Put(a); err != nil {
		return false, err
	}
	return true, nil
}
