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
	"fmt"
	"io"
	"os"
	"time"
)

// mp4EpochDelta is the number of seconds between 1904-01-01 (the
// QuickTime/MP4 movie header epoch) and 1970-01-01, per mod.rs's
// get_original_date mp4 branch.
const mp4EpochDelta = 2082844800

// mp4BoxHeader is a box header as read at the current read position.
type mp4BoxHeader struct {
	typ       string
	size      int64 // total box size, including header
	headerLen int64
}

func readMP4BoxHeader(r io.Reader) (mp4BoxHeader, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return mp4BoxHeader{}, err
	}
	size := int64(binary.BigEndian.Uint32(hdr[0:4]))
	typ := string(hdr[4:8])
	headerLen := int64(8)
	if size == 1 {
		var ext [8]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return mp4BoxHeader{}, err
		}
		size = int64(binary.BigEndian.Uint64(ext[:]))
		headerLen = 16
	}
	return mp4BoxHeader{typ: typ, size: size, headerLen: headerLen}, nil
}

// findMP4Box scans the boxes in [start, end) of f for one named want,
// returning its content bounds (header excluded). It does not recurse;
// callers walk one level at a time the way mvhd sits directly under
// moov.
func findMP4Box(f *os.File, start, end int64, want string) (contentStart, contentEnd int64, err error) {
	pos := start
	for pos < end {
		if _, err := f.Seek(pos, io.SeekStart); err != nil {
			return 0, 0, err
		}
		hdr, err := readMP4BoxHeader(f)
		if err != nil {
			return 0, 0, err
		}
		if hdr.size <= hdr.headerLen {
			return 0, 0, fmt.Errorf("usecase: malformed mp4 box %q", hdr.typ)
		}
		boxEnd := pos + hdr.size
		if hdr.typ == want {
			return pos + hdr.headerLen, boxEnd, nil
		}
		pos = boxEnd
	}
	return 0, 0, fmt.Errorf("usecase: mp4 box %q not found", want)
}

// mp4OriginalDate reads moov.mvhd's creation_time, per mod.rs's
// get_original_date mp4 branch.
func mp4OriginalDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return time.Time{}, err
	}
	moovStart, moovEnd, err := findMP4Box(f, 0, info.Size(), "moov")
	if err != nil {
		return time.Time{}, err
	}
	mvhdStart, _, err := findMP4Box(f, moovStart, moovEnd, "mvhd")
	if err != nil {
		return time.Time{}, err
	}
	if _, err := f.Seek(mvhdStart, io.SeekStart); err != nil {
		return time.Time{}, err
	}
	var verFlags [4]byte
	if _, err := io.ReadFull(f, verFlags[:]); err != nil {
		return time.Time{}, err
	}
	var creation int64
	if verFlags[0] == 1 {
		var b [8]byte
		if _, err := io.ReadFull(f, b[:]); err != nil {
			return time.Time{}, err
		}
		creation = int64(binary.BigEndian.Uint64(b[:]))
	} else {
		var b [4]byte
		if _, err := io.ReadFull(f, b[:]); err != nil {
			return time.Time{}, err
		}
		creation = int64(binary.BigEndian.Uint32(b[:]))
	}
	if creation > mp4EpochDelta {
		creation -= mp4EpochDelta
	}
	return time.Unix(creation, 0).UTC(), nil
}
