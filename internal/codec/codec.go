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

// Package codec serializes an asset.Asset (and asset.SearchResult) to a
// self-describing byte record using CBOR, following the short-key map
// discipline of spec.md §4.1. The on-disk shape is fixed: optional
// fields that are absent encode as explicit CBOR nulls rather than
// being omitted, so every record has the same shape regardless of which
// optional fields are set.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/nlfiedler/tanuki/internal/asset"
	"github.com/nlfiedler/tanuki/internal/errs"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: bad encode options: %v", err))
	}
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorsUnknownField,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("codec: bad decode options: %v", err))
	}
}

// locationWire implements the asymmetric encoding spec.md §4.1 requires:
// a bare string when only label is set (keeps legacy single-label
// records compact), or a three-field map otherwise.
type locationWire struct {
	Label  string `cbor:"l"`
	City   string `cbor:"c"`
	Region string `cbor:"r"`
}

func newLocationWire(loc *asset.Location) *locationWire {
	if loc == nil {
		return nil
	}
	return &locationWire{Label: loc.Label, City: loc.City, Region: loc.Region}
}

func (lw *locationWire) toLocation() *asset.Location {
	if lw == nil {
		return nil
	}
	return &asset.Location{Label: lw.Label, City: lw.City, Region: lw.Region}
}

func (lw *locationWire) MarshalCBOR() ([]byte, error) {
	if lw == nil {
		return cbor.Marshal(nil)
	}
	if lw.City == "" && lw.Region == "" {
		return encMode.Marshal(lw.Label)
	}
	type full struct {
		L *string `cbor:"l"`
		C *string `cbor:"c"`
		R *string `cbor:"r"`
	}
	f := full{}
	if lw.Label != "" {
		f.L = &lw.Label
	}
	if lw.City != "" {
		f.C = &lw.City
	}
	if lw.Region != "" {
		f.R = &lw.Region
	}
	return encMode.Marshal(f)
}

func (lw *locationWire) UnmarshalCBOR(data []byte) error {
	if string(data) == "\xf6" { // CBOR null
		return nil
	}
	var s string
	if err := cbor.Unmarshal(data, &s); err == nil {
		lw.Label = s
		return nil
	}
	type full struct {
		L *string `cbor:"l"`
		C *string `cbor:"c"`
		R *string `cbor:"r"`
	}
	var f full
	if err := decMode.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.L != nil {
		lw.Label = *f.L
	}
	if f.C != nil {
		lw.City = *f.C
	}
	if f.R != nil {
		lw.Region = *f.R
	}
	return nil
}

type dimsWire struct {
	W uint32 `cbor:"w"`
	H uint32 `cbor:"h"`
}

// requireKeys decodes b as a generic map and reports a Corrupt-worthy
// error if any of the named top-level keys is absent. Optional fields
// must still be present (encoded as explicit nulls) to keep the
// on-disk shape fixed, per spec.md §4.1.
func requireKeys(b []byte, keys ...string) error {
	var m map[string]cbor.RawMessage
	if err := decMode.Unmarshal(b, &m); err != nil {
		return err
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return fmt.Errorf("missing required field %q", k)
		}
	}
	return nil
}

type assetWire struct {
	Checksum     string        `cbor:"ch"`
	Filename     string        `cbor:"fn"`
	ByteLength   uint64        `cbor:"sz"`
	MediaType    string        `cbor:"mt"`
	Tags         []string      `cbor:"ta"`
	ImportDate   int64         `cbor:"id"`
	Caption      *string       `cbor:"cp"`
	Location     *locationWire `cbor:"lo"`
	UserDate     *int64        `cbor:"ud"`
	OriginalDate *int64        `cbor:"od"`
	Dimensions   *dimsWire     `cbor:"dm"`
}

// EncodeAsset serializes a (everything but its Key, which is the KV key
// minus the "asset/" prefix and is never serialized).
func EncodeAsset(a *asset.Asset) ([]byte, error) {
	w := assetWire{
		Checksum:   a.Checksum,
		Filename:   a.Filename,
		ByteLength: a.ByteLength,
		MediaType:  a.MediaType,
		Tags:       a.Tags,
		ImportDate: a.ImportDate.Unix(),
		Location:   newLocationWire(a.Location),
	}
	if a.Caption != nil {
		w.Caption = a.Caption
	}
	if a.UserDate != nil {
		v := a.UserDate.Unix()
		w.UserDate = &v
	}
	if a.OriginalDate != nil {
		v := a.OriginalDate.Unix()
		w.OriginalDate = &v
	}
	if a.Dimensions != nil {
		w.Dimensions = &dimsWire{W: a.Dimensions.Width, H: a.Dimensions.Height}
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}
	b, err := encMode.Marshal(w)
	if err != nil {
		return nil, errs.E(errs.Corrupt, "codec.EncodeAsset", err)
	}
	return b, nil
}

// DecodeAsset deserializes b into an asset.Asset, assigning key as the
// record's Key field. Any missing required field or type mismatch
// (including an unrecognized field) is reported as errs.Corrupt.
func DecodeAsset(key string, b []byte) (*asset.Asset, error) {
	if err := requireKeys(b, "ch", "fn", "sz", "mt", "ta", "id", "cp", "lo", "ud", "od", "dm"); err != nil {
		return nil, errs.E(errs.Corrupt, "codec.DecodeAsset", err)
	}
	var w assetWire
	if err := decMode.Unmarshal(b, &w); err != nil {
		return nil, errs.E(errs.Corrupt, "codec.DecodeAsset", err)
	}
	a := &asset.Asset{
		Key:        key,
		Checksum:   w.Checksum,
		Filename:   w.Filename,
		ByteLength: w.ByteLength,
		MediaType:  w.MediaType,
		Tags:       w.Tags,
		ImportDate: unixToTime(w.ImportDate),
		Location:   w.Location.toLocation(),
	}
	if w.Caption != nil {
		a.Caption = w.Caption
	}
	if w.UserDate != nil {
		t := unixToTime(*w.UserDate)
		a.UserDate = &t
	}
	if w.OriginalDate != nil {
		t := unixToTime(*w.OriginalDate)
		a.OriginalDate = &t
	}
	if w.Dimensions != nil {
		a.Dimensions = &asset.Dimensions{Width: w.Dimensions.W, Height: w.Dimensions.H}
	}
	return a, nil
}

// searchResultWire is the compact index-payload encoding {n,m,l,d} from
// spec.md §4.1.
type searchResultWire struct {
	Name     string        `cbor:"n"`
	MType    string        `cbor:"m"`
	Location *locationWire `cbor:"l"`
	Datetime int64         `cbor:"d"`
}

// EncodeSearchResult serializes a SearchResult for use as an index
// payload. AssetID is not included: it is recovered from the index key
// the payload is attached to.
func EncodeSearchResult(sr asset.SearchResult) ([]byte, error) {
	w := searchResultWire{
		Name:     sr.Filename,
		MType:    sr.MediaType,
		Location: newLocationWire(sr.Location),
		Datetime: sr.Datetime.Unix(),
	}
	b, err := encMode.Marshal(w)
	if err != nil {
		return nil, errs.E(errs.Corrupt, "codec.EncodeSearchResult", err)
	}
	return b, nil
}

// DecodeSearchResult deserializes b into a SearchResult, assigning
// assetID (recovered from the index key).
func DecodeSearchResult(assetID string, b []byte) (asset.SearchResult, error) {
	if err := requireKeys(b, "n", "m", "l", "d"); err != nil {
		return asset.SearchResult{}, errs.E(errs.Corrupt, "codec.DecodeSearchResult", err)
	}
	var w searchResultWire
	if err := decMode.Unmarshal(b, &w); err != nil {
		return asset.SearchResult{}, errs.E(errs.Corrupt, "codec.DecodeSearchResult", err)
	}
	return asset.SearchResult{
		AssetID:   assetID,
		Filename:  w.Name,
		MediaType: w.MType,
		Location:  w.Location.toLocation(),
		Datetime:  unixToTime(w.Datetime),
	}, nil
}
