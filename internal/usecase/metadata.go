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
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/nlfiedler/tanuki/internal/asset"
)

// getOriginalDate extracts the original capture date/time, dispatching
// on media type the way mod.rs's get_original_date does: EXIF for
// images, the RIFF/IDIT path for AVI-family video, moov/mvhd for
// everything else under video/*.
func getOriginalDate(mediaType, path string) (time.Time, error) {
	typ, sub := splitMediaType(mediaType)
	switch typ {
	case "image":
		return exifOriginalDate(path)
	case "video":
		switch sub {
		case "x-msvideo", "vnd.avi", "avi", "msvideo":
			return aviOriginalDate(path)
		default:
			return mp4OriginalDate(path)
		}
	}
	return time.Time{}, fmt.Errorf("usecase: no date extractor for media type %q", mediaType)
}

// exifOriginalDate reads the EXIF DateTimeOriginal field, grounded on
// internal/thumbnail's exif.Decode usage.
func exifOriginalDate(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	tag, err := x.Get(exif.DateTimeOriginal)
	if err != nil {
		return time.Time{}, err
	}
	s, err := tag.StringVal()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation("2006:01:02 15:04:05", s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("usecase: could not parse EXIF date %q: %w", s, err)
	}
	return t, nil
}

// exifGPSCoordinates reads GPSLatitude/GPSLongitude (and their
// hemisphere refs) and converts the degrees/minutes/seconds triple to
// decimal degrees, per mod.rs's get_gps_coordinates /
// get_gps_angle family.
func exifGPSCoordinates(path string) (lat, lon float64, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()
	x, err := exif.Decode(f)
	if err != nil {
		return 0, 0, false
	}
	latDeg, err := gpsAngle(x, exif.GPSLatitude)
	if err != nil {
		return 0, 0, false
	}
	latRef, err := gpsRef(x, exif.GPSLatitudeRef)
	if err != nil {
		return 0, 0, false
	}
	lonDeg, err := gpsAngle(x, exif.GPSLongitude)
	if err != nil {
		return 0, 0, false
	}
	lonRef, err := gpsRef(x, exif.GPSLongitudeRef)
	if err != nil {
		return 0, 0, false
	}
	lat = latDeg
	if latRef == "S" || latRef == "s" {
		lat = -lat
	}
	lon = lonDeg
	if lonRef == "W" || lonRef == "w" {
		lon = -lon
	}
	return lat, lon, true
}

func gpsRef(x *exif.Exif, name exif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		return "", err
	}
	return tag.StringVal()
}

// gpsAngle reads a GPS angle's three rationals (degrees, minutes,
// seconds) and returns decimal degrees.
func gpsAngle(x *exif.Exif, name exif.FieldName) (float64, error) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, err
	}
	deg, err := tag.Rat(0)
	if err != nil {
		return 0, err
	}
	min, err := tag.Rat(1)
	if err != nil {
		return 0, err
	}
	sec, err := tag.Rat(2)
	if err != nil {
		return 0, err
	}
	d, _ := deg.Float64()
	m, _ := min.Float64()
	s, _ := sec.Float64()
	return d + m/60 + s/3600, nil
}

// getDimensions reads pixel width/height for image assets only, per
// mod.rs's get_dimensions.
func getDimensions(mediaType, path string) (*asset.Dimensions, error) {
	typ, _ := splitMediaType(mediaType)
	if typ != "image" {
		return nil, fmt.Errorf("usecase: dimensions only supported for images")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, err
	}
	return &asset.Dimensions{Width: uint32(cfg.Width), Height: uint32(cfg.Height)}, nil
}
