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

import "strings"

// extensionTable maps a lowercase file extension to its media type and
// back, grounded on mod.rs's infer_media_type/get_all_extensions/
// select_best_extension (themselves backed by the mime_guess crate's
// bundled database). Go's stdlib mime.TypeByExtension reads
// /etc/mime.types on unix and so varies by host; a personal asset
// library's import/diagnose behavior must not depend on whatever
// happens to be installed on the machine running it, so this is a
// small self-contained table instead, covering the formats a photo
// and video library actually sees.
var extensionTable = []struct {
	mediaType  string
	extensions []string // preferred extension first
}{
	{"image/jpeg", []string{"jpeg", "jpg", "jpe", "jfif"}},
	{"image/png", []string{"png"}},
	{"image/gif", []string{"gif"}},
	{"image/tiff", []string{"tiff", "tif"}},
	{"image/bmp", []string{"bmp"}},
	{"image/webp", []string{"webp"}},
	{"image/heic", []string{"heic"}},
	{"image/vnd.adobe.photoshop", []string{"psd"}},
	{"video/mp4", []string{"mp4", "m4v"}},
	{"video/quicktime", []string{"mov"}},
	{"video/x-msvideo", []string{"avi"}},
	{"video/x-matroska", []string{"mkv"}},
	{"video/mpeg", []string{"mpeg", "mpg", "m1v"}},
	{"video/x-ms-wmv", []string{"wmv"}},
	{"text/xml", []string{"xml", "aae"}},
}

func mediaTypeForExtension(extension string) (string, bool) {
	ext := strings.ToLower(extension)
	for _, row := range extensionTable {
		for _, e := range row.extensions {
			if e == ext {
				return row.mediaType, true
			}
		}
	}
	return "", false
}

func extensionsForMediaType(mediaType string) []string {
	want := strings.ToLower(mediaType)
	for _, row := range extensionTable {
		if row.mediaType == want {
			return row.extensions
		}
	}
	return nil
}

// inferMediaType returns the first guessed media type for extension,
// falling back to application/octet-stream, per mod.rs's
// infer_media_type.
func inferMediaType(extension string) string {
	if mt, ok := mediaTypeForExtension(extension); ok {
		return mt
	}
	return "application/octet-stream"
}

// selectBestExtension returns the most sensible extension for
// mediaType, per mod.rs's select_best_extension.
func selectBestExtension(mediaType string) (string, bool) {
	exts := extensionsForMediaType(mediaType)
	if len(exts) == 0 {
		return "", false
	}
	return exts[0], true
}

// splitMediaType separates "type/subtype" into its two parts,
// lowercased.
func splitMediaType(mediaType string) (typ, subtype string) {
	lower := strings.ToLower(mediaType)
	i := strings.IndexByte(lower, '/')
	if i < 0 {
		return lower, ""
	}
	return lower[:i], lower[i+1:]
}
