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

import "testing"

func TestInferMediaTypeKnownExtension(t *testing.T) {
	if got := inferMediaType("jpg"); got != "image/jpeg" {
		t.Fatalf("got %q", got)
	}
	if got := inferMediaType("HEIC"); got != "image/heic" {
		t.Fatalf("got %q", got)
	}
}

func TestInferMediaTypeUnknownExtensionFallsBackToOctetStream(t *testing.T) {
	if got := inferMediaType("qwerty"); got != "application/octet-stream" {
		t.Fatalf("got %q", got)
	}
}

func TestSelectBestExtensionPrefersRegisteredFirstEntry(t *testing.T) {
	ext, ok := selectBestExtension("image/jpeg")
	if !ok || ext != "jpeg" {
		t.Fatalf("got %q, %v", ext, ok)
	}
}

func TestExtensionsForMediaTypeIncludesAllVariants(t *testing.T) {
	exts := extensionsForMediaType("image/jpeg")
	found := map[string]bool{}
	for _, e := range exts {
		found[e] = true
	}
	for _, want := range []string{"jpeg", "jpg", "jpe", "jfif"} {
		if !found[want] {
			t.Fatalf("expected extension %q among %v", want, exts)
		}
	}
}

func TestSplitMediaType(t *testing.T) {
	typ, sub := splitMediaType("video/x-msvideo")
	if typ != "video" || sub != "x-msvideo" {
		t.Fatalf("got %q, %q", typ, sub)
	}
	typ, sub = splitMediaType("garbage")
	if typ != "garbage" || sub != "" {
		t.Fatalf("expected no-slash input to pass through as typ with empty subtype, got %q, %q", typ, sub)
	}
}
