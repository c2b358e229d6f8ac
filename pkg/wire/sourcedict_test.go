// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

import (
	"strings"
	"testing"
)

func TestSourceDictCanonicalOrder(t *testing.T) {
	dict, err := NewSourceDict(map[string]string{"z": "1", "a": "2", "m": "3"})
	if err != nil {
		t.Fatalf("new dict: %v", err)
	}
	if got := string(dict.Encode()); got != "a:2,m:3,z:1" {
		t.Fatalf("encoded dict = %q, want sorted pairs", got)
	}
}

func TestSourceDictRoundTrip(t *testing.T) {
	dict, _ := NewSourceDict(map[string]string{"host": "web01", "metric": "cpu"})
	parsed, err := ParseSourceDict(dict.Encode())
	if err != nil {
		t.Fatalf("parse dict: %v", err)
	}
	if string(parsed.Encode()) != string(dict.Encode()) {
		t.Fatalf("round trip mismatch: %q != %q", parsed.Encode(), dict.Encode())
	}
	if v, ok := parsed.Get("host"); !ok || v != "web01" {
		t.Fatalf("Get(host) = %q, %v", v, ok)
	}
	if _, ok := parsed.Get("absent"); ok {
		t.Fatalf("Get(absent) should miss")
	}
}

func TestSourceDictEmpty(t *testing.T) {
	dict, err := ParseSourceDict(nil)
	if err != nil {
		t.Fatalf("parse empty dict: %v", err)
	}
	if dict.Len() != 0 || len(dict.Encode()) != 0 {
		t.Fatalf("empty dict should encode to nothing")
	}
}

func TestSourceDictRejectsSeparators(t *testing.T) {
	if _, err := NewSourceDict(map[string]string{"a:b": "v"}); err == nil {
		t.Fatalf("expected error for key with separator")
	}
	if _, err := ParseSourceDict([]byte("nocolon")); err == nil {
		t.Fatalf("expected error for field without separator")
	}
}

func TestSourceDictMergeWithout(t *testing.T) {
	base, _ := NewSourceDict(map[string]string{"a": "1", "b": "2"})
	patch, _ := NewSourceDict(map[string]string{"b": "9", "c": "3"})
	merged := base.Merge(patch)
	if got := string(merged.Encode()); got != "a:1,b:9,c:3" {
		t.Fatalf("merged = %q", got)
	}
	stripped := merged.Without(patch)
	if got := string(stripped.Encode()); got != "a:1" {
		t.Fatalf("stripped = %q", got)
	}
}

func TestHashID(t *testing.T) {
	dict, _ := NewSourceDict(map[string]string{"host": "web01", "metric": "cpu"})
	id := dict.HashID()
	if len(id) != HashIDLen {
		t.Fatalf("hash id %q has length %d, want %d", id, len(id), HashIDLen)
	}
	for _, r := range id {
		if !strings.ContainsRune(base62Alphabet, r) {
			t.Fatalf("hash id %q contains non-base62 rune %q", id, r)
		}
	}
	if id != dict.HashID() {
		t.Fatalf("hash id is not deterministic")
	}
	other, _ := NewSourceDict(map[string]string{"host": "web02", "metric": "cpu"})
	if other.HashID() == id {
		t.Fatalf("distinct dicts share a hash id")
	}
}
