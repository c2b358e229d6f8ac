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

package daymap

import (
	"errors"
	"testing"
)

func encodeEntries(entries ...Entry) []byte {
	var out []byte
	for _, e := range entries {
		out = AppendEntry(out, e)
	}
	return out
}

func TestLoadCorrupt(t *testing.T) {
	if _, err := Load(make([]byte, 15)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if _, err := Load(make([]byte, 17)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	m, err := Load(nil)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if _, err := m.Lookup(100); !errors.Is(err, ErrNoEpoch) {
		t.Fatalf("expected ErrNoEpoch on empty map, got %v", err)
	}
	if _, ok := m.Last(); ok {
		t.Fatalf("empty map has no last entry")
	}
}

func TestLookup(t *testing.T) {
	m, err := Load(encodeEntries(
		Entry{Epoch: 0, NoBuckets: 16},
		Entry{Epoch: 1000, NoBuckets: 32},
		Entry{Epoch: 2000, NoBuckets: 64},
	))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cases := []struct {
		t    uint64
		want Entry
	}{
		{0, Entry{0, 16}},
		{999, Entry{0, 16}},
		{1000, Entry{1000, 32}},
		{1500, Entry{1000, 32}},
		{2000, Entry{2000, 64}},
		{1 << 62, Entry{2000, 64}},
	}
	for _, c := range cases {
		got, err := m.Lookup(c.t)
		if err != nil {
			t.Fatalf("lookup %d: %v", c.t, err)
		}
		if got != c.want {
			t.Fatalf("lookup %d = %+v, want %+v", c.t, got, c.want)
		}
	}
}

func TestLookupBeforeFirstEpoch(t *testing.T) {
	m, err := Load(encodeEntries(Entry{Epoch: 500, NoBuckets: 8}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := m.Lookup(499); !errors.Is(err, ErrNoEpoch) {
		t.Fatalf("expected ErrNoEpoch, got %v", err)
	}
}

func TestDuplicateEpochLastInsertedWins(t *testing.T) {
	m, err := Load(encodeEntries(
		Entry{Epoch: 1000, NoBuckets: 32},
		Entry{Epoch: 1000, NoBuckets: 64},
	))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := m.Lookup(1500)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.NoBuckets != 64 {
		t.Fatalf("lookup returned %d buckets, want last-inserted 64", got.NoBuckets)
	}
}

func TestUnorderedFileIsSorted(t *testing.T) {
	m, err := Load(encodeEntries(
		Entry{Epoch: 2000, NoBuckets: 64},
		Entry{Epoch: 0, NoBuckets: 16},
	))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := m.Lookup(100)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Epoch != 0 || got.NoBuckets != 16 {
		t.Fatalf("lookup = %+v, want epoch 0", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	original := encodeEntries(
		Entry{Epoch: 0, NoBuckets: 16},
		Entry{Epoch: 1000, NoBuckets: 32},
	)
	m, err := Load(original)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(m.Encode()) != string(original) {
		t.Fatalf("encode round trip mismatch")
	}
	if m.Len() != 2 {
		t.Fatalf("len = %d, want 2", m.Len())
	}
	last, ok := m.Last()
	if !ok || last.Epoch != 1000 {
		t.Fatalf("last = %+v, %v", last, ok)
	}
}
