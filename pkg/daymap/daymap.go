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

// Package daymap resolves point times to the epoch boundary and bucket count
// of an origin's namespace. Each origin carries two day-maps, one for simple
// buckets and one for extended.
package daymap

import (
	"encoding/binary"
	"errors"
	"sort"
)

// EntryLen is the on-disk size of one day-map entry.
const EntryLen = 16

var (
	// ErrCorrupt is returned for day-map files whose length is not a
	// multiple of EntryLen.
	ErrCorrupt = errors.New("corrupt day map")
	// ErrNoEpoch is returned when a time precedes every epoch in the map,
	// or when the map is empty.
	ErrNoEpoch = errors.New("time precedes every epoch in day map")
)

// Entry associates an epoch boundary with its bucket count.
type Entry struct {
	Epoch     uint64
	NoBuckets uint64
}

// DayMap is an ordered epoch-to-bucket-count table. The zero value is empty.
type DayMap struct {
	entries []Entry
}

// Load decodes a day-map object: a stream of 16-byte (epoch, no_buckets)
// little-endian records. Entries are ordered by epoch; for duplicate epochs
// the last-inserted entry wins.
func Load(data []byte) (*DayMap, error) {
	if len(data)%EntryLen != 0 {
		return nil, ErrCorrupt
	}
	entries := make([]Entry, 0, len(data)/EntryLen)
	for o := 0; o < len(data); o += EntryLen {
		entries = append(entries, Entry{
			Epoch:     binary.LittleEndian.Uint64(data[o:]),
			NoBuckets: binary.LittleEndian.Uint64(data[o+8:]),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Epoch < entries[j].Epoch })
	return &DayMap{entries: entries}, nil
}

// Encode serializes the map back into the object format.
func (m *DayMap) Encode() []byte {
	out := make([]byte, 0, len(m.entries)*EntryLen)
	for _, e := range m.entries {
		out = binary.LittleEndian.AppendUint64(out, e.Epoch)
		out = binary.LittleEndian.AppendUint64(out, e.NoBuckets)
	}
	return out
}

// AppendEntry serializes a single entry, the unit appended on rollover.
func AppendEntry(dst []byte, e Entry) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, e.Epoch)
	return binary.LittleEndian.AppendUint64(dst, e.NoBuckets)
}

// Lookup returns the entry with the greatest epoch not exceeding t.
func (m *DayMap) Lookup(t uint64) (Entry, error) {
	// Find the first entry strictly above t; everything before it is <= t,
	// and for duplicate epochs the later (last-inserted) entry sorts last.
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Epoch > t })
	if i == 0 {
		return Entry{}, ErrNoEpoch
	}
	return m.entries[i-1], nil
}

// Len returns the number of entries.
func (m *DayMap) Len() int {
	return len(m.entries)
}

// Last returns the highest-epoch entry, or false on an empty map.
func (m *DayMap) Last() (Entry, bool) {
	if len(m.entries) == 0 {
		return Entry{}, false
	}
	return m.entries[len(m.entries)-1], true
}
