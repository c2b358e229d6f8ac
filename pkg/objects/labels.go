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

// Package objects produces the deterministic labels under which Vaultaire
// stores buckets, locks, day maps, and internal bookkeeping objects.
package objects

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/novatechflow/vaultaire/pkg/origin"
)

// Kind selects the simple or extended lane of a bucket pair.
type Kind string

const (
	// KindSimple labels buckets of fixed 24-byte records.
	KindSimple Kind = "simple"
	// KindExtended labels buckets of length-prefixed payload strings.
	KindExtended Kind = "extended"
)

// NanosecondsPerSecond converts the contents-hash window to point time units.
const NanosecondsPerSecond = 1_000_000_000

const vaultPrefix = "02"

// Bucket returns the label of a time-sharded bucket object.
func Bucket(o origin.Origin, bucket, epoch uint64, kind Kind) string {
	return fmt.Sprintf("%s_%s_%020d_%020d_%s", vaultPrefix, o, bucket, epoch, kind)
}

// WriteLock returns the label of the origin's flush lock object.
func WriteLock(o origin.Origin) string {
	return fmt.Sprintf("%s_%s_write_lock", vaultPrefix, o)
}

// Internal returns the label of an internal KV object for address.
func Internal(o origin.Origin, address uint64, kind Kind) string {
	return fmt.Sprintf("%s_%s_INTERNAL_%020d_%020d_%s", vaultPrefix, o, address, 0, kind)
}

// InternalPrefix returns the label prefix shared by every internal KV object
// of an origin.
func InternalPrefix(o origin.Origin) string {
	return fmt.Sprintf("%s_%s_INTERNAL_", vaultPrefix, o)
}

// InternalAddress recovers the address encoded in an internal KV label, and
// reports whether label names an internal object of o at all.
func InternalAddress(o origin.Origin, label string) (uint64, Kind, bool) {
	rest, ok := strings.CutPrefix(label, InternalPrefix(o))
	if !ok {
		return 0, "", false
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 3 {
		return 0, "", false
	}
	address, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	kind := Kind(parts[2])
	if kind != KindSimple && kind != KindExtended {
		return 0, "", false
	}
	return address, kind, true
}

// DayMap returns the label of the origin's day-map object for kind.
func DayMap(o origin.Origin, kind Kind) string {
	return fmt.Sprintf("%s_%s_%s_days", vaultPrefix, o, kind)
}

// ContentsHash returns the label of a contents-hash bucket: the source hash
// bucketed into windows of window seconds. t is in nanoseconds.
func ContentsHash(epochTag string, o origin.Origin, sourceHash string, t, window uint64) string {
	return fmt.Sprintf("%s_%s_%s_%d", epochTag, o, sourceHash, (t/(window*NanosecondsPerSecond))*window)
}

// BucketNumber shards a masked address into one of noBuckets lanes.
func BucketNumber(address, noBuckets uint64) uint64 {
	return (address &^ 1) % noBuckets
}
