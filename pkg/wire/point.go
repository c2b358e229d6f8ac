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

// Package wire implements the Vaultaire framing codecs: point bursts, contents
// operations, source dictionaries, disk records, and day-map files. All
// integers are little-endian u64 unless noted otherwise.
package wire

import (
	"encoding/binary"
	"fmt"
)

// PointHeaderLen is the fixed header size of every point record.
const PointHeaderLen = 24

// Point is a single metric point. Bit 0 of Address flags an extended point;
// for extended points Payload holds the byte length of Extended, for simple
// points Payload is the inline value and Extended is nil.
type Point struct {
	Address  uint64
	Time     uint64
	Payload  uint64
	Extended []byte
}

// IsExtended reports whether the point carries an out-of-band payload.
func (p *Point) IsExtended() bool {
	return p.Address&1 == 1
}

// MaskedAddress strips the extended flag, identifying the bucket lane.
func (p *Point) MaskedAddress() uint64 {
	return p.Address &^ 1
}

// ParseBurst decodes a contiguous stream of point records. Any arithmetic
// overrun fails the whole burst; no partial result is returned.
func ParseBurst(data []byte) ([]Point, error) {
	points := make([]Point, 0, len(data)/PointHeaderLen)
	o := 0
	for o < len(data) {
		if len(data)-o < PointHeaderLen {
			return nil, fmt.Errorf("truncated point header at offset %d", o)
		}
		p := Point{
			Address: binary.LittleEndian.Uint64(data[o:]),
			Time:    binary.LittleEndian.Uint64(data[o+8:]),
			Payload: binary.LittleEndian.Uint64(data[o+16:]),
		}
		o += PointHeaderLen
		if p.IsExtended() {
			if p.Payload > uint64(len(data)-o) {
				return nil, fmt.Errorf("extended payload of %d bytes overruns burst at offset %d", p.Payload, o)
			}
			p.Extended = append([]byte(nil), data[o:o+int(p.Payload)]...)
			o += int(p.Payload)
		}
		points = append(points, p)
	}
	return points, nil
}

// EncodeBurst serializes points back into the burst format.
func EncodeBurst(points []Point) []byte {
	size := 0
	for i := range points {
		size += PointHeaderLen + len(points[i].Extended)
	}
	out := make([]byte, 0, size)
	for i := range points {
		out = AppendPointHeader(out, points[i].Address, points[i].Time, points[i].Payload)
		out = append(out, points[i].Extended...)
	}
	return out
}

// AppendPointHeader appends the fixed 24-byte record to dst.
func AppendPointHeader(dst []byte, address, time, payload uint64) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, address)
	dst = binary.LittleEndian.AppendUint64(dst, time)
	dst = binary.LittleEndian.AppendUint64(dst, payload)
	return dst
}
