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
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// VaultPoint field numbers in the protobuf disk record.
const (
	vaultPointAddressField protowire.Number = 1
	vaultPointTimeField    protowire.Number = 2
	vaultPointPayloadField protowire.Number = 3
)

// VaultPoint is the protobuf-encoded form of a point inside a vault record.
type VaultPoint struct {
	Address uint64
	Time    uint64
	Payload uint64
}

// AppendVaultRecord appends VaultPrefix (the u64 LE length of the encoded
// VaultPoint) followed by the protobuf body to dst.
func AppendVaultRecord(dst []byte, p VaultPoint) []byte {
	body := appendVaultPoint(nil, p)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(body)))
	return append(dst, body...)
}

func appendVaultPoint(dst []byte, p VaultPoint) []byte {
	dst = protowire.AppendTag(dst, vaultPointAddressField, protowire.Fixed64Type)
	dst = protowire.AppendFixed64(dst, p.Address)
	dst = protowire.AppendTag(dst, vaultPointTimeField, protowire.Fixed64Type)
	dst = protowire.AppendFixed64(dst, p.Time)
	dst = protowire.AppendTag(dst, vaultPointPayloadField, protowire.Fixed64Type)
	dst = protowire.AppendFixed64(dst, p.Payload)
	return dst
}

func parseVaultPoint(body []byte) (VaultPoint, error) {
	var p VaultPoint
	for len(body) > 0 {
		num, typ, n := protowire.ConsumeTag(body)
		if n < 0 {
			return VaultPoint{}, fmt.Errorf("vault point tag: %w", protowire.ParseError(n))
		}
		body = body[n:]
		if typ != protowire.Fixed64Type {
			n = protowire.ConsumeFieldValue(num, typ, body)
			if n < 0 {
				return VaultPoint{}, fmt.Errorf("vault point field %d: %w", num, protowire.ParseError(n))
			}
			body = body[n:]
			continue
		}
		v, n := protowire.ConsumeFixed64(body)
		if n < 0 {
			return VaultPoint{}, fmt.Errorf("vault point field %d: %w", num, protowire.ParseError(n))
		}
		body = body[n:]
		switch num {
		case vaultPointAddressField:
			p.Address = v
		case vaultPointTimeField:
			p.Time = v
		case vaultPointPayloadField:
			p.Payload = v
		}
	}
	return p, nil
}

// ParseVaultRecords decodes a bucket object of prefixed records sequentially
// until the buffer is empty. Duplicate timestamps within the object are
// discarded, first wins.
func ParseVaultRecords(data []byte) ([]VaultPoint, error) {
	points := make([]VaultPoint, 0, len(data)/(8+PointHeaderLen))
	seen := make(map[uint64]struct{})
	o := 0
	for o < len(data) {
		if len(data)-o < 8 {
			return nil, fmt.Errorf("truncated vault prefix at offset %d", o)
		}
		bodyLen := binary.LittleEndian.Uint64(data[o:])
		o += 8
		if bodyLen > uint64(len(data)-o) {
			return nil, fmt.Errorf("vault record of %d bytes overruns object at offset %d", bodyLen, o)
		}
		p, err := parseVaultPoint(data[o : o+int(bodyLen)])
		if err != nil {
			return nil, err
		}
		o += int(bodyLen)
		if _, dup := seen[p.Time]; dup {
			continue
		}
		seen[p.Time] = struct{}{}
		points = append(points, p)
	}
	return points, nil
}

// ParseSimpleBucket decodes a simple bucket object: a bare stream of 24-byte
// records. Duplicate timestamps are discarded, first wins.
func ParseSimpleBucket(data []byte) ([]Point, error) {
	if len(data)%PointHeaderLen != 0 {
		return nil, fmt.Errorf("simple bucket length %d is not a multiple of %d", len(data), PointHeaderLen)
	}
	points := make([]Point, 0, len(data)/PointHeaderLen)
	seen := make(map[uint64]struct{})
	for o := 0; o < len(data); o += PointHeaderLen {
		p := Point{
			Address: binary.LittleEndian.Uint64(data[o:]),
			Time:    binary.LittleEndian.Uint64(data[o+8:]),
			Payload: binary.LittleEndian.Uint64(data[o+16:]),
		}
		if _, dup := seen[p.Time]; dup {
			continue
		}
		seen[p.Time] = struct{}{}
		points = append(points, p)
	}
	return points, nil
}

// AppendExtendedString appends the length-prefixed payload form stored in
// extended bucket objects: u64 LE length followed by the bytes.
func AppendExtendedString(dst, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint64(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// SliceExtendedPayload extracts the length-prefixed payload stored at offset
// in an extended bucket object.
func SliceExtendedPayload(object []byte, offset uint64) ([]byte, error) {
	if offset+8 > uint64(len(object)) {
		return nil, fmt.Errorf("extended offset %d outside object of %d bytes", offset, len(object))
	}
	strLen := binary.LittleEndian.Uint64(object[offset:])
	if offset+8+strLen > uint64(len(object)) {
		return nil, fmt.Errorf("extended payload of %d bytes at offset %d overruns object", strLen, offset)
	}
	return object[offset+8 : offset+8+strLen], nil
}
