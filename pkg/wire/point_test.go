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
	"bytes"
	"reflect"
	"testing"
)

func TestBurstRoundTrip(t *testing.T) {
	points := []Point{
		{Address: 4, Time: 1405945112199721428, Payload: 42},
		{Address: 5, Time: 1405945112199721429, Payload: 5, Extended: []byte("hello")},
		{Address: 6, Time: 1405945112199721430, Payload: 0},
		{Address: 7, Time: 1405945112199721431, Payload: 0, Extended: []byte{}},
	}
	decoded, err := ParseBurst(EncodeBurst(points))
	if err != nil {
		t.Fatalf("parse burst: %v", err)
	}
	if len(decoded) != len(points) {
		t.Fatalf("decoded %d points, want %d", len(decoded), len(points))
	}
	for i := range points {
		if decoded[i].Address != points[i].Address || decoded[i].Time != points[i].Time || decoded[i].Payload != points[i].Payload {
			t.Fatalf("point %d header mismatch: %+v != %+v", i, decoded[i], points[i])
		}
		if !bytes.Equal(decoded[i].Extended, points[i].Extended) {
			t.Fatalf("point %d payload mismatch", i)
		}
	}
}

func TestParseBurstTruncatedHeader(t *testing.T) {
	if _, err := ParseBurst(make([]byte, 23)); err == nil {
		t.Fatalf("expected error for truncated header")
	}
	full := EncodeBurst([]Point{{Address: 2, Time: 1, Payload: 3}})
	if _, err := ParseBurst(append(full, 0x01)); err == nil {
		t.Fatalf("expected error for trailing byte")
	}
}

func TestParseBurstPayloadOverrun(t *testing.T) {
	burst := AppendPointHeader(nil, 1, 10, 1000)
	burst = append(burst, []byte("short")...)
	if _, err := ParseBurst(burst); err == nil {
		t.Fatalf("expected error for payload overrun")
	}
}

func TestParseBurstEmpty(t *testing.T) {
	points, err := ParseBurst(nil)
	if err != nil {
		t.Fatalf("parse empty burst: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %d", len(points))
	}
}

func TestMaskedAddress(t *testing.T) {
	p := Point{Address: 129}
	if !p.IsExtended() {
		t.Fatalf("odd address should be extended")
	}
	if p.MaskedAddress() != 128 {
		t.Fatalf("masked address = %d, want 128", p.MaskedAddress())
	}
	q := Point{Address: 128}
	if q.IsExtended() {
		t.Fatalf("even address should be simple")
	}
	if !reflect.DeepEqual(q.MaskedAddress(), uint64(128)) {
		t.Fatalf("masked address changed a simple address")
	}
}
