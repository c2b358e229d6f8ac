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
	"errors"
	"testing"
)

func TestContentsListRequestBytes(t *testing.T) {
	encoded := EncodeContentsOperation(ContentsListRequest{})
	if !bytes.Equal(encoded, make([]byte, 8)) {
		t.Fatalf("ContentsListRequest = % x, want eight zero bytes", encoded)
	}
}

func TestUpdateSourceTagBytes(t *testing.T) {
	dict, err := NewSourceDict(map[string]string{"metric": "cpu"})
	if err != nil {
		t.Fatalf("new dict: %v", err)
	}
	encoded := EncodeContentsOperation(UpdateSourceTag{Address: 0x2A, Dict: dict})

	want := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x2A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x0A, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	want = append(want, []byte("metric:cpu")...)
	if !bytes.Equal(encoded, want) {
		t.Fatalf("UpdateSourceTag = % x, want % x", encoded, want)
	}
}

func TestContentsOperationRoundTrip(t *testing.T) {
	dict, err := NewSourceDict(map[string]string{"host": "a", "metric": "cpu"})
	if err != nil {
		t.Fatalf("new dict: %v", err)
	}
	ops := []ContentsOperation{
		ContentsListRequest{},
		GenerateNewAddress{},
		UpdateSourceTag{Address: 42, Dict: dict},
		RemoveSourceTag{Address: 42, Dict: dict},
	}
	for _, op := range ops {
		decoded, err := ParseContentsOperation(EncodeContentsOperation(op))
		if err != nil {
			t.Fatalf("parse %T: %v", op, err)
		}
		switch v := decoded.(type) {
		case UpdateSourceTag:
			orig := op.(UpdateSourceTag)
			if v.Address != orig.Address || !bytes.Equal(v.Dict.Encode(), orig.Dict.Encode()) {
				t.Fatalf("UpdateSourceTag round trip mismatch: %+v", v)
			}
		case RemoveSourceTag:
			orig := op.(RemoveSourceTag)
			if v.Address != orig.Address || !bytes.Equal(v.Dict.Encode(), orig.Dict.Encode()) {
				t.Fatalf("RemoveSourceTag round trip mismatch: %+v", v)
			}
		case ContentsListRequest, GenerateNewAddress:
		default:
			t.Fatalf("unexpected decoded type %T", decoded)
		}
	}
}

func TestIllegalOpCode(t *testing.T) {
	frame := []byte{0x09, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	if _, err := ParseContentsOperation(frame); !errors.Is(err, ErrIllegalOpCode) {
		t.Fatalf("header 0x9: got %v, want ErrIllegalOpCode", err)
	}
	if _, err := ParseContentsOperation([]byte{0x02}); !errors.Is(err, ErrIllegalOpCode) {
		t.Fatalf("truncated frame: got %v, want ErrIllegalOpCode", err)
	}
}

func TestUpdateSourceTagLengthMismatch(t *testing.T) {
	dict, _ := NewSourceDict(map[string]string{"metric": "cpu"})
	encoded := EncodeContentsOperation(UpdateSourceTag{Address: 1, Dict: dict})
	if _, err := ParseContentsOperation(encoded[:len(encoded)-1]); err == nil {
		t.Fatalf("expected error for trimmed dict bytes")
	}
}

func TestInnerDictErrorPropagates(t *testing.T) {
	payload := []byte{
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x07, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	payload = append(payload, []byte("noseper")...)
	if _, err := ParseContentsOperation(payload); err == nil || errors.Is(err, ErrIllegalOpCode) {
		t.Fatalf("expected inner dict error, got %v", err)
	}
}
