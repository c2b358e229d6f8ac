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

package ingress

import (
	"bytes"
	"errors"
	"testing"

	"github.com/novatechflow/vaultaire/pkg/origin"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte("payload")); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	frame, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if string(frame.Payload) != "payload" {
		t.Fatalf("payload = %q", frame.Payload)
	}
}

func TestRequestRoundTrip(t *testing.T) {
	o := origin.Tidy("PONY")
	burst := []byte("some burst bytes")
	payload := EncodeRequest(42, o, burst)
	id, gotOrigin, gotBurst, err := parseRequest(payload)
	if err != nil {
		t.Fatalf("parse request: %v", err)
	}
	if id != 42 || gotOrigin != o || !bytes.Equal(gotBurst, burst) {
		t.Fatalf("parsed %d %q % x", id, gotOrigin, gotBurst)
	}
}

func TestRequestTooShort(t *testing.T) {
	if _, _, _, err := parseRequest(make([]byte, requestHeaderLen-1)); err == nil {
		t.Fatalf("expected error for short request")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	id, msg, ok, err := DecodeResponse(encodeResponse(7, nil))
	if err != nil {
		t.Fatalf("decode success: %v", err)
	}
	if id != 7 || !ok || msg != "" {
		t.Fatalf("decoded %d %q %v", id, msg, ok)
	}

	id, msg, ok, err = DecodeResponse(encodeResponse(8, errors.New("No such origin")))
	if err != nil {
		t.Fatalf("decode failure: %v", err)
	}
	if id != 8 || ok || msg != "No such origin" {
		t.Fatalf("decoded %d %q %v", id, msg, ok)
	}

	if _, _, _, err := DecodeResponse(make([]byte, 8)); err == nil {
		t.Fatalf("expected error for short response")
	}
}
