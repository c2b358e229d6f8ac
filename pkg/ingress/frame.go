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

// Package ingress feeds the dispatcher from broker transports. Each source
// yields (reply handle, origin, burst) triples; the reply carries Success or
// Failure back to the submitting client.
//
// The framed TCP transport carries one request per frame:
//
//	frame    = u32 BE length ‖ payload
//	request  = u64 LE request id ‖ 10-byte origin ‖ point burst
//	response = u64 LE request id ‖ status byte (0 ok, 1 failure) ‖ utf-8 msg
package ingress

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/novatechflow/vaultaire/pkg/origin"
)

const (
	statusSuccess byte = 0
	statusFailure byte = 1

	requestHeaderLen = 8 + origin.Width
)

// Frame is one length-prefixed transport frame.
type Frame struct {
	Payload []byte
}

// ReadFrame reads a single size-prefixed frame from r.
func ReadFrame(r io.Reader) (*Frame, error) {
	var lengthBuf [4]byte
	if _, err := io.ReadFull(r, lengthBuf[:]); err != nil {
		return nil, fmt.Errorf("read frame size: %w", err)
	}
	length := binary.BigEndian.Uint32(lengthBuf[:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload: %w", err)
	}
	return &Frame{Payload: payload}, nil
}

// WriteFrame writes payload prefixed with its length to w.
func WriteFrame(w io.Writer, payload []byte) error {
	var lengthBuf [4]byte
	if len(payload) > int(^uint32(0)>>1) {
		return fmt.Errorf("payload too large: %d", len(payload))
	}
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("write frame size: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

// parseRequest splits a request payload into its id, origin, and burst.
func parseRequest(payload []byte) (uint64, origin.Origin, []byte, error) {
	if len(payload) < requestHeaderLen {
		return 0, "", nil, fmt.Errorf("request of %d bytes shorter than header", len(payload))
	}
	id := binary.LittleEndian.Uint64(payload)
	o := origin.Tidy(string(payload[8:requestHeaderLen]))
	return id, o, payload[requestHeaderLen:], nil
}

// EncodeRequest builds a request payload for a client submission.
func EncodeRequest(id uint64, o origin.Origin, burst []byte) []byte {
	out := make([]byte, 0, requestHeaderLen+len(burst))
	out = binary.LittleEndian.AppendUint64(out, id)
	out = append(out, []byte(o)...)
	return append(out, burst...)
}

// encodeResponse builds a response payload. A nil err is Success.
func encodeResponse(id uint64, err error) []byte {
	out := binary.LittleEndian.AppendUint64(nil, id)
	if err == nil {
		return append(out, statusSuccess)
	}
	out = append(out, statusFailure)
	return append(out, err.Error()...)
}

// DecodeResponse splits a response payload, returning the request id and the
// failure message if any.
func DecodeResponse(payload []byte) (uint64, string, bool, error) {
	if len(payload) < 9 {
		return 0, "", false, fmt.Errorf("response of %d bytes shorter than header", len(payload))
	}
	id := binary.LittleEndian.Uint64(payload)
	ok := payload[8] == statusSuccess
	return id, string(payload[9:]), ok, nil
}
