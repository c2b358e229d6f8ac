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
	"errors"
	"fmt"
)

// Contents operation header opcodes.
const (
	opContentsListRequest uint64 = 0x0
	opGenerateNewAddress  uint64 = 0x1
	opUpdateSourceTag     uint64 = 0x2
	opRemoveSourceTag     uint64 = 0x3
)

// ErrIllegalOpCode is returned for contents frames with an unknown header.
var ErrIllegalOpCode = errors.New("Illegal op code")

// ContentsOperation is a decoded client request against the contents service.
type ContentsOperation interface {
	contentsOp()
}

// ContentsListRequest asks for every address and source dict under an origin.
type ContentsListRequest struct{}

// GenerateNewAddress asks the service to mint an unused address.
type GenerateNewAddress struct{}

// UpdateSourceTag merges Dict into the source registered at Address.
type UpdateSourceTag struct {
	Address uint64
	Dict    SourceDict
}

// RemoveSourceTag removes the keys of Dict from the source at Address.
type RemoveSourceTag struct {
	Address uint64
	Dict    SourceDict
}

func (ContentsListRequest) contentsOp() {}
func (GenerateNewAddress) contentsOp()  {}
func (UpdateSourceTag) contentsOp()     {}
func (RemoveSourceTag) contentsOp()     {}

// ParseContentsOperation decodes a contents frame. Unknown headers and frames
// too short for their fixed header fields fail with ErrIllegalOpCode; a dict
// length that disagrees with the trailing byte count fails with a length
// error, and a malformed inner dict fails with the dict codec's error.
func ParseContentsOperation(data []byte) (ContentsOperation, error) {
	if len(data) < 8 {
		return nil, ErrIllegalOpCode
	}
	header := binary.LittleEndian.Uint64(data)
	switch header {
	case opContentsListRequest:
		return ContentsListRequest{}, nil
	case opGenerateNewAddress:
		return GenerateNewAddress{}, nil
	case opUpdateSourceTag, opRemoveSourceTag:
		addr, dict, err := parseTagPayload(data[8:])
		if err != nil {
			return nil, err
		}
		if header == opUpdateSourceTag {
			return UpdateSourceTag{Address: addr, Dict: dict}, nil
		}
		return RemoveSourceTag{Address: addr, Dict: dict}, nil
	default:
		return nil, ErrIllegalOpCode
	}
}

func parseTagPayload(data []byte) (uint64, SourceDict, error) {
	if len(data) < 16 {
		return 0, SourceDict{}, ErrIllegalOpCode
	}
	addr := binary.LittleEndian.Uint64(data)
	dictLen := binary.LittleEndian.Uint64(data[8:])
	if dictLen != uint64(len(data)-16) {
		return 0, SourceDict{}, fmt.Errorf("source dict length %d does not match %d trailing bytes", dictLen, len(data)-16)
	}
	dict, err := ParseSourceDict(data[16:])
	if err != nil {
		return 0, SourceDict{}, err
	}
	return addr, dict, nil
}

// EncodeContentsOperation serializes op into its frame.
func EncodeContentsOperation(op ContentsOperation) []byte {
	switch v := op.(type) {
	case ContentsListRequest:
		return binary.LittleEndian.AppendUint64(nil, opContentsListRequest)
	case GenerateNewAddress:
		return binary.LittleEndian.AppendUint64(nil, opGenerateNewAddress)
	case UpdateSourceTag:
		return encodeTagPayload(opUpdateSourceTag, v.Address, v.Dict)
	case RemoveSourceTag:
		return encodeTagPayload(opRemoveSourceTag, v.Address, v.Dict)
	default:
		panic(fmt.Sprintf("unknown contents operation %T", op))
	}
}

func encodeTagPayload(header, addr uint64, dict SourceDict) []byte {
	encoded := dict.Encode()
	out := make([]byte, 0, 24+len(encoded))
	out = binary.LittleEndian.AppendUint64(out, header)
	out = binary.LittleEndian.AppendUint64(out, addr)
	out = binary.LittleEndian.AppendUint64(out, uint64(len(encoded)))
	return append(out, encoded...)
}
