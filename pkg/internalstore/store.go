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

// Package internalstore is a small address-keyed store over the object
// backend, used for bookkeeping such as the source-dict registry. Unlike
// point buckets it is mutable: rewriting an address replaces its value.
package internalstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/novatechflow/vaultaire/pkg/objects"
	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/wire"
)

// Store reads and writes internal KV objects.
type Store struct {
	pool *pool.Pool
}

// New builds a store over p.
func New(p *pool.Pool) *Store {
	return &Store{pool: p}
}

// Entry is one live key under an origin.
type Entry struct {
	Address uint64
	Data    []byte
}

// WriteTo stores data under (o, address): the simple-lane object carries a
// 24-byte record naming the address, the extended-lane object carries the
// length-prefixed payload.
func (s *Store) WriteTo(ctx context.Context, o origin.Origin, address uint64, data []byte) error {
	simple := wire.AppendPointHeader(nil, address, 0, 0)
	extended := make([]byte, 0, 8+len(data))
	extended = binary.LittleEndian.AppendUint64(extended, uint64(len(data)))
	extended = append(extended, data...)

	simpleWrite := s.pool.WriteFull(ctx, objects.Internal(o, address, objects.KindSimple), simple)
	extendedWrite := s.pool.WriteFull(ctx, objects.Internal(o, address, objects.KindExtended), extended)
	if err := simpleWrite.WaitSafe(); err != nil {
		return err
	}
	return extendedWrite.WaitSafe()
}

// ReadFrom returns the payload stored at (o, address), or pool.ErrNotFound.
func (s *Store) ReadFrom(ctx context.Context, o origin.Origin, address uint64) ([]byte, error) {
	data, err := s.pool.ReadFull(ctx, objects.Internal(o, address, objects.KindExtended))
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("internal object for address %d truncated at %d bytes", address, len(data))
	}
	payloadLen := binary.LittleEndian.Uint64(data)
	if payloadLen > uint64(len(data)-8) {
		return nil, fmt.Errorf("internal object for address %d claims %d payload bytes of %d", address, payloadLen, len(data)-8)
	}
	return data[8 : 8+payloadLen], nil
}

// EnumerateOrigin yields every live (address, data) pair under o in address
// order. The store is last-write-wins: the object at each address holds its
// latest value.
func (s *Store) EnumerateOrigin(ctx context.Context, o origin.Origin) ([]Entry, error) {
	listed, err := s.pool.List(ctx, objects.InternalPrefix(o))
	if err != nil {
		return nil, err
	}
	addresses := make(map[uint64]struct{})
	for _, obj := range listed {
		address, kind, ok := objects.InternalAddress(o, obj.Key)
		if !ok || kind != objects.KindSimple {
			continue
		}
		addresses[address] = struct{}{}
	}
	entries := make([]Entry, 0, len(addresses))
	for address := range addresses {
		data, err := s.ReadFrom(ctx, o, address)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Address: address, Data: data})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Address < entries[j].Address })
	return entries, nil
}
