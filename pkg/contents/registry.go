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

// Package contents maintains the per-origin source-dict registry behind the
// contents wire operations, persisted through the internal KV store.
package contents

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/novatechflow/vaultaire/pkg/internalstore"
	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/wire"
)

// Registry stores the source dict registered for each address of an origin.
type Registry struct {
	store *internalstore.Store
}

// New builds a registry over store.
func New(store *internalstore.Store) *Registry {
	return &Registry{store: store}
}

// Tagged pairs an address with its registered source dict.
type Tagged struct {
	Address uint64
	Dict    wire.SourceDict
}

// GenerateNewAddress mints a random address with the extended flag cleared.
func GenerateNewAddress() (uint64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("generate address: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]) &^ 1, nil
}

// Update merges dict into the source registered at address, creating the
// entry if absent.
func (r *Registry) Update(ctx context.Context, o origin.Origin, address uint64, dict wire.SourceDict) error {
	current, err := r.load(ctx, o, address)
	if err != nil {
		return err
	}
	return r.store.WriteTo(ctx, o, address, current.Merge(dict).Encode())
}

// Remove drops dict's keys from the source registered at address.
func (r *Registry) Remove(ctx context.Context, o origin.Origin, address uint64, dict wire.SourceDict) error {
	current, err := r.load(ctx, o, address)
	if err != nil {
		return err
	}
	return r.store.WriteTo(ctx, o, address, current.Without(dict).Encode())
}

// List yields every registered (address, dict) pair under o in address order.
func (r *Registry) List(ctx context.Context, o origin.Origin) ([]Tagged, error) {
	entries, err := r.store.EnumerateOrigin(ctx, o)
	if err != nil {
		return nil, err
	}
	out := make([]Tagged, 0, len(entries))
	for _, e := range entries {
		dict, err := wire.ParseSourceDict(e.Data)
		if err != nil {
			return nil, fmt.Errorf("registry entry for address %d: %w", e.Address, err)
		}
		out = append(out, Tagged{Address: e.Address, Dict: dict})
	}
	return out, nil
}

// Apply executes one decoded contents operation against the registry.
// ContentsListRequest and GenerateNewAddress carry responses, not state, and
// are handled by the caller.
func (r *Registry) Apply(ctx context.Context, o origin.Origin, op wire.ContentsOperation) error {
	switch v := op.(type) {
	case wire.UpdateSourceTag:
		return r.Update(ctx, o, v.Address, v.Dict)
	case wire.RemoveSourceTag:
		return r.Remove(ctx, o, v.Address, v.Dict)
	default:
		return fmt.Errorf("contents operation %T carries no registry mutation", op)
	}
}

func (r *Registry) load(ctx context.Context, o origin.Origin, address uint64) (wire.SourceDict, error) {
	data, err := r.store.ReadFrom(ctx, o, address)
	if err != nil {
		if errors.Is(err, pool.ErrNotFound) {
			return wire.SourceDict{}, nil
		}
		return wire.SourceDict{}, err
	}
	return wire.ParseSourceDict(data)
}
