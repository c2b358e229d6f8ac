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

package writer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/novatechflow/vaultaire/pkg/daymap"
	"github.com/novatechflow/vaultaire/pkg/objects"
	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
)

// ErrNoSuchOrigin marks an origin whose day maps have not been provisioned.
// Messages for it are failed individually until the maps appear.
var ErrNoSuchOrigin = errors.New("No such origin")

// dayMaps is a batcher's read-through snapshot of its origin's two day maps.
type dayMaps struct {
	simple   *daymap.DayMap
	extended *daymap.DayMap
}

// loadDayMaps fetches both day-map objects for o. Either object missing means
// the origin does not exist yet.
func loadDayMaps(ctx context.Context, p *pool.Pool, o origin.Origin) (*dayMaps, error) {
	simpleBytes, err := p.ReadFull(ctx, objects.DayMap(o, objects.KindSimple))
	if err != nil {
		if errors.Is(err, pool.ErrNotFound) {
			return nil, ErrNoSuchOrigin
		}
		return nil, err
	}
	extendedBytes, err := p.ReadFull(ctx, objects.DayMap(o, objects.KindExtended))
	if err != nil {
		if errors.Is(err, pool.ErrNotFound) {
			return nil, ErrNoSuchOrigin
		}
		return nil, err
	}
	simple, err := daymap.Load(simpleBytes)
	if err != nil {
		return nil, fmt.Errorf("simple day map for %s: %w", o, err)
	}
	extended, err := daymap.Load(extendedBytes)
	if err != nil {
		return nil, fmt.Errorf("extended day map for %s: %w", o, err)
	}
	return &dayMaps{simple: simple, extended: extended}, nil
}

// RollOverDay extends the origin's day map for kind with a fresh epoch
// starting at now. Callers serialize rollover per origin through the write
// lock; re-appending the same epoch is harmless as the last entry wins on
// lookup.
func RollOverDay(ctx context.Context, p *pool.Pool, o origin.Origin, kind objects.Kind, noBuckets uint64, now time.Time) error {
	entry := daymap.AppendEntry(nil, daymap.Entry{
		Epoch:     uint64(now.UnixNano()),
		NoBuckets: noBuckets,
	})
	if err := p.Append(ctx, objects.DayMap(o, kind), entry).WaitSafe(); err != nil {
		return fmt.Errorf("roll over %s day for %s: %w", kind, o, err)
	}
	return nil
}

// InitialDayMaps provisions a new origin: both day maps are written with a
// single epoch-zero entry of noBuckets lanes.
func InitialDayMaps(ctx context.Context, p *pool.Pool, o origin.Origin, noBuckets uint64) error {
	entry := daymap.AppendEntry(nil, daymap.Entry{Epoch: 0, NoBuckets: noBuckets})
	for _, kind := range []objects.Kind{objects.KindSimple, objects.KindExtended} {
		if err := p.WriteFull(ctx, objects.DayMap(o, kind), entry).WaitSafe(); err != nil {
			return fmt.Errorf("provision %s day map for %s: %w", kind, o, err)
		}
	}
	return nil
}
