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
	"log/slog"
	"time"

	"github.com/novatechflow/vaultaire/pkg/objects"
	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/wire"
)

// Config tunes the batching actors.
type Config struct {
	// BatchPeriod is how long a batch accumulates before it is flushed.
	BatchPeriod time.Duration
	// TickInterval is the cadence of the internal flush timer.
	TickInterval time.Duration
	// TargetBuckets is the lane count written into a day map on rollover.
	TargetBuckets uint64
}

// DefaultConfig mirrors the daemon defaults.
func DefaultConfig() Config {
	return Config{
		BatchPeriod:   4 * time.Second,
		TickInterval:  100 * time.Millisecond,
		TargetBuckets: 128,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchPeriod <= 0 {
		c.BatchPeriod = d.BatchPeriod
	}
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.TargetBuckets == 0 {
		c.TargetBuckets = d.TargetBuckets
	}
	return c
}

// event multiplexes ingress messages and timer ticks onto one channel; a nil
// req is a tick.
type event struct {
	req *Request
}

// batcher is the single actor owning one origin's batch state.
type batcher struct {
	origin  origin.Origin
	pool    *pool.Pool
	flusher *Flusher
	cfg     Config
	logger  *slog.Logger
	in      chan event
	done    chan struct{}
	maps    *dayMaps
	now     func() time.Time
}

func newBatcher(o origin.Origin, p *pool.Pool, flusher *Flusher, cfg Config, logger *slog.Logger) *batcher {
	return &batcher{
		origin:  o,
		pool:    p,
		flusher: flusher,
		cfg:     cfg,
		logger:  logger.With("origin", string(o)),
		in:      make(chan event, 1),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

func (b *batcher) start(ctx context.Context) {
	go b.tickLoop(ctx)
	go b.run(ctx)
}

// tickLoop is the only tick generator feeding this batcher.
func (b *batcher) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case b.in <- event{}:
			case <-b.done:
				return
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *batcher) run(ctx context.Context) {
	defer close(b.done)
	var st *BatchState
	for {
		select {
		case ev := <-b.in:
			if ev.req != nil {
				st = b.handleMsg(ctx, ev.req, st)
				continue
			}
			if st == nil || b.now().Before(st.start.Add(b.cfg.BatchPeriod)) {
				continue
			}
			if err := b.flusher.Flush(ctx, b.origin, st); err != nil {
				// Unacked messages are retried by clients through the
				// broker; the dispatcher respawns us on the next message.
				b.logger.Error("flush failed, sealing batcher", "error", err)
				return
			}
			st = nil
			b.maps = nil
		case <-ctx.Done():
			// Complete the open batch before exiting.
			if st != nil && !st.Empty() {
				if err := b.flusher.Flush(context.WithoutCancel(ctx), b.origin, st); err != nil {
					b.logger.Error("final flush failed", "error", err)
				}
			}
			return
		}
	}
}

// handleMsg parses one burst into the batch state. Decode and resolution
// errors fail the message without mutating state.
func (b *batcher) handleMsg(ctx context.Context, req *Request, st *BatchState) *BatchState {
	if b.maps == nil {
		maps, err := loadDayMaps(ctx, b.pool, b.origin)
		if err != nil {
			if !errors.Is(err, ErrNoSuchOrigin) {
				b.logger.Error("day map refresh failed", "error", err)
			}
			req.Reply(err)
			return st
		}
		b.maps = maps
	}

	points, err := wire.ParseBurst(req.Payload)
	if err != nil {
		decodeFailures.Inc()
		req.Reply(err)
		return st
	}

	// Resolve every point before touching state so a failing burst leaves
	// no partial residue. Extended points resolve through the simple day
	// map as well; the observed behavior of the store is preserved.
	type placed struct {
		epoch  uint64
		bucket uint64
	}
	placements := make([]placed, len(points))
	for i := range points {
		entry, err := b.maps.simple.Lookup(points[i].Time)
		if err != nil {
			req.Reply(err)
			return st
		}
		placements[i] = placed{
			epoch:  entry.Epoch,
			bucket: objects.BucketNumber(points[i].Address, entry.NoBuckets),
		}
	}

	if st == nil {
		st = NewBatchState(b.now())
	}
	st.AddReply(req.Reply)
	for i := range points {
		p := &points[i]
		if p.IsExtended() {
			st.AppendExtended(placements[i].epoch, placements[i].bucket, p.Address, p.Time, p.Extended)
		} else {
			st.AppendSimple(placements[i].epoch, placements[i].bucket, p.Address, p.Time, p.Payload)
		}
	}
	burstsReceived.Inc()
	pointsIngested.Add(float64(len(points)))
	return st
}
