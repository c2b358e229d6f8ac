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
	"log/slog"
	"time"

	"github.com/novatechflow/vaultaire/pkg/objects"
	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/wire"
)

// BucketSize is the simple/extended object size past which the origin's day
// rolls over to a fresh epoch.
const BucketSize = 4 * 1024 * 1024

// Flusher persists batch states with the two-phase extended-then-simple write
// protocol, serialized per origin by the write-lock object.
type Flusher struct {
	pool          *pool.Pool
	logger        *slog.Logger
	targetBuckets uint64
	bucketSize    uint64
	now           func() time.Time
}

// NewFlusher builds a flusher that rolls days over to targetBuckets lanes.
func NewFlusher(p *pool.Pool, logger *slog.Logger, targetBuckets uint64) *Flusher {
	return &Flusher{
		pool:          p,
		logger:        logger,
		targetBuckets: targetBuckets,
		bucketSize:    BucketSize,
		now:           time.Now,
	}
}

// Flush writes st under the origin's exclusive write lock, acknowledges every
// pending reply, and triggers day rollover when a bucket object has outgrown
// its size limit. A store error while writing the buckets aborts before
// acknowledgment; the batch is then retried by clients through the broker. A
// rollover error is returned after the acks have been sent.
func (f *Flusher) Flush(ctx context.Context, o origin.Origin, st *BatchState) error {
	start := f.now()
	err := f.pool.ExclusiveLock(ctx, objects.WriteLock(o), func(ctx context.Context) error {
		return f.flushLocked(ctx, o, st)
	})
	elapsed := time.Since(start)
	if err != nil {
		flushFailures.Inc()
		return fmt.Errorf("flush origin %s: %w", o, err)
	}
	flushTotal.Inc()
	flushDuration.Observe(elapsed.Seconds())
	f.logger.Debug("batch flushed", "origin", string(o), "points", st.Points(), "elapsed", elapsed)
	return nil
}

func (f *Flusher) flushLocked(ctx context.Context, o origin.Origin, st *BatchState) error {
	// Phase 1: stat every extended target for its pre-append size, then
	// append the buffered payload strings.
	stats := make(map[epochBucket]*pool.AsyncStat, len(st.extended))
	for eb := range st.extended {
		stats[eb] = f.pool.Stat(ctx, objects.Bucket(o, eb.bucket, eb.epoch, objects.KindExtended))
	}
	baseOffsets := make(map[epochBucket]uint64, len(stats))
	for eb, stat := range stats {
		size, err := stat.Look()
		if err != nil && !errors.Is(err, pool.ErrNotFound) {
			return err
		}
		baseOffsets[eb] = size
	}
	writes := make([]*pool.AsyncWrite, 0, len(st.extended))
	for eb, buf := range st.extended {
		writes = append(writes, f.pool.Append(ctx, objects.Bucket(o, eb.bucket, eb.epoch, objects.KindExtended), buf))
	}
	for _, w := range writes {
		if err := w.WaitSafe(); err != nil {
			return err
		}
	}

	// Phase 2: expand the deferred extended records against the pre-append
	// sizes and splice them into the simple buffers.
	for eb, pend := range st.pending {
		base, ok := baseOffsets[eb]
		if !ok {
			return fmt.Errorf("no extended base offset for epoch %d bucket %d", eb.epoch, eb.bucket)
		}
		buf := st.simple[eb]
		for _, e := range pend.entries {
			buf = wire.AppendPointHeader(buf, e.address, e.time, base+e.localOffset)
		}
		st.simple[eb] = buf
	}

	// Phase 3: write the simple buffers and observe post-write sizes.
	writes = writes[:0]
	for eb, buf := range st.simple {
		writes = append(writes, f.pool.WriteFull(ctx, objects.Bucket(o, eb.bucket, eb.epoch, objects.KindSimple), buf))
	}
	for _, w := range writes {
		if err := w.WaitSafe(); err != nil {
			return err
		}
	}
	var maxSimple uint64
	for _, buf := range st.simple {
		if size := uint64(len(buf)); size > maxSimple {
			maxSimple = size
		}
	}
	var maxExtended uint64
	for eb, buf := range st.extended {
		if size := baseOffsets[eb] + uint64(len(buf)); size > maxExtended {
			maxExtended = size
		}
	}

	// Phase 4: both writes are durable, acknowledge in arrival order. The
	// lock is released only after the acks are dispatched.
	for _, reply := range st.replies {
		reply(nil)
	}

	// Phase 5: day rollover for any lane that outgrew its bucket object.
	if maxSimple > f.bucketSize {
		if err := RollOverDay(ctx, f.pool, o, objects.KindSimple, f.targetBuckets, f.now()); err != nil {
			return err
		}
		rollovers.WithLabelValues(string(objects.KindSimple)).Inc()
		f.logger.Info("simple day rolled over", "origin", string(o), "max_object_bytes", maxSimple)
	}
	if maxExtended > f.bucketSize {
		if err := RollOverDay(ctx, f.pool, o, objects.KindExtended, f.targetBuckets, f.now()); err != nil {
			return err
		}
		rollovers.WithLabelValues(string(objects.KindExtended)).Inc()
		f.logger.Info("extended day rolled over", "origin", string(o), "max_object_bytes", maxExtended)
	}
	return nil
}
