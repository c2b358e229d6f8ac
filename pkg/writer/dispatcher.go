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
	"log/slog"

	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
)

// Dispatcher is the process-wide actor that owns the origin-to-batcher table,
// spawning batchers on demand and forwarding ingress requests.
type Dispatcher struct {
	pool     *pool.Pool
	flusher  *Flusher
	cfg      Config
	logger   *slog.Logger
	in       chan *Request
	stopped  chan struct{}
	batchers map[origin.Origin]*batcher
}

// NewDispatcher starts the dispatcher actor under ctx.
func NewDispatcher(ctx context.Context, p *pool.Pool, logger *slog.Logger, cfg Config) *Dispatcher {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		pool:     p,
		flusher:  NewFlusher(p, logger, cfg.TargetBuckets),
		cfg:      cfg,
		logger:   logger,
		in:       make(chan *Request),
		stopped:  make(chan struct{}),
		batchers: make(map[origin.Origin]*batcher),
	}
	go d.run(ctx)
	return d
}

// Dispatch hands one request to the dispatcher actor. It blocks while the
// target batcher's single-slot channel is full, preserving per-origin
// ordering. Requests after shutdown are failed immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) {
	select {
	case d.in <- req:
	case <-d.stopped:
		req.Reply(context.Canceled)
	case <-ctx.Done():
		req.Reply(ctx.Err())
	}
}

// Stopped is closed once the dispatcher actor has exited.
func (d *Dispatcher) Stopped() <-chan struct{} {
	return d.stopped
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.stopped)
	for {
		select {
		case req := <-d.in:
			d.route(ctx, req)
		case <-ctx.Done():
			return
		}
	}
}

func (d *Dispatcher) route(ctx context.Context, req *Request) {
	if b, ok := d.batchers[req.Origin]; ok {
		select {
		case <-b.done:
			// The batcher has exited; drop the stale entry and spawn a
			// fresh one below.
			delete(d.batchers, req.Origin)
		default:
			select {
			case b.in <- event{req: req}:
				return
			case <-b.done:
				delete(d.batchers, req.Origin)
			}
		}
	}

	b := newBatcher(req.Origin, d.pool, d.flusher, d.cfg, d.logger)
	b.start(ctx)
	d.batchers[req.Origin] = b
	batchersSpawned.Inc()
	select {
	case b.in <- event{req: req}:
	default:
		// The first send into a freshly spawned batcher cannot fail
		// without undetectable corruption of the routing table.
		panic("first send into fresh batcher failed")
	}
}
