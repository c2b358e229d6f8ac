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

// Package writer implements the per-origin write pipeline: the dispatcher,
// the batching actors, their in-memory batch state, and the two-phase flush
// into the object store.
package writer

import (
	"time"

	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/wire"
)

// Reply acknowledges one ingress message: nil is Success, a non-nil error is
// relayed to the client as Failure with the error text.
type Reply func(err error)

// Request is one point burst addressed to an origin, as handed to the
// dispatcher by an ingress source.
type Request struct {
	Origin  origin.Origin
	Payload []byte
	Reply   Reply
}

type epochBucket struct {
	epoch  uint64
	bucket uint64
}

// pendingEntry is the data form of a deferred extended-offset closure: at
// flush time it expands to the 24 bytes
// (address, time, baseOffset+localOffset) in the simple buffer.
type pendingEntry struct {
	address     uint64
	time        uint64
	localOffset uint64
}

type pendingWrites struct {
	runningLen uint64
	// entries are kept in ingress order so the patched simple records land
	// on disk in the order the points arrived.
	entries []pendingEntry
}

// BatchState accumulates one origin's points between flushes. It is owned by
// exactly one batcher and never shared.
type BatchState struct {
	replies  []Reply
	simple   map[epochBucket][]byte
	extended map[epochBucket][]byte
	pending  map[epochBucket]*pendingWrites
	start    time.Time
}

// NewBatchState opens a batch at now.
func NewBatchState(now time.Time) *BatchState {
	return &BatchState{
		simple:   make(map[epochBucket][]byte),
		extended: make(map[epochBucket][]byte),
		pending:  make(map[epochBucket]*pendingWrites),
		start:    now,
	}
}

// AddReply records a pending acknowledgment handle.
func (s *BatchState) AddReply(r Reply) {
	s.replies = append(s.replies, r)
}

// AppendSimple concatenates one 24-byte record into the bucket's simple
// buffer.
func (s *BatchState) AppendSimple(epoch, bucket, address, t, payload uint64) {
	eb := epochBucket{epoch: epoch, bucket: bucket}
	s.simple[eb] = wire.AppendPointHeader(s.simple[eb], address, t, payload)
}

// AppendExtended appends the length-prefixed payload into the bucket's
// extended buffer and records the deferred simple record against the buffer's
// running length.
func (s *BatchState) AppendExtended(epoch, bucket, address, t uint64, payload []byte) {
	eb := epochBucket{epoch: epoch, bucket: bucket}
	pend, ok := s.pending[eb]
	if !ok {
		pend = &pendingWrites{}
		s.pending[eb] = pend
	}
	pend.entries = append(pend.entries, pendingEntry{
		address:     address,
		time:        t,
		localOffset: pend.runningLen,
	})
	pend.runningLen += uint64(len(payload))

	buf := s.extended[eb]
	buf = wire.AppendExtendedString(buf, payload)
	s.extended[eb] = buf
}

// Empty reports whether the batch holds no points and no pending replies.
func (s *BatchState) Empty() bool {
	return len(s.replies) == 0 && len(s.simple) == 0 && len(s.extended) == 0
}

// Points returns the number of buffered simple records plus pending extended
// entries, for logging.
func (s *BatchState) Points() int {
	n := 0
	for _, buf := range s.simple {
		n += len(buf) / wire.PointHeaderLen
	}
	for _, pend := range s.pending {
		n += len(pend.entries)
	}
	return n
}
