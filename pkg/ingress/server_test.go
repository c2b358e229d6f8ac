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
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/novatechflow/vaultaire/pkg/origin"
	"github.com/novatechflow/vaultaire/pkg/pool"
	"github.com/novatechflow/vaultaire/pkg/wire"
	"github.com/novatechflow/vaultaire/pkg/writer"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastDispatcher(ctx context.Context, p *pool.Pool) *writer.Dispatcher {
	return writer.NewDispatcher(ctx, p, testLogger(), writer.Config{
		BatchPeriod:  50 * time.Millisecond,
		TickInterval: 10 * time.Millisecond,
	})
}

func TestServerHandleConnection_Success(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := pool.New(pool.NewMemoryStore(), nil)
	o := origin.Tidy("PONY")
	if err := writer.InitialDayMaps(ctx, p, o, 16); err != nil {
		t.Fatalf("initial day maps: %v", err)
	}
	s := &Server{Dispatcher: fastDispatcher(ctx, p), Logger: testLogger()}

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConnection(ctx, serverConn)
	}()

	burst := wire.EncodeBurst([]wire.Point{{Address: 128, Time: 100, Payload: 7}})
	if err := WriteFrame(clientConn, EncodeRequest(1, o, burst)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	_ = clientConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	frame, err := ReadFrame(clientConn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	id, msg, ok, err := DecodeResponse(frame.Payload)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if id != 1 || !ok {
		t.Fatalf("response id=%d ok=%v msg=%q", id, ok, msg)
	}

	points, err := writer.ReadBucket(ctx, p, o, 0, 0)
	if err != nil {
		t.Fatalf("read bucket: %v", err)
	}
	if len(points) != 1 || points[0].Payload != 7 {
		t.Fatalf("points = %+v", points)
	}

	clientConn.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("handleConnection did not exit")
	}
}

func TestServerHandleConnection_Failure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// No day maps are provisioned, so every message fails per origin.
	p := pool.New(pool.NewMemoryStore(), nil)
	s := &Server{Dispatcher: fastDispatcher(ctx, p), Logger: testLogger()}

	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()
	go s.handleConnection(ctx, serverConn)

	burst := wire.EncodeBurst([]wire.Point{{Address: 128, Time: 100, Payload: 7}})
	if err := WriteFrame(clientConn, EncodeRequest(9, origin.Tidy("GHOST"), burst)); err != nil {
		t.Fatalf("write request: %v", err)
	}
	_ = clientConn.SetReadDeadline(time.Now().Add(5 * time.Second))
	frame, err := ReadFrame(clientConn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	id, msg, ok, err := DecodeResponse(frame.Payload)
	if err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if id != 9 || ok || msg != "No such origin" {
		t.Fatalf("response id=%d ok=%v msg=%q", id, ok, msg)
	}
}
