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
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/novatechflow/vaultaire/pkg/writer"
)

// Server accepts framed TCP connections and dispatches point bursts.
type Server struct {
	Addr       string
	Dispatcher *writer.Dispatcher
	Logger     *slog.Logger
	listener   net.Listener
	wg         sync.WaitGroup
}

// ListenAndServe starts accepting writer connections until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Dispatcher == nil {
		return errors.New("ingress.Server requires a Dispatcher")
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.Logger.Info("ingress listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.handleConnection(ctx, c)
		}(conn)
	}
}

// Wait blocks until all connection goroutines exit.
func (s *Server) Wait() {
	s.wg.Wait()
}

// ListenAddress returns the actual listener address if the server has started.
func (s *Server) ListenAddress() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.Addr
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	// Acknowledgments arrive from flush goroutines after the read loop has
	// moved on; writes to the connection are serialized here.
	var writeMu sync.Mutex
	for {
		frame, err := ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.Logger.Debug("read frame", "error", err)
			}
			return
		}
		id, o, burst, err := parseRequest(frame.Payload)
		if err != nil {
			s.Logger.Debug("malformed request", "error", err)
			return
		}
		reply := func(result error) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := WriteFrame(conn, encodeResponse(id, result)); err != nil {
				s.Logger.Debug("write response", "error", err)
			}
		}
		s.Dispatcher.Dispatch(ctx, &writer.Request{
			Origin:  o,
			Payload: burst,
			Reply:   reply,
		})
	}
}
