// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

package transport

import (
	"errors"
	"net"

	"cardiff/internal/log"
)

// UpstreamServer accepts one TCP connection per inbound payload: read one
// frame, hand it to onPayload, close. This matches the original daemon's
// connection-per-payload lifecycle (UpstreamConnection.on_data closes the
// stream immediately after a single frame arrives).
type UpstreamServer struct {
	listener  net.Listener
	onPayload func(UpstreamPayload)
	done      chan struct{}
}

// ListenUpstream binds a TCP listener at addr.
func ListenUpstream(addr string, onPayload func(UpstreamPayload)) (*UpstreamServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	log.Infof("listening on %s TCP", addr)
	return &UpstreamServer{listener: ln, onPayload: onPayload, done: make(chan struct{})}, nil
}

// Start runs the accept loop until Close is called. It should be invoked
// in its own goroutine.
func (s *UpstreamServer) Start() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Errorf("upstream accept error: %v", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *UpstreamServer) handleConn(conn net.Conn) {
	defer conn.Close()

	payload, err := DecodeFrame(conn)
	if err != nil {
		log.Warnf("discarding malformed upstream frame from %s: %v", conn.RemoteAddr(), err)
		return
	}
	log.Infof("received upstream payload from %s (host=%s)", conn.RemoteAddr(), payload.Host)
	s.onPayload(payload)
}

// Close stops the accept loop and releases the listener.
func (s *UpstreamServer) Close() error {
	close(s.done)
	return s.listener.Close()
}

// Addr returns the listener's bound address.
func (s *UpstreamServer) Addr() net.Addr {
	return s.listener.Addr()
}
