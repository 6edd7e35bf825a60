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

// Package transport implements the two network-facing surfaces of the
// daemon: the statsd UDP listener and the upstream TCP merge server.
package transport

import (
	"errors"
	"net"

	"cardiff/internal/log"
)

const udpReadBufferSize = 8192

// UDPServer reads datagrams off a UDP socket and hands each one to
// onDatagram. Reads happen on a dedicated goroutine; onDatagram is
// invoked on that same goroutine, so callers that mutate single-owner
// state (the aggregator) should route the callback back onto their own
// event loop rather than mutate directly from here if they share that
// state with other producers.
type UDPServer struct {
	conn       *net.UDPConn
	onDatagram func([]byte)
	done       chan struct{}
}

// ListenUDP binds a UDP socket at addr and returns a server ready to
// Start.
func ListenUDP(addr string, onDatagram func([]byte)) (*UDPServer, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	log.Infof("listening on %s UDP", addr)
	return &UDPServer{conn: conn, onDatagram: onDatagram, done: make(chan struct{})}, nil
}

// Start runs the read loop until Close is called. It should be invoked in
// its own goroutine.
func (s *UDPServer) Start() {
	buf := make([]byte, udpReadBufferSize)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Errorf("udp socket error: %v", err)
			continue
		}
		if n == 0 {
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.onDatagram(data)
	}
}

// Close stops the read loop and releases the socket.
func (s *UDPServer) Close() error {
	close(s.done)
	return s.conn.Close()
}
