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

// Package shard picks which upstream peer owns a given metric key, using
// rendezvous (highest random weight) hashing so that adding or removing a
// peer only reshuffles ownership of the keys nearest the change instead of
// the whole keyspace.
package shard

import (
	"sync"

	"github.com/dgryski/go-rendezvous"
)

func hashString(s string) uint64 {
	var h uint64 = 14695981039346656037
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

// Router selects, for each metric key, which of a set of upstream peer
// addresses should receive it when a controller is configured to fan keys
// out across more than one upstream target.
type Router struct {
	mu   sync.RWMutex
	rdv  *rendezvous.Rendezvous
	node []string
}

// NewRouter builds a Router over the given peer addresses. peers must be
// non-empty.
func NewRouter(peers []string) *Router {
	r := &Router{node: append([]string(nil), peers...)}
	r.rdv = rendezvous.New(r.node, hashString)
	return r
}

// Peer returns which configured peer owns key.
func (r *Router) Peer(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rdv.Lookup(key)
}

// SetPeers replaces the peer set, e.g. after a config reload.
func (r *Router) SetPeers(peers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.node = append([]string(nil), peers...)
	r.rdv = rendezvous.New(r.node, hashString)
}

// Peers returns the current peer set.
func (r *Router) Peers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.node...)
}
