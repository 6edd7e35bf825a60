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

// Package key canonicalizes metric names before they are used to index
// any aggregator state.
package key

import "strings"

// Normalize applies the fixup chain metric keys go through before being
// used as map keys, in order:
//
//  1. drop every byte not in [A-Za-z0-9._-]
//  2. replace '/' with '-'
//  3. collapse runs of whitespace into a single '_'
//
// Steps run in this order even though, by the time step 2 and step 3 see
// the string, step 1 has already removed '/' and whitespace — this
// matches the original daemon's (broken) regex chain's intended meaning,
// not a "smarter" reordering. Normalize is pure and idempotent:
// Normalize(Normalize(k)) == Normalize(k).
func Normalize(raw string) string {
	s := dropIllegal(raw)
	s = strings.ReplaceAll(s, "/", "-")
	s = collapseWhitespace(s)
	return s
}

func dropIllegal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAllowed(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inRun := false
	for _, r := range s {
		if isSpace(r) {
			inRun = true
			continue
		}
		if inRun {
			b.WriteByte('_')
			inRun = false
		}
		b.WriteRune(r)
	}
	if inRun {
		b.WriteByte('_')
	}
	return b.String()
}

func isAllowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == '_' || r == '-':
		return true
	default:
		return false
	}
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
