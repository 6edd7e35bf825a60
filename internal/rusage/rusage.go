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

// Package rusage samples the daemon's own resource usage for the
// self-telemetry gauges reported alongside every flush.
package rusage

// Sample is one point-in-time resource usage reading.
type Sample struct {
	BlockedInput           int64
	BlockedOutput          int64
	CPUTimeUserSeconds     float64
	CPUTimeSystemSeconds   float64
	MaxRSSBytes            int64
	ForcedContextSwitches  int64
}

// Get returns the current process's resource usage.
func Get() Sample {
	return get()
}
