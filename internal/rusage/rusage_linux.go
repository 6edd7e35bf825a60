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

//go:build linux

package rusage

import "syscall"

// get reads RUSAGE_SELF via getrusage(2). ru_maxrss is reported in
// kilobytes on Linux; the Python original multiplies by 1024 to get bytes
// and we match that here.
func get() Sample {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return Sample{}
	}
	return Sample{
		BlockedInput:          int64(ru.Inblock),
		BlockedOutput:         int64(ru.Oublock),
		CPUTimeUserSeconds:    timevalSeconds(ru.Utime),
		CPUTimeSystemSeconds:  timevalSeconds(ru.Stime),
		MaxRSSBytes:           ru.Maxrss * 1024,
		ForcedContextSwitches: ru.Nivcsw,
	}
}

func timevalSeconds(tv syscall.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}
