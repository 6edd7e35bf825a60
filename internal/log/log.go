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

// Package log is a minimal leveled wrapper around the standard library
// logger. It exists so call sites read "log.Warn(...)" instead of
// threading format prefixes through every fmt.Printf.
package log

import (
	"log"
	"os"
)

var std = log.New(os.Stdout, "", log.LstdFlags)

// Infof logs an informational message.
func Infof(format string, args ...interface{}) {
	std.Printf("INFO "+format, args...)
}

// Warnf logs a warning.
func Warnf(format string, args ...interface{}) {
	std.Printf("WARN "+format, args...)
}

// Errorf logs an error.
func Errorf(format string, args ...interface{}) {
	std.Printf("ERROR "+format, args...)
}

// Debugf logs a debug message. Debug logging is always on; the teacher
// repo has no runtime verbosity switch and this carries that texture
// forward rather than inventing one.
func Debugf(format string, args ...interface{}) {
	std.Printf("DEBUG "+format, args...)
}
