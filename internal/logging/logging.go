/*
Copyright 2024 The Tanuki Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logging provides the "log and continue" helper used by batch
// use-cases (store_assets, Edit, Dump, Load, Diagnose), matching the
// plain stdlib-log idiom used throughout the teacher's index and search
// packages rather than pulling in a structured logging framework.
package logging

import (
	"log"
	"os"
)

// Logger is the minimal surface the core needs; *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Default is a *log.Logger writing to stderr with a "tanuki: " prefix.
var Default Logger = log.New(os.Stderr, "tanuki: ", log.LstdFlags)

// Batch logs a single-item failure inside a bulk operation without
// aborting the batch, per spec.md §7's batch error policy.
func Batch(l Logger, op, id string, err error) {
	if l == nil {
		l = Default
	}
	l.Printf("%s: item %s failed: %v", op, id, err)
}

// External logs a downgraded EXIF/MP4/AVI/geocoder failure. The caller
// proceeds with the affected optional field left empty.
func External(l Logger, op string, err error) {
	if l == nil {
		l = Default
	}
	l.Printf("%s: external collaborator failed, continuing without it: %v", op, err)
}
