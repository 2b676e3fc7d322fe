// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package corpus manages the on-disk corpus cache and the loading of the
// extracted flat files into typed tables. This file defines the error
// taxonomy for acquisition, extraction, and loading. All errors carry enough
// context (URL, path, member name, line number) to diagnose a network issue
// or a corpus layout change from the message alone.
package corpus

import (
	"fmt"
	"strings"
)

// AcquisitionError reports that the corpus archive could not be downloaded.
// Every transport strategy is tried in order before this error is returned,
// and each transport's root cause is retained.
type AcquisitionError struct {
	URL      string
	Attempts []error
}

func (e *AcquisitionError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		msgs = append(msgs, a.Error())
	}
	return fmt.Sprintf("failed to acquire corpus archive from %s: %s",
		e.URL, strings.Join(msgs, "; "))
}

// Unwrap exposes the per-transport causes to errors.Is / errors.As.
func (e *AcquisitionError) Unwrap() []error {
	return e.Attempts
}

// ExtractionError reports that the archive could not be opened or read.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract archive %s: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// MemberNotFoundError reports that a requested member file is absent from
// the archive. Members are matched by basename, so this only fires when no
// entry in the archive ends with the requested file name.
type MemberNotFoundError struct {
	Archive string
	Member  string
}

func (e *MemberNotFoundError) Error() string {
	return fmt.Sprintf("member %q not found in archive %s", e.Member, e.Archive)
}

// SchemaError reports a structural mismatch between a source file and its
// fixed schema. Unlike cell-level coercion failures, which degrade to null,
// a wrong column count is fatal to the load.
type SchemaError struct {
	File string
	Line int
	Want int
	Got  int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema mismatch in %s line %d: want %d columns, got %d",
		e.File, e.Line, e.Want, e.Got)
}

// LoadError wraps any other unrecoverable failure while reading a source
// file into a table.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
