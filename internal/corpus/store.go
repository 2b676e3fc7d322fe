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

// Package corpus manages the on-disk corpus cache. This file implements the
// Store, which owns the two idempotent acquisition steps:
//
//  1. EnsureAvailable downloads the compressed corpus archive into the cache
//     directory, but only when it is not already present. Presence is checked
//     by path, not by content hash, so a completed run makes later runs
//     no-ops with no network traffic.
//  2. EnsureExtracted pulls the named member files out of the archive into
//     the cache directory, stripped of any internal directory prefixes, again
//     skipping members that already exist on disk.
//
// Downloads and extractions are written to temporary names and renamed into
// place only on success, so an interrupted run can never leave a partial file
// that would satisfy the presence check.
package corpus

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/h2non/filetype"
)

// sniffLen is the number of leading bytes needed by the filetype matchers.
const sniffLen = 262

// Store manages the cached corpus archive and its extracted member files.
type Store struct {
	URL         string      // Canonical download URL of the corpus archive.
	CacheDir    string      // Directory that holds the archive and extracted files.
	ArchiveName string      // File name of the archive inside CacheDir.
	Transports  []Transport // Ordered acquisition strategies; first success wins.
}

// NewStore creates a store for the given corpus location. Transports are
// tried in the order given.
func NewStore(url, cacheDir, archiveName string, transports ...Transport) *Store {
	return &Store{
		URL:         url,
		CacheDir:    cacheDir,
		ArchiveName: archiveName,
		Transports:  transports,
	}
}

// ArchivePath returns the expected location of the archive in the cache.
func (s *Store) ArchivePath() string {
	return filepath.Join(s.CacheDir, s.ArchiveName)
}

// EnsureAvailable makes sure the corpus archive exists in the cache and
// returns its path. A warm cache short-circuits before any network work.
// When the archive is missing, each transport is tried in order; if all of
// them fail the returned *AcquisitionError aggregates every root cause.
func (s *Store) EnsureAvailable(ctx context.Context) (string, error) {
	archivePath := s.ArchivePath()
	if fileExists(archivePath) {
		slog.Info("corpus archive already cached, skipping download", "path", archivePath)
		return archivePath, nil
	}

	if err := os.MkdirAll(s.CacheDir, 0o755); err != nil {
		return "", &AcquisitionError{URL: s.URL, Attempts: []error{err}}
	}

	// Download to a partial name so a failed transfer never satisfies the
	// presence check above.
	partial := archivePath + ".partial"
	attempts := make([]error, 0, len(s.Transports))
	for _, transport := range s.Transports {
		slog.Info("downloading corpus archive",
			"url", s.URL,
			"transport", transport.Name())
		err := transport.Fetch(ctx, s.URL, partial)
		if err == nil {
			if err := os.Rename(partial, archivePath); err != nil {
				return "", &AcquisitionError{URL: s.URL, Attempts: []error{err}}
			}
			slog.Info("corpus archive downloaded", "path", archivePath)
			return archivePath, nil
		}
		_ = os.Remove(partial)
		slog.Warn("corpus transport failed",
			"transport", transport.Name(),
			"error", err)
		attempts = append(attempts, fmt.Errorf("%s: %w", transport.Name(), err))
	}

	if len(attempts) == 0 {
		attempts = append(attempts, errors.New("no transports configured"))
	}
	return "", &AcquisitionError{URL: s.URL, Attempts: attempts}
}

// EnsureExtracted extracts the named members of the archive into destDir and
// returns a map from member name to extracted path. Members whose basename
// already exists in destDir are skipped. Archive entries are matched by
// basename, so internal directory prefixes inside the archive are tolerated
// and stripped. A requested member absent from the archive yields a
// *MemberNotFoundError; an unreadable or non-gzip archive yields a
// *ExtractionError.
func (s *Store) EnsureExtracted(ctx context.Context, archivePath string, members []string, destDir string) (map[string]string, error) {
	out := make(map[string]string, len(members))
	pending := make(map[string]bool)
	for _, member := range members {
		dest := filepath.Join(destDir, filepath.Base(member))
		out[member] = dest
		if fileExists(dest) {
			continue
		}
		pending[filepath.Base(member)] = true
	}
	if len(pending) == 0 {
		slog.Info("all corpus members already extracted, skipping", "dir", destDir)
		return out, nil
	}

	if err := s.checkArchiveType(archivePath); err != nil {
		return nil, err
	}

	f, err := os.Open(archivePath)
	if err != nil {
		return nil, &ExtractionError{Archive: archivePath, Err: err}
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close archive", "path", archivePath, "error", err)
		}
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, &ExtractionError{Archive: archivePath, Err: err}
	}

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Archive: archivePath, Err: err}
		}
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Archive: archivePath, Err: err}
		}
		base := filepath.Base(hdr.Name)
		if !pending[base] || hdr.Typeflag != tar.TypeReg {
			continue
		}
		dest := filepath.Join(destDir, base)
		if err := extractMember(tr, dest); err != nil {
			return nil, &ExtractionError{Archive: archivePath, Err: err}
		}
		slog.Info("extracted corpus member", "member", base, "path", dest)
		delete(pending, base)
		if len(pending) == 0 {
			break
		}
	}

	for member := range pending {
		return nil, &MemberNotFoundError{Archive: archivePath, Member: member}
	}
	return out, nil
}

// checkArchiveType sniffs the archive header and rejects anything that is
// not gzip data before the extractor touches it.
func (s *Store) checkArchiveType(archivePath string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return &ExtractionError{Archive: archivePath, Err: err}
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return &ExtractionError{Archive: archivePath, Err: err}
	}
	if !filetype.Is(head[:n], "gz") {
		return &ExtractionError{
			Archive: archivePath,
			Err:     errors.New("file is not a gzip archive"),
		}
	}
	return nil
}

// extractMember copies a single tar entry to dest, writing through a
// temporary name so a torn write never looks like a finished extraction.
func extractMember(r io.Reader, dest string) error {
	tmp := dest + ".partial"
	if err := writeStream(tmp, r); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dest)
}

// fileExists checks if a file exists at the given path.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
