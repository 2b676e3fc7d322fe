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

// Package corpus manages the on-disk corpus cache. This file defines the
// transport strategies used to fetch the corpus archive. The store tries the
// configured transports in order and stops at the first success; each
// transport reports failure uniformly so the store can aggregate all causes
// into a single AcquisitionError.
package corpus

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"

	"cloud.google.com/go/storage"
)

// Transport fetches the corpus archive from its source into the file at
// dest. Implementations must either write dest completely or return an
// error; the store discards dest on failure.
type Transport interface {
	// Name identifies the transport in logs and aggregated errors.
	Name() string

	// Fetch downloads the resource at url into the file at dest.
	Fetch(ctx context.Context, url string, dest string) error
}

// HTTPTransport fetches the archive over plain HTTP(S). It is the primary
// transport for the canonical corpus URL.
type HTTPTransport struct {
	Client *http.Client
}

// Name returns the transport identifier.
func (t *HTTPTransport) Name() string { return "http" }

// Fetch streams the HTTP response body into dest. Any non-200 status is a
// failure.
func (t *HTTPTransport) Fetch(ctx context.Context, url string, dest string) error {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("http: failed to build request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("http: request to %s failed: %w", url, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v\n", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http: unexpected status %d from %s", resp.StatusCode, url)
	}

	return writeStream(dest, resp.Body)
}

// GCSMirrorTransport fetches the archive from a Google Cloud Storage mirror
// bucket. It is only configured when a mirror is declared in the corpus
// configuration, and is useful when the canonical host is slow or down.
type GCSMirrorTransport struct {
	Client *storage.Client
	Bucket string
	Object string
}

// Name returns the transport identifier.
func (t *GCSMirrorTransport) Name() string { return "gcs-mirror" }

// Fetch streams the mirror object into dest. The canonical URL argument is
// ignored; the mirror location comes from configuration.
func (t *GCSMirrorTransport) Fetch(ctx context.Context, _ string, dest string) error {
	reader, err := t.Client.Bucket(t.Bucket).Object(t.Object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("gcs-mirror: failed to open gs://%s/%s: %w", t.Bucket, t.Object, err)
	}
	defer func(reader *storage.Reader) {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close GCS reader: %v\n", err)
		}
	}(reader)

	return writeStream(dest, reader)
}

// ExecTransport shells out to a command-line downloader (wget by default).
// It is the last-resort fallback, mirroring environments where the Go HTTP
// stack is blocked by a proxy but the system downloader is configured for it.
type ExecTransport struct {
	// CommandPath is the downloader binary. Empty means "wget" resolved
	// from PATH.
	CommandPath string
}

// Name returns the transport identifier.
func (t *ExecTransport) Name() string { return "exec" }

// Fetch runs `<cmd> -q -O dest url` and reports any non-zero exit as a
// failure. The binary must be resolvable before the command is attempted.
func (t *ExecTransport) Fetch(ctx context.Context, url string, dest string) error {
	command := t.CommandPath
	if command == "" {
		command = "wget"
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return fmt.Errorf("exec: downloader %q not available: %w", command, err)
	}

	cmd := exec.CommandContext(ctx, path, "-q", "-O", dest, url)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("exec: %s failed for %s: %w (output: %s)", command, url, err, out)
	}
	return nil
}

// writeStream copies a reader into a freshly created file at dest.
func writeStream(dest string, r io.Reader) error {
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return f.Close()
}
