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

// This file contains the end-to-end integration test for the corpus
// ingestion workflow: acquire the archive over HTTP, extract the three
// table members, parse them into typed tables, and assemble the snapshot.
// The corpus origin is simulated with a local httptest server so the test
// never touches the real CMU host.
package workflow_test

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/core/workflow"
	test "github.com/jaycherian/go-movie-corpus/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

// newCorpusOrigin builds a gzip-compressed tar of the fixture tables and
// serves it from an httptest server, counting how many times the archive is
// actually downloaded so the cache behavior can be asserted.
func newCorpusOrigin(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	archivePath := filepath.Join(t.TempDir(), "MovieSummaries.tar.gz")
	test.WriteCorpusArchive(t, archivePath, test.GetTestCorpusMembers())

	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.ServeFile(w, r, archivePath)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

// TestCorpusIngestionWorkflow runs the full ingestion pipeline twice against
// the same cache directory. The first run must download, extract, and load
// the corpus into a complete snapshot; the second run must produce an equal
// snapshot from the warm cache without contacting the origin again.
//
// Inputs:
//   - t: A pointer to the testing.T object, provided by the Go testing framework,
//     used for logging, error reporting, and assertions.
func TestCorpusIngestionWorkflow(t *testing.T) {
	// Start a new OpenTelemetry trace span so the test run is visible in the
	// exported traces alongside production ingestions.
	traceCtx, span := tracer.Start(ctx, "corpus-ingestion-test")
	defer span.End()

	server, hits := newCorpusOrigin(t)

	// Work on a copy of the shared test configuration: the corpus origin and
	// cache are per-test, everything else comes from the .env.test.toml files.
	cfg := *config
	cfg.Corpus.URL = server.URL + "/MovieSummaries.tar.gz"
	cfg.Corpus.CacheDir = t.TempDir()
	cfg.Corpus.ArchiveName = "MovieSummaries.tar.gz"
	cfg.Corpus.CharacterFile = "character.metadata.tsv"
	cfg.Corpus.MovieFile = "movie.metadata.tsv"
	cfg.Corpus.SummaryFile = "plot_summaries.txt"

	ingestion := workflow.NewCorpusIngestionWorkflow(&cfg, cloudClients)

	// First run: cold cache, so the archive is fetched from the origin.
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(traceCtx)
	snapshot, err := ingestion.Run(chainCtx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to execute corpus ingestion test")
	}
	require.NoError(t, err)

	// The snapshot must carry every fixture row: fifteen character rows,
	// three movies, and two plot summaries.
	assert.Equal(t, 15, snapshot.Characters.Len())
	assert.Equal(t, 3, snapshot.Movies.Len())
	assert.Equal(t, 2, snapshot.Summaries.Len())
	assert.Equal(t, int64(1), hits.Load())

	// A loaded movie resolves through the snapshot index with its genres
	// already deserialized into display names.
	movie, ok := snapshot.MovieByID(54166)
	require.True(t, ok)
	assert.Equal(t, "Raiders of the Lost Ark", *movie.MovieName)
	assert.Equal(t, []string{"Action", "Adventure"}, movie.Genres)

	// Second run: warm cache. The workflow must rebuild an identical
	// snapshot without a second download.
	secondCtx := cor.NewBaseContext()
	secondCtx.SetContext(traceCtx)
	again, err := workflow.NewCorpusIngestionWorkflow(&cfg, cloudClients).Run(secondCtx)
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, again.ID)
	assert.Equal(t, snapshot.Characters.Records, again.Characters.Records)
	assert.Equal(t, int64(1), hits.Load(), "warm cache must not re-download")

	span.SetStatus(codes.Ok, "passed - corpus ingestion test")
	logger.Info("corpus ingestion test complete", "snapshot", snapshot.ID.String())
}
