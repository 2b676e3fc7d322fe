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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the corpus ingestion workflow that runs once at startup.
package workflow

import (
	"fmt"

	"github.com/jaycherian/go-movie-corpus/internal/cloud"
	"github.com/jaycherian/go-movie-corpus/internal/core/commands"
	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/core/model"
	"github.com/jaycherian/go-movie-corpus/internal/corpus"
)

// CorpusIngestionWorkflow orchestrates the full ingestion of the movie
// corpus: acquire the archive, extract the table members, and parse them
// into the immutable snapshot the query engine serves from. It's structured
// as a Chain of Responsibility (cor.Chain) in which each command's output
// feeds the next.
//
// There is no partial-success mode: either all three tables load and the
// snapshot is produced, or ingestion fails and the error names the failing
// stage.
type CorpusIngestionWorkflow struct {
	cor.BaseCommand
	config *cloud.Config
	store  *corpus.Store
	chain  cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire ingestion workflow by invoking the underlying chain.
func (w *CorpusIngestionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Run is the blocking convenience entry point used at startup: it builds a
// fresh chain context, executes the workflow, and returns the snapshot or
// the first stage error.
func (w *CorpusIngestionWorkflow) Run(ctx cor.Context) (*model.Snapshot, error) {
	w.Execute(ctx)
	if ctx.HasErrors() {
		for stage, err := range ctx.GetErrors() {
			return nil, fmt.Errorf("corpus ingestion failed at %s: %w", stage, err)
		}
	}
	snapshot, ok := ctx.Get(SnapshotOutputParamName).(*model.Snapshot)
	if !ok {
		return nil, fmt.Errorf("corpus ingestion produced no snapshot")
	}
	return snapshot, nil
}

// initializeChain builds the sequence of commands that make up this
// workflow. Each command is an atomic unit of work whose output serves as
// the input for the next. This method is called by the constructor.
// SnapshotOutputParamName is the context key the assembled snapshot is
// stored under when the chain completes.
const SnapshotOutputParamName = "__snapshot_output__"

func (w *CorpusIngestionWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Make the corpus archive available in the local cache. On a
	// warm cache this touches nothing but the filesystem.
	out.AddCommand(commands.NewCorpusFetch("corpus-fetch", w.store))

	// Step 2: Extract the table members out of the archive into the cache
	// directory, matching by basename.
	out.AddCommand(commands.NewCorpusExtract("corpus-extract", w.store, w.config))

	// Step 3: Parse the flat files into typed tables and assemble the
	// snapshot under its dedicated output key.
	out.AddCommand(commands.NewTableLoad("table-load", w.config.Corpus.URL, SnapshotOutputParamName))

	w.chain = out
}

// NewCorpusIngestionWorkflow is the constructor for the ingestion workflow.
// It assembles the corpus store's transport chain from the configuration:
// a direct HTTP download first, then the GCS mirror when one is configured,
// then wget when a binary is configured, tried in order until one succeeds.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing the initialized external clients.
//
// Returns:
//   - A pointer to a newly created and fully initialized CorpusIngestionWorkflow.
func NewCorpusIngestionWorkflow(config *cloud.Config, serviceClients *cloud.ServiceClients) *CorpusIngestionWorkflow {
	transports := []corpus.Transport{&corpus.HTTPTransport{}}
	if config.Corpus.MirrorBucket != "" && serviceClients.StorageClient != nil {
		transports = append(transports, &corpus.GCSMirrorTransport{
			Client: serviceClients.StorageClient,
			Bucket: config.Corpus.MirrorBucket,
			Object: config.Corpus.MirrorObject,
		})
	}
	if config.Corpus.WgetPath != "" {
		transports = append(transports, &corpus.ExecTransport{CommandPath: config.Corpus.WgetPath})
	}

	store := corpus.NewStore(config.Corpus.URL, config.Corpus.CacheDir, config.Corpus.ArchiveName, transports...)

	workflow := &CorpusIngestionWorkflow{
		BaseCommand: *cor.NewBaseCommand("corpus-ingestion-pipeline"),
		config:      config,
		store:       store,
	}
	workflow.initializeChain()
	return workflow
}
