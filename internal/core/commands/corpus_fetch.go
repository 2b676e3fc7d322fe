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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// command that makes the corpus archive available in the local cache.
//
// Logic Flow:
// This is the first step of the ingestion pipeline. It delegates to the
// corpus store, which checks the cache and only downloads when the archive
// is missing, so re-running the pipeline on a warm cache performs no network
// traffic. On success it places the local archive path into the context for
// the extraction command.
package commands

import (
	"fmt"

	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/corpus"
)

// CorpusFetch is a command that ensures the corpus archive exists in the
// local cache, downloading it via the store's transport chain if needed.
type CorpusFetch struct {
	cor.BaseCommand
	store *corpus.Store // The corpus store that owns the cache and transports.
}

// NewCorpusFetch is the constructor for the CorpusFetch command.
func NewCorpusFetch(name string, store *corpus.Store) *CorpusFetch {
	return &CorpusFetch{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
	}
}

// IsExecutable overrides the default precondition: fetching is the head of
// the chain and consumes nothing from the context.
func (t *CorpusFetch) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

// Execute makes the archive available and emits its local path.
func (t *CorpusFetch) Execute(context cor.Context) {
	archivePath, err := t.store.EnsureAvailable(context.GetContext())
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to acquire corpus archive: %w", err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), archivePath)
}
