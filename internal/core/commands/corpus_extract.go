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

// This file defines the command that extracts the flat files needed by the
// table loader out of the corpus archive.
//
// Logic Flow:
//  1. It receives the local archive path from the fetch command.
//  2. It asks the corpus store to extract the three table members into the
//     cache directory. Members already on disk are not re-extracted.
//  3. It places a `corpus.TablePaths` value into the context for the load
//     command, with the summary path left empty when the archive carries no
//     summary member (the loader treats that as "no summaries available").
package commands

import (
	"fmt"

	"github.com/jaycherian/go-movie-corpus/internal/cloud"
	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/corpus"
)

// CorpusExtract is a command that pulls the table members out of the corpus
// archive into the local cache directory.
type CorpusExtract struct {
	cor.BaseCommand
	store  *corpus.Store
	config *cloud.Config // Names the archive members to extract.
}

// NewCorpusExtract is the constructor for the CorpusExtract command.
func NewCorpusExtract(name string, store *corpus.Store, config *cloud.Config) *CorpusExtract {
	return &CorpusExtract{
		BaseCommand: *cor.NewBaseCommand(name),
		store:       store,
		config:      config,
	}
}

// Execute extracts the configured members and emits their local paths.
func (t *CorpusExtract) Execute(context cor.Context) {
	archivePath := context.Get(t.GetInputParam()).(string)

	members := []string{
		t.config.Corpus.CharacterFile,
		t.config.Corpus.MovieFile,
	}
	// The summary member is optional: a corpus without plot summaries is
	// still fully queryable.
	if t.config.Corpus.SummaryFile != "" {
		members = append(members, t.config.Corpus.SummaryFile)
	}

	extracted, err := t.store.EnsureExtracted(context.GetContext(), archivePath, members, t.config.Corpus.CacheDir)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to extract corpus members: %w", err))
		return
	}

	paths := corpus.TablePaths{
		Characters: extracted[t.config.Corpus.CharacterFile],
		Movies:     extracted[t.config.Corpus.MovieFile],
	}
	if t.config.Corpus.SummaryFile != "" {
		paths.Summaries = extracted[t.config.Corpus.SummaryFile]
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), paths)
}
