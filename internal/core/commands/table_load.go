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

// This file defines the command that parses the extracted flat files into
// the typed, immutable snapshot the query engine serves from.
//
// Logic Flow:
//  1. It receives a `corpus.TablePaths` value from the extraction command.
//  2. It runs the typed table loader, which applies the lenient cell
//     coercion rules and fails only on structural problems.
//  3. It assembles the three tables into a `model.Snapshot`, whose identity
//     is derived deterministically from the corpus source URL, and places
//     the snapshot into the context as the pipeline's final output.
package commands

import (
	"fmt"

	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/core/model"
	"github.com/jaycherian/go-movie-corpus/internal/corpus"
)

// TableLoad is a command that turns extracted flat files into a queryable
// snapshot.
type TableLoad struct {
	cor.BaseCommand
	source string // The corpus source URL, used for the snapshot identity.
}

// NewTableLoad is the constructor for the TableLoad command. The
// outputParamName is the context key the snapshot is stored under; the
// workflow reads its final result from that key after the chain completes.
func NewTableLoad(name string, source string, outputParamName string) *TableLoad {
	out := &TableLoad{
		BaseCommand: *cor.NewBaseCommand(name),
		source:      source,
	}
	out.OutputParamName = outputParamName
	return out
}

// Execute loads the tables and emits the assembled snapshot.
func (t *TableLoad) Execute(context cor.Context) {
	paths := context.Get(t.GetInputParam()).(corpus.TablePaths)

	characters, movies, summaries, err := corpus.Load(paths)
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to load corpus tables: %w", err))
		return
	}

	snapshot := model.NewSnapshot(t.source, characters, movies, summaries)

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), snapshot)
}
