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

// This file defines the ClassifierService, which asks a chat model to
// independently classify a movie's genres from its title and plot summary.
// The corpus already records genres for most movies, so the classification
// is returned alongside the recorded list for comparison rather than
// replacing it.
package services

import (
	"context"
	"fmt"
	"text/template"

	"github.com/jaycherian/go-movie-corpus/internal/cloud"
	"github.com/jaycherian/go-movie-corpus/internal/core/commands"
	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/core/model"
)

// ClassifierService wires the genre classification command behind a simple
// request/response method. Transport errors from the chat model are surfaced
// to the caller, never swallowed.
type ClassifierService struct {
	analyzer *AnalyzerService
	classify *commands.GenreClassify
}

// NewClassifierService builds the service around the shared analyzer and a
// chat model.
//
// Inputs:
//   - analyzer: The query engine, used to resolve the movie's title and summary.
//   - chatModel: The rate-limited chat model that performs the classification.
//   - promptTemplate: A parsed Go template for the classification prompt.
//
// Outputs:
//   - *ClassifierService: A pointer to the newly instantiated service.
func NewClassifierService(analyzer *AnalyzerService, chatModel cloud.ChatModel, promptTemplate *template.Template) *ClassifierService {
	return &ClassifierService{
		analyzer: analyzer,
		classify: commands.NewGenreClassify("genre-classify", chatModel, promptTemplate),
	}
}

// Classify resolves the movie's details from the snapshot and runs the
// classification command against them.
//
// Inputs:
//   - ctx: The context for the request, used for cancellation and tracing.
//   - id: The Wikipedia movie identifier to classify.
//
// Outputs:
//   - *model.GenreClassification: The model's genre list and rationale.
//   - error: An error if the movie has no summary to classify or the model call fails.
func (s *ClassifierService) Classify(ctx context.Context, id int64) (*model.GenreClassification, error) {
	details := s.analyzer.MovieDetails(id)
	if details.Summary == model.SummaryUnavailable {
		return nil, fmt.Errorf("movie %d has no plot summary to classify", id)
	}

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(s.classify.GetInputParam(), details)

	s.classify.Execute(chainCtx)
	if chainCtx.HasErrors() {
		for _, err := range chainCtx.GetErrors() {
			return nil, fmt.Errorf("classification failed: %w", err)
		}
	}

	return chainCtx.Get(s.classify.GetOutputParam()).(*model.GenreClassification), nil
}
