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

// This file defines the command that asks a chat model to classify a movie
// into genres from its title and plot summary.
//
// Logic Flow:
//  1. It receives a `model.MovieDetails` value (title, summary, and the
//     corpus-recorded genres) from the context.
//  2. It constructs the classification prompt from a Go template, populated
//     with the movie fields and a complete, well-formed JSON example. The
//     example (few-shot prompting) significantly improves the reliability
//     and structure of the model's output.
//  3. It sends the prompt to the configured chat model.
//  4. It parses the response as strict JSON. Anything the JSON decoder
//     rejects fails the command; model output is never evaluated or
//     interpreted any other way.
//  5. It places the parsed `model.GenreClassification` into the context.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/jaycherian/go-movie-corpus/internal/cloud"
	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/core/model"
	"go.opentelemetry.io/otel/metric"
)

// GenreClassify is a command that uses a chat model to produce a genre
// classification for a single movie.
type GenreClassify struct {
	cor.BaseCommand
	chatModel    cloud.ChatModel    // The rate-limited chat model client.
	template     *template.Template // The Go template for building the prompt.
	retryCounter metric.Int64Counter
}

// NewGenreClassify is the constructor for the GenreClassify command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - chatModel: The rate-limited chat model wrapper.
//   - template: A parsed Go template for the prompt.
//
// Outputs:
//   - *GenreClassify: A pointer to the newly instantiated command, including an initialized retry counter.
func NewGenreClassify(name string, chatModel cloud.ChatModel, template *template.Template) *GenreClassify {
	out := &GenreClassify{
		BaseCommand: *cor.NewBaseCommand(name),
		chatModel:   chatModel,
		template:    template,
	}
	out.retryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.chat.retry", out.GetName()))
	return out
}

// GenerateParams creates the map of dynamic data to be injected into the
// prompt template.
func (t *GenreClassify) GenerateParams(details *model.MovieDetails) map[string]interface{} {
	params := make(map[string]interface{})
	params["TITLE"] = details.Title
	params["SUMMARY"] = details.Summary

	exampleClassification, _ := json.Marshal(model.GetExampleClassification())
	params["EXAMPLE_JSON"] = string(exampleClassification)
	return params
}

// Execute contains the core logic for prompting the chat model and parsing
// its response.
func (t *GenreClassify) Execute(context cor.Context) {
	details := context.Get(t.GetInputParam()).(*model.MovieDetails)

	// Use a buffer to execute the Go template, substituting the dynamic params.
	var buffer bytes.Buffer
	err := t.template.Execute(&buffer, t.GenerateParams(details))
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	out, err := cloud.GenerateTextResponse(context.GetContext(), t.retryCounter, 0, t.chatModel, buffer.String())
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("chat request failed: %w", err))
		return
	}

	// Strict JSON only. A response the decoder rejects is a failed
	// classification, not something to repair or interpret.
	classification := &model.GenreClassification{}
	if err := json.Unmarshal([]byte(out), classification); err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("model response is not valid JSON: %w", err))
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), classification)
}
