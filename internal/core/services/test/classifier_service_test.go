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

// This file tests the ClassifierService with a scripted chat model in place
// of a live backend, so the prompt construction, response parsing, and error
// paths are all exercised without network access.
package services_test

import (
	"context"
	"testing"
	"text/template"

	"github.com/jaycherian/go-movie-corpus/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedChatModel is a ChatModel stub that records the prompt it receives
// and replies with a fixed response, standing in for a live Gemini or
// OpenAI-compatible backend.
type scriptedChatModel struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (m *scriptedChatModel) Generate(_ context.Context, prompt string) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	return m.response, m.err
}

// classifierPrompt mirrors the shape of the genre prompt in the TOML
// configuration: the movie fields and the few-shot example are injected by
// name.
const classifierPrompt = `Classify the movie "{{.TITLE}}" from its plot summary.
Example output: {{.EXAMPLE_JSON}}
Summary: {{.SUMMARY}}`

// newClassifier builds a ClassifierService over the fixture snapshot and the
// given scripted model.
func newClassifier(t *testing.T, chatModel *scriptedChatModel) *services.ClassifierService {
	t.Helper()
	tmpl, err := template.New("genre").Parse(classifierPrompt)
	require.NoError(t, err)
	return services.NewClassifierService(newFixtureAnalyzer(t), chatModel, tmpl)
}

// TestClassifySuccess verifies the happy path: the prompt carries the movie's
// real title and summary, and the model's fenced JSON response (the fences a
// chatty model tends to wrap around JSON output) is stripped and parsed into
// a classification.
func TestClassifySuccess(t *testing.T) {
	chatModel := &scriptedChatModel{
		response: "```json\n" +
			`{"title": "Raiders of the Lost Ark", "genres": ["Action", "Adventure"], "rationale": "Globetrotting artifact hunt with chases and fights."}` +
			"\n```",
	}
	classifier := newClassifier(t, chatModel)

	classification, err := classifier.Classify(context.Background(), 54166)
	require.NoError(t, err)
	assert.Equal(t, 1, chatModel.calls)
	assert.Contains(t, chatModel.lastPrompt, "Raiders of the Lost Ark")
	assert.Contains(t, chatModel.lastPrompt, "Ark of the Covenant")
	assert.Equal(t, []string{"Action", "Adventure"}, classification.Genres)
	assert.NotEmpty(t, classification.Rationale)
}

// TestClassifyRejectsMalformedResponse verifies that a response the JSON
// decoder rejects fails the classification instead of being repaired or
// partially parsed.
func TestClassifyRejectsMalformedResponse(t *testing.T) {
	chatModel := &scriptedChatModel{response: "The movie is clearly an action film."}
	classifier := newClassifier(t, chatModel)

	_, err := classifier.Classify(context.Background(), 54166)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

// TestClassifyRequiresSummary verifies that a movie with no plot summary is
// rejected before any model call is made: there is nothing to classify from.
func TestClassifyRequiresSummary(t *testing.T) {
	chatModel := &scriptedChatModel{}
	classifier := newClassifier(t, chatModel)

	// Movie 3217262 exists in the metadata but has no summary row.
	_, err := classifier.Classify(context.Background(), 3217262)
	require.Error(t, err)
	assert.Zero(t, chatModel.calls, "the chat model must not be called without a summary")
}
