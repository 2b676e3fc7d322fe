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

// Package model defines the data structures for the application. This file
// provides factory functions for hardcoded example instances used in
// "few-shot" prompting: embedding a concrete example of the desired JSON
// structure in the classification prompt keeps the model's output
// consistent and parsable.
package model

// GenreClassification is the JSON shape the classification prompt asks the
// language model to produce for a plot summary.
type GenreClassification struct {
	Title     string   `json:"title"`
	Genres    []string `json:"genres"`
	Rationale string   `json:"rationale"`
}

// GetExampleClassification returns the few-shot example embedded in the
// genre classification prompt.
func GetExampleClassification() *GenreClassification {
	return &GenreClassification{
		Title:  "Serenity",
		Genres: []string{"Science Fiction", "Action", "Adventure"},
		Rationale: "The summary follows a renegade spaceship crew evading an " +
			"interstellar authority, with extended chase and combat sequences.",
	}
}
