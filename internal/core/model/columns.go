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

// Package model defines the core data structures for the application. This
// file centralizes the canonical column names of the corpus tables. The
// source files are header-less, so these names are the single source of
// truth shared by the loader, the query engine, and the HTTP API. Column
// ORDER in the slices below is authoritative: it mirrors the physical column
// order of the TSV files and must not be rearranged.
package model

// Character metadata columns (character.metadata.tsv, 13 columns).
const (
	ColWikipediaMovieID       = "wikipedia_movie_id"
	ColFreebaseMovieID        = "freebase_movie_id"
	ColReleaseDate            = "release_date"
	ColCharacterName          = "character_name"
	ColActorDOB               = "actor_dob"
	ColActorGender            = "actor_gender"
	ColActorHeight            = "actor_height"
	ColActorEthnicity         = "actor_ethnicity"
	ColActorName              = "actor_name"
	ColActorAgeAtRelease      = "actor_age_at_release"
	ColFreebaseCharActorMapID = "freebase_char_actor_map_id"
	ColFreebaseCharacterID    = "freebase_character_id"
	ColFreebaseActorID        = "freebase_actor_id"
)

// Movie metadata columns (movie.metadata.tsv, 9 columns).
const (
	ColMovieName        = "movie_name"
	ColMovieReleaseDate = "movie_release_date"
	ColBoxOffice        = "box_office"
	ColRuntime          = "runtime"
	ColLanguages        = "languages"
	ColCountries        = "countries"
	ColGenres           = "genres"
)

// Plot summary columns (plot_summaries.txt, 2 columns).
const (
	ColSummary = "summary"
)

// CharacterColumns is the fixed schema of the character metadata file.
var CharacterColumns = []string{
	ColWikipediaMovieID, ColFreebaseMovieID, ColReleaseDate, ColCharacterName,
	ColActorDOB, ColActorGender, ColActorHeight, ColActorEthnicity,
	ColActorName, ColActorAgeAtRelease, ColFreebaseCharActorMapID,
	ColFreebaseCharacterID, ColFreebaseActorID,
}

// MovieColumns is the fixed schema of the movie metadata file.
var MovieColumns = []string{
	ColWikipediaMovieID, ColFreebaseMovieID, ColMovieName, ColMovieReleaseDate,
	ColBoxOffice, ColRuntime, ColLanguages, ColCountries, ColGenres,
}

// SummaryColumns is the fixed schema of the plot summary file.
var SummaryColumns = []string{ColWikipediaMovieID, ColSummary}
