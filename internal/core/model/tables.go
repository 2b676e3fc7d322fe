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
// file holds the typed row records for the three corpus tables, the Table
// interface the query engine operates on, and the immutable Snapshot that
// bundles the loaded tables for the lifetime of the process.
//
// Nullable cells are represented as pointer fields: a nil pointer means the
// source cell was empty, a missing-value sentinel, or failed type coercion.
// The movie identifier is the only field that is never null.
package model

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// CharacterRecord is one row of the character metadata table: a single
// character/actor appearance in a movie.
type CharacterRecord struct {
	WikipediaMovieID       int64      // Never null; joins to MovieRecord.
	FreebaseMovieID        *string    // Freebase cross-reference for the movie.
	ReleaseDate            *time.Time // Movie release date as recorded on the character row.
	CharacterName          *string
	ActorDOB               *time.Time
	ActorGender            *string  // Enumerated in the corpus as "M" / "F".
	ActorHeight            *float64 // Meters; realistic domain is [0, 3].
	ActorEthnicity         *string  // Freebase ethnicity reference.
	ActorName              *string
	ActorAgeAtRelease      *float64
	FreebaseCharActorMapID *string
	FreebaseCharacterID    *string
	FreebaseActorID        *string
}

// MovieRecord is one row of the movie metadata table. The languages,
// countries, and genres columns arrive as serialized key-to-display-name
// mappings; they are deserialized once at load time into the normalized
// name slices, and the raw text is retained for substring filtering.
type MovieRecord struct {
	WikipediaMovieID int64 // Never null; unique per row.
	FreebaseMovieID  *string
	MovieName        *string
	ReleaseDate      *time.Time
	BoxOffice        *float64
	Runtime          *float64
	RawLanguages     *string
	RawCountries     *string
	RawGenres        *string
	Languages        []string // Display names, sorted, resolved at load.
	Countries        []string
	Genres           []string
}

// SummaryRecord is one row of the plot summary table. Referential integrity
// against the movie table is not enforced; lookups tolerate absence.
type SummaryRecord struct {
	WikipediaMovieID int64
	Summary          string
}

// Table is the read-only, columnar view of a loaded table that the query
// engine operates on. Each cell accessor returns the value and an ok flag;
// ok=false means the cell is null or the column does not carry that type.
// Implementations never mutate the underlying rows.
type Table interface {
	// Len returns the number of rows.
	Len() int

	// HasColumn reports whether the named column exists in the schema.
	HasColumn(column string) bool

	// StringCell returns the cell rendered as a string. Numeric identifier
	// columns are formatted in base 10 so they can serve as group keys.
	StringCell(column string, row int) (string, bool)

	// NumericCell returns the cell as a float64 for numeric columns.
	NumericCell(column string, row int) (float64, bool)

	// TimeCell returns the cell as a time.Time for date columns.
	TimeCell(column string, row int) (time.Time, bool)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func strCell(v *string) (string, bool) {
	if v == nil {
		return "", false
	}
	return *v, true
}

func numCell(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func timeCell(v *time.Time) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	return *v, true
}

// CharacterTable holds the loaded character metadata rows.
type CharacterTable struct {
	Records []CharacterRecord
}

// Len returns the number of character rows.
func (t *CharacterTable) Len() int { return len(t.Records) }

// HasColumn reports whether the column is part of the character schema.
func (t *CharacterTable) HasColumn(column string) bool {
	for _, c := range CharacterColumns {
		if c == column {
			return true
		}
	}
	return false
}

// StringCell returns the cell as a string, formatting the movie identifier
// in base 10.
func (t *CharacterTable) StringCell(column string, row int) (string, bool) {
	r := &t.Records[row]
	switch column {
	case ColWikipediaMovieID:
		return formatID(r.WikipediaMovieID), true
	case ColFreebaseMovieID:
		return strCell(r.FreebaseMovieID)
	case ColCharacterName:
		return strCell(r.CharacterName)
	case ColActorGender:
		return strCell(r.ActorGender)
	case ColActorEthnicity:
		return strCell(r.ActorEthnicity)
	case ColActorName:
		return strCell(r.ActorName)
	case ColFreebaseCharActorMapID:
		return strCell(r.FreebaseCharActorMapID)
	case ColFreebaseCharacterID:
		return strCell(r.FreebaseCharacterID)
	case ColFreebaseActorID:
		return strCell(r.FreebaseActorID)
	}
	return "", false
}

// NumericCell returns the cell as a float64 for the numeric columns.
func (t *CharacterTable) NumericCell(column string, row int) (float64, bool) {
	r := &t.Records[row]
	switch column {
	case ColWikipediaMovieID:
		return float64(r.WikipediaMovieID), true
	case ColActorHeight:
		return numCell(r.ActorHeight)
	case ColActorAgeAtRelease:
		return numCell(r.ActorAgeAtRelease)
	}
	return 0, false
}

// TimeCell returns the cell as a time.Time for the date columns.
func (t *CharacterTable) TimeCell(column string, row int) (time.Time, bool) {
	r := &t.Records[row]
	switch column {
	case ColReleaseDate:
		return timeCell(r.ReleaseDate)
	case ColActorDOB:
		return timeCell(r.ActorDOB)
	}
	return time.Time{}, false
}

// MovieTable holds the loaded movie metadata rows.
type MovieTable struct {
	Records []MovieRecord
}

// Len returns the number of movie rows.
func (t *MovieTable) Len() int { return len(t.Records) }

// HasColumn reports whether the column is part of the movie schema.
func (t *MovieTable) HasColumn(column string) bool {
	for _, c := range MovieColumns {
		if c == column {
			return true
		}
	}
	return false
}

// StringCell returns the cell as a string. For the languages, countries, and
// genres columns this is the raw serialized mapping text, which is what the
// substring-based genre filter operates on.
func (t *MovieTable) StringCell(column string, row int) (string, bool) {
	r := &t.Records[row]
	switch column {
	case ColWikipediaMovieID:
		return formatID(r.WikipediaMovieID), true
	case ColFreebaseMovieID:
		return strCell(r.FreebaseMovieID)
	case ColMovieName:
		return strCell(r.MovieName)
	case ColLanguages:
		return strCell(r.RawLanguages)
	case ColCountries:
		return strCell(r.RawCountries)
	case ColGenres:
		return strCell(r.RawGenres)
	}
	return "", false
}

// NumericCell returns the cell as a float64 for the numeric columns.
func (t *MovieTable) NumericCell(column string, row int) (float64, bool) {
	r := &t.Records[row]
	switch column {
	case ColWikipediaMovieID:
		return float64(r.WikipediaMovieID), true
	case ColBoxOffice:
		return numCell(r.BoxOffice)
	case ColRuntime:
		return numCell(r.Runtime)
	}
	return 0, false
}

// TimeCell returns the cell as a time.Time for the release date column.
func (t *MovieTable) TimeCell(column string, row int) (time.Time, bool) {
	if column == ColMovieReleaseDate {
		return timeCell(t.Records[row].ReleaseDate)
	}
	return time.Time{}, false
}

// SummaryTable holds the loaded plot summary rows. It may be empty when the
// summary file is absent from the corpus; that is a normal condition.
type SummaryTable struct {
	Records []SummaryRecord
}

// Len returns the number of summary rows.
func (t *SummaryTable) Len() int { return len(t.Records) }

// HasColumn reports whether the column is part of the summary schema.
func (t *SummaryTable) HasColumn(column string) bool {
	return column == ColWikipediaMovieID || column == ColSummary
}

// StringCell returns the cell as a string.
func (t *SummaryTable) StringCell(column string, row int) (string, bool) {
	r := &t.Records[row]
	switch column {
	case ColWikipediaMovieID:
		return formatID(r.WikipediaMovieID), true
	case ColSummary:
		return r.Summary, true
	}
	return "", false
}

// NumericCell returns the movie identifier as a float64.
func (t *SummaryTable) NumericCell(column string, row int) (float64, bool) {
	if column == ColWikipediaMovieID {
		return float64(t.Records[row].WikipediaMovieID), true
	}
	return 0, false
}

// TimeCell always reports no value; the summary table has no date columns.
func (t *SummaryTable) TimeCell(_ string, _ int) (time.Time, bool) {
	return time.Time{}, false
}

// Snapshot bundles the three loaded tables. It is constructed once during
// initialization and treated as immutable for the lifetime of the process:
// the query engine never writes to it, so concurrent readers are safe.
type Snapshot struct {
	ID         uuid.UUID // Deterministic identity derived from the corpus source URL.
	Characters *CharacterTable
	Movies     *MovieTable
	Summaries  *SummaryTable

	movieIndex   map[int64]int
	summaryIndex map[int64]int
}

// NewSnapshot assembles a snapshot from the loaded tables and builds the
// by-identifier lookup indexes. The source string (normally the corpus URL)
// seeds the snapshot's deterministic UUID so repeated loads of the same
// corpus are identifiable in logs and API responses.
func NewSnapshot(source string, characters *CharacterTable, movies *MovieTable, summaries *SummaryTable) *Snapshot {
	s := &Snapshot{
		ID:           uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)),
		Characters:   characters,
		Movies:       movies,
		Summaries:    summaries,
		movieIndex:   make(map[int64]int, movies.Len()),
		summaryIndex: make(map[int64]int, summaries.Len()),
	}
	for i := range movies.Records {
		s.movieIndex[movies.Records[i].WikipediaMovieID] = i
	}
	for i := range summaries.Records {
		s.summaryIndex[summaries.Records[i].WikipediaMovieID] = i
	}
	return s
}

// MovieByID returns the movie record for the given identifier.
func (s *Snapshot) MovieByID(id int64) (*MovieRecord, bool) {
	i, ok := s.movieIndex[id]
	if !ok {
		return nil, false
	}
	return &s.Movies.Records[i], true
}

// SummaryByID returns the plot summary text for the given identifier.
func (s *Snapshot) SummaryByID(id int64) (string, bool) {
	i, ok := s.summaryIndex[id]
	if !ok {
		return "", false
	}
	return s.Summaries.Records[i].Summary, true
}
