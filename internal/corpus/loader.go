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

// Package corpus manages the on-disk corpus cache. This file implements the
// typed table loader: it parses the extracted tab-separated, header-less
// flat files into the typed tables defined in the model package.
//
// Coercion policy: cell-level failures are never fatal. A date or number
// that does not parse, or one of the missing-value sentinels ("", "NA",
// "N/A"), becomes a null field. Only structural problems are fatal: a row
// with the wrong column count is a *SchemaError, and any other unrecoverable
// read problem is a *LoadError. The one exception to leniency is the movie
// identifier, which the schema guarantees non-null: a row whose identifier
// does not parse is dropped with a diagnostic, since it can join to nothing.
package corpus

import (
	"bufio"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/go-movie-corpus/internal/core/model"
)

// TablePaths names the extracted flat files for one load.
type TablePaths struct {
	Characters string
	Movies     string
	Summaries  string
}

// missingSentinels are the cell values accepted as "unknown" on input.
var missingSentinels = map[string]bool{
	"":    true,
	"NA":  true,
	"N/A": true,
}

// dateLayouts are the date shapes that occur in the corpus, most specific
// first. Release dates in particular are frequently year-only.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// maxLineBytes bounds a single source line. Plot summaries run long but stay
// well under a megabyte.
const maxLineBytes = 1 << 20

// Load parses the three flat files into typed tables. The character and
// movie files are required; an absent summary file yields an empty summary
// table because "no summaries available" is a normal condition downstream.
func Load(paths TablePaths) (*model.CharacterTable, *model.MovieTable, *model.SummaryTable, error) {
	characters := &model.CharacterTable{}
	if err := readRows(paths.Characters, len(model.CharacterColumns), func(fields []string, line int) {
		if r, ok := parseCharacterRow(fields, paths.Characters, line); ok {
			characters.Records = append(characters.Records, r)
		}
	}); err != nil {
		return nil, nil, nil, err
	}
	slog.Info("loaded character metadata", "rows", characters.Len())

	movies := &model.MovieTable{}
	if err := readRows(paths.Movies, len(model.MovieColumns), func(fields []string, line int) {
		if r, ok := parseMovieRow(fields, paths.Movies, line); ok {
			movies.Records = append(movies.Records, r)
		}
	}); err != nil {
		return nil, nil, nil, err
	}
	slog.Info("loaded movie metadata", "rows", movies.Len())

	summaries := &model.SummaryTable{}
	if !fileExists(paths.Summaries) {
		slog.Warn("plot summary file not found, summaries will be unavailable",
			"path", paths.Summaries)
		return characters, movies, summaries, nil
	}
	if err := readRows(paths.Summaries, len(model.SummaryColumns), func(fields []string, line int) {
		id, ok := parseMovieID(fields[0], paths.Summaries, line)
		if !ok {
			return
		}
		summaries.Records = append(summaries.Records, model.SummaryRecord{
			WikipediaMovieID: id,
			Summary:          fields[1],
		})
	}); err != nil {
		return nil, nil, nil, err
	}
	slog.Info("loaded plot summaries", "rows", summaries.Len())

	return characters, movies, summaries, nil
}

// readRows scans a tab-separated, header-less file and hands each split row
// to the visitor. Blank lines are skipped; a row with the wrong number of
// fields aborts the load with a *SchemaError.
func readRows(path string, wantColumns int, visit func(fields []string, line int)) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{File: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != wantColumns {
			return &SchemaError{File: path, Line: line, Want: wantColumns, Got: len(fields)}
		}
		visit(fields, line)
	}
	if err := scanner.Err(); err != nil {
		return &LoadError{File: path, Err: err}
	}
	return nil
}

func parseCharacterRow(fields []string, file string, line int) (model.CharacterRecord, bool) {
	id, ok := parseMovieID(fields[0], file, line)
	if !ok {
		return model.CharacterRecord{}, false
	}
	return model.CharacterRecord{
		WikipediaMovieID:       id,
		FreebaseMovieID:        coerceString(fields[1]),
		ReleaseDate:            coerceDate(fields[2]),
		CharacterName:          coerceString(fields[3]),
		ActorDOB:               coerceDate(fields[4]),
		ActorGender:            coerceString(fields[5]),
		ActorHeight:            coerceFloat(fields[6]),
		ActorEthnicity:         coerceString(fields[7]),
		ActorName:              coerceString(fields[8]),
		ActorAgeAtRelease:      coerceFloat(fields[9]),
		FreebaseCharActorMapID: coerceString(fields[10]),
		FreebaseCharacterID:    coerceString(fields[11]),
		FreebaseActorID:        coerceString(fields[12]),
	}, true
}

func parseMovieRow(fields []string, file string, line int) (model.MovieRecord, bool) {
	id, ok := parseMovieID(fields[0], file, line)
	if !ok {
		return model.MovieRecord{}, false
	}
	r := model.MovieRecord{
		WikipediaMovieID: id,
		FreebaseMovieID:  coerceString(fields[1]),
		MovieName:        coerceString(fields[2]),
		ReleaseDate:      coerceDate(fields[3]),
		BoxOffice:        coerceFloat(fields[4]),
		Runtime:          coerceFloat(fields[5]),
		RawLanguages:     coerceString(fields[6]),
		RawCountries:     coerceString(fields[7]),
		RawGenres:        coerceString(fields[8]),
	}
	// Resolve the serialized mappings once here so the query layer only ever
	// sees normalized name lists.
	r.Languages = model.ResolveNames(model.ColLanguages, r.RawLanguages)
	r.Countries = model.ResolveNames(model.ColCountries, r.RawCountries)
	r.Genres = model.ResolveNames(model.ColGenres, r.RawGenres)
	return r, true
}

// parseMovieID parses the non-nullable movie identifier. Rows with an
// unusable identifier are dropped rather than carried as nulls.
func parseMovieID(cell string, file string, line int) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(cell), 10, 64)
	if err != nil {
		slog.Warn("dropping row with unparsable movie identifier",
			"file", file,
			"line", line,
			"value", cell)
		return 0, false
	}
	return id, true
}

func coerceString(cell string) *string {
	if missingSentinels[cell] {
		return nil
	}
	return &cell
}

func coerceFloat(cell string) *float64 {
	if missingSentinels[cell] {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return nil
	}
	return &v
}

func coerceDate(cell string) *time.Time {
	if missingSentinels[cell] {
		return nil
	}
	trimmed := strings.TrimSpace(cell)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}
