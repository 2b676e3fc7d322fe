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

// Package services_test contains the test suite for the services package.
// This file tests the AnalyzerService: the six query operations over the
// corpus snapshot, their argument validation, and their determinism
// guarantees.
package services_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaycherian/go-movie-corpus/internal/core/model"
	"github.com/jaycherian/go-movie-corpus/internal/core/services"
	"github.com/jaycherian/go-movie-corpus/internal/corpus"
	test "github.com/jaycherian/go-movie-corpus/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFixtureAnalyzer loads the standard fixture corpus through the real
// loader and wraps it in an analyzer, so these tests exercise the same path
// production takes from flat files to query results: write the fixture TSVs
// to a temporary directory, load them into typed tables, and freeze the
// tables into a snapshot.
//
// Inputs:
//   - t: The testing framework's test handler.
//
// Outputs:
//   - A ready-to-query AnalyzerService over the fixture corpus.
func newFixtureAnalyzer(t *testing.T) *services.AnalyzerService {
	t.Helper()

	dir := t.TempDir()
	paths := corpus.TablePaths{
		Characters: filepath.Join(dir, "character.metadata.tsv"),
		Movies:     filepath.Join(dir, "movie.metadata.tsv"),
		Summaries:  filepath.Join(dir, "plot_summaries.txt"),
	}
	require.NoError(t, os.WriteFile(paths.Characters, []byte(test.GetTestCharacterTSV()), 0o644))
	require.NoError(t, os.WriteFile(paths.Movies, []byte(test.GetTestMovieTSV()), 0o644))
	require.NoError(t, os.WriteFile(paths.Summaries, []byte(test.GetTestSummaryTSV()), 0o644))

	characters, movies, summaries, err := corpus.Load(paths)
	require.NoError(t, err)

	return services.NewAnalyzerService(
		model.NewSnapshot("fixture://corpus", characters, movies, summaries))
}

// TestTopEntitiesCountsGroups verifies the frequency query: every fixture
// character row belongs to movie 54166, so grouping the character table by
// the movie identifier must yield exactly one group of fifteen rows, and
// asking for more groups than exist must not pad the result.
func TestTopEntitiesCountsGroups(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	counts, err := analyzer.TopEntities(analyzer.Snapshot.Characters, model.ColWikipediaMovieID, 2)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, "54166", counts[0].Key)
	assert.Equal(t, 15, counts[0].Count)
}

// TestTopEntitiesTieOrder verifies deterministic tie-breaking. The three
// fixture movies each appear once, so all counts are equal and the order is
// decided entirely by the tie-break rule: numeric keys compare as numbers,
// which puts 54166 before 975900 before 3217262. A lexicographic comparison
// would instead put "3217262" first, so this test catches that regression.
func TestTopEntitiesTieOrder(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	counts, err := analyzer.TopEntities(analyzer.Snapshot.Movies, model.ColWikipediaMovieID, 10)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, "54166", counts[0].Key)
	assert.Equal(t, "975900", counts[1].Key)
	assert.Equal(t, "3217262", counts[2].Key)

	// Same snapshot, same arguments: the second call must return an
	// identical slice, element for element.
	again, err := analyzer.TopEntities(analyzer.Snapshot.Movies, model.ColWikipediaMovieID, 10)
	require.NoError(t, err)
	assert.Equal(t, counts, again)
}

// TestTopEntitiesValidation verifies that a non-positive n and an unknown
// column are both rejected with the invalid-argument sentinel rather than
// returning an empty result.
func TestTopEntitiesValidation(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	_, err := analyzer.TopEntities(analyzer.Snapshot.Characters, model.ColWikipediaMovieID, 0)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)

	_, err = analyzer.TopEntities(analyzer.Snapshot.Characters, "no_such_column", 5)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

// TestGroupSizeHistogram verifies the group-size histogram: one movie with
// fifteen character rows produces a single bucket reading "one group of
// size fifteen".
func TestGroupSizeHistogram(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	buckets, err := analyzer.GroupSizeHistogram(analyzer.Snapshot.Characters, model.ColWikipediaMovieID)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, 15, buckets[0].Size)
	assert.Equal(t, 1, buckets[0].Groups)
}

// TestBinnedDistribution verifies the height distribution. The fixture has
// five parseable heights (1.816, 1.7, 1.87, 1.85, 1.77), four of them on
// male rows and one on a female row; the malformed "tall" cell and the NA
// cells must be dropped silently. With any row matched, every bin appears
// in the output, zeros included.
func TestBinnedDistribution(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	params := services.DistributionParams{
		Table:        analyzer.Snapshot.Characters,
		ValueColumn:  model.ColActorHeight,
		FilterColumn: model.ColActorGender,
		FilterValue:  "M",
		LowerBound:   1.5,
		UpperBound:   2.0,
		NumBins:      19,
	}

	bins, err := analyzer.BinnedDistribution(params)
	require.NoError(t, err)
	require.Len(t, bins, 19)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 4, total, "four male rows carry a parseable height")

	// All fixture heights sit at 1.7 or above, so the bins covering
	// [1.5, 1.7) stay empty.
	for i := 0; i < 7; i++ {
		assert.Zero(t, bins[i].Count)
	}

	// Midpoints ascend by the bin width across the requested range.
	width := (params.UpperBound - params.LowerBound) / float64(params.NumBins)
	assert.InDelta(t, params.LowerBound+width/2, bins[0].Midpoint, 1e-9)
	assert.InDelta(t, params.UpperBound-width/2, bins[18].Midpoint, 1e-9)

	// Without the gender filter the fifth height (the one female row)
	// joins the tally.
	params.FilterValue = nil
	bins, err = analyzer.BinnedDistribution(params)
	require.NoError(t, err)
	total = 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 5, total)
}

// TestBinnedDistributionEmptyRange verifies that a range matching no rows
// produces an empty result, not a slice of zero-count bins: the fixture has
// no heights below one meter.
func TestBinnedDistributionEmptyRange(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	bins, err := analyzer.BinnedDistribution(services.DistributionParams{
		Table:       analyzer.Snapshot.Characters,
		ValueColumn: model.ColActorHeight,
		LowerBound:  0.0,
		UpperBound:  1.0,
		NumBins:     5,
	})
	require.NoError(t, err)
	assert.Empty(t, bins)
}

// TestBinnedDistributionValidation verifies the preconditions on the
// distribution arguments: inverted bounds, bounds outside the plausible
// height range, and a non-string filter value must each fail fast with the
// matching sentinel before any data is touched.
func TestBinnedDistributionValidation(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)
	table := analyzer.Snapshot.Characters

	cases := []struct {
		name   string
		params services.DistributionParams
		want   error
	}{
		{
			name: "inverted bounds",
			params: services.DistributionParams{
				Table: table, ValueColumn: model.ColActorHeight,
				LowerBound: 2.0, UpperBound: 1.0,
			},
			want: services.ErrInvalidArgument,
		},
		{
			name: "lower bound below floor",
			params: services.DistributionParams{
				Table: table, ValueColumn: model.ColActorHeight,
				LowerBound: -1.0, UpperBound: 2.0,
			},
			want: services.ErrInvalidArgument,
		},
		{
			name: "upper bound above ceiling",
			params: services.DistributionParams{
				Table: table, ValueColumn: model.ColActorHeight,
				LowerBound: 1.0, UpperBound: 4.0,
			},
			want: services.ErrInvalidArgument,
		},
		{
			name: "non-string filter value",
			params: services.DistributionParams{
				Table: table, ValueColumn: model.ColActorHeight,
				FilterColumn: model.ColActorGender, FilterValue: 123,
				LowerBound: 1.0, UpperBound: 2.0,
			},
			want: services.ErrInvalidType,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := analyzer.BinnedDistribution(tc.params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

// TestTimeSeriesCounts verifies release counting per year, with and without
// the genre filter. The filter is a case-insensitive substring match over
// the raw genre text, so "science" must match the movie tagged
// "Science Fiction", and a genre absent from the corpus must yield an empty
// result rather than an error.
func TestTimeSeriesCounts(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)
	movies := analyzer.Snapshot.Movies

	counts, err := analyzer.TimeSeriesCounts(movies, model.ColMovieReleaseDate, "", model.ColGenres)
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, model.YearCount{Year: 1981, Count: 1}, counts[0])
	assert.Equal(t, model.YearCount{Year: 1999, Count: 1}, counts[1])
	assert.Equal(t, model.YearCount{Year: 2001, Count: 1}, counts[2])

	counts, err = analyzer.TimeSeriesCounts(movies, model.ColMovieReleaseDate, "science", model.ColGenres)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, model.YearCount{Year: 2001, Count: 1}, counts[0])

	counts, err = analyzer.TimeSeriesCounts(movies, model.ColMovieReleaseDate, "Bollywood", model.ColGenres)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

// TestBirthCountsByYear verifies the year unit over the fixture: seven
// character rows carry a parseable date of birth (including the year-only
// "1946" cell), each in a distinct year, ascending.
func TestBirthCountsByYear(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	counts, err := analyzer.BirthCounts(analyzer.Snapshot.Characters, model.ColActorDOB, "year")
	require.NoError(t, err)
	require.Len(t, counts, 7)
	assert.Equal(t, model.BirthCount{Label: "1922", Count: 1}, counts[0])
	assert.Equal(t, model.BirthCount{Label: "1951", Count: 1}, counts[6])
}

// TestBirthCountsByMonth verifies the month unit's labeling and ordering on
// a hand-built table: two January births and one May birth must come back as
// exactly two entries, January first, with no zero-count months in between.
func TestBirthCountsByMonth(t *testing.T) {
	dob := func(value string) *time.Time {
		d, err := time.Parse("2006-01-02", value)
		require.NoError(t, err)
		return &d
	}
	table := &model.CharacterTable{Records: []model.CharacterRecord{
		{WikipediaMovieID: 1, ActorDOB: dob("1942-01-13")},
		{WikipediaMovieID: 1, ActorDOB: dob("1951-01-30")},
		{WikipediaMovieID: 1, ActorDOB: dob("1922-05-31")},
		{WikipediaMovieID: 1}, // No date of birth; dropped, not counted.
	}}

	analyzer := services.NewAnalyzerService(model.NewSnapshot("fixture://months", table, &model.MovieTable{}, &model.SummaryTable{}))

	counts, err := analyzer.BirthCounts(table, model.ColActorDOB, "month")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, model.BirthCount{Label: "January", Count: 2}, counts[0])
	assert.Equal(t, model.BirthCount{Label: "May", Count: 1}, counts[1])
}

// TestBirthCountsUnknownUnit verifies that an unrecognized unit falls back
// to the year behavior instead of erroring, matching what existing callers
// of the stats endpoint rely on.
func TestBirthCountsUnknownUnit(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	byYear, err := analyzer.BirthCounts(analyzer.Snapshot.Characters, model.ColActorDOB, "year")
	require.NoError(t, err)
	byDecade, err := analyzer.BirthCounts(analyzer.Snapshot.Characters, model.ColActorDOB, "decade")
	require.NoError(t, err)
	assert.Equal(t, byYear, byDecade)
}

// TestMovieDetailsLookup verifies that the detail lookup is total over the
// identifier space: a movie with a summary returns all real fields, a movie
// without a summary keeps its real title and genres but gets the
// unavailable-summary text, and an unknown identifier returns the
// placeholder record instead of an error.
func TestMovieDetailsLookup(t *testing.T) {
	analyzer := newFixtureAnalyzer(t)

	details := analyzer.MovieDetails(54166)
	assert.Equal(t, "Raiders of the Lost Ark", details.Title)
	assert.Contains(t, details.Summary, "Ark of the Covenant")
	assert.Equal(t, []string{"Action", "Adventure"}, details.Genres)

	// Present in the movie table, absent from the summary table, and
	// carrying malformed genre text that resolved to no names.
	details = analyzer.MovieDetails(3217262)
	assert.Equal(t, "The Hunting of the Snark", details.Title)
	assert.Equal(t, model.SummaryUnavailable, details.Summary)
	assert.Empty(t, details.Genres)

	details = analyzer.MovieDetails(42)
	assert.Equal(t, model.UnknownTitle, details.Title)
	assert.Equal(t, model.SummaryUnavailable, details.Summary)
	assert.Empty(t, details.Genres)
}
