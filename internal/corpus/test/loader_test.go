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

// This file tests the typed table loader: fixed schemas, lenient cell
// coercion, and the structural failure modes.
package corpus_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jaycherian/go-movie-corpus/internal/corpus"
	test "github.com/jaycherian/go-movie-corpus/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixtureTables writes the standard fixture TSVs into a temp directory
// and returns the table paths for a load.
func writeFixtureTables(t *testing.T) corpus.TablePaths {
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
	return paths
}

// TestLoadCoercesCellsLeniently verifies the coercion policy end to end:
// sentinels and unparsable values become nulls, valid dates in all three
// layouts parse, and no cell-level problem fails the load.
func TestLoadCoercesCellsLeniently(t *testing.T) {
	paths := writeFixtureTables(t)

	characters, movies, summaries, err := corpus.Load(paths)
	require.NoError(t, err)

	assert.Equal(t, 15, characters.Len())
	assert.Equal(t, 3, movies.Len())
	assert.Equal(t, 2, summaries.Len())

	// Row 0: fully populated. Harrison Ford's height and DOB both parse.
	ford := characters.Records[0]
	require.NotNil(t, ford.ActorHeight)
	assert.Equal(t, 1.816, *ford.ActorHeight)
	require.NotNil(t, ford.ActorDOB)
	assert.Equal(t, 1942, ford.ActorDOB.Year())
	assert.Equal(t, time.January, ford.ActorDOB.Month())

	// Row 6: "not-a-date" coerces to a null DOB, never an error.
	assert.Nil(t, characters.Records[6].ActorDOB)
	// Row 7: "tall" coerces to a null height.
	assert.Nil(t, characters.Records[7].ActorHeight)
	// Row 8: year-only date "1946" parses; "N/A" sentinel height is null.
	require.NotNil(t, characters.Records[8].ActorDOB)
	assert.Equal(t, 1946, characters.Records[8].ActorDOB.Year())
	assert.Nil(t, characters.Records[8].ActorHeight)

	// Movie genres resolve at load time into sorted display names.
	raiders := movies.Records[0]
	assert.Equal(t, []string{"Action", "Adventure"}, raiders.Genres)
	// Malformed genre text degrades to an empty list, not an error.
	snark := movies.Records[2]
	assert.Empty(t, snark.Genres)
	require.NotNil(t, snark.ReleaseDate)
	assert.Equal(t, 1999, snark.ReleaseDate.Year())
	assert.Nil(t, snark.BoxOffice)
}

// TestLoadSchemaMismatch verifies that a row with the wrong column count
// fails the load with a *SchemaError carrying the file and line.
func TestLoadSchemaMismatch(t *testing.T) {
	paths := writeFixtureTables(t)
	// Append a truncated row to the movie file.
	f, err := os.OpenFile(paths.Movies, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("12345\tonly-two-columns\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, _, _, err = corpus.Load(paths)
	require.Error(t, err)

	var schemaErr *corpus.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, paths.Movies, schemaErr.File)
	assert.Equal(t, 4, schemaErr.Line)
	assert.Equal(t, 9, schemaErr.Want)
	assert.Equal(t, 2, schemaErr.Got)
}

// TestLoadMissingSummaryFile verifies that an absent summary file yields an
// empty summary table, not an error: "no summaries available" is a normal
// condition downstream.
func TestLoadMissingSummaryFile(t *testing.T) {
	paths := writeFixtureTables(t)
	require.NoError(t, os.Remove(paths.Summaries))

	characters, movies, summaries, err := corpus.Load(paths)
	require.NoError(t, err)
	assert.Equal(t, 15, characters.Len())
	assert.Equal(t, 3, movies.Len())
	assert.Equal(t, 0, summaries.Len())
}

// TestLoadMissingRequiredFile verifies that an absent character file is
// fatal, surfaced as a *LoadError naming the path.
func TestLoadMissingRequiredFile(t *testing.T) {
	paths := writeFixtureTables(t)
	require.NoError(t, os.Remove(paths.Characters))

	_, _, _, err := corpus.Load(paths)
	require.Error(t, err)

	var loadErr *corpus.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, paths.Characters, loadErr.File)
}

// TestLoadDropsUnparsableIdentifiers verifies that a row whose movie
// identifier does not parse is dropped rather than loaded with a null key.
func TestLoadDropsUnparsableIdentifiers(t *testing.T) {
	dir := t.TempDir()
	paths := corpus.TablePaths{
		Characters: filepath.Join(dir, "character.metadata.tsv"),
		Movies:     filepath.Join(dir, "movie.metadata.tsv"),
		Summaries:  filepath.Join(dir, "plot_summaries.txt"),
	}
	require.NoError(t, os.WriteFile(paths.Characters, []byte(test.GetTestCharacterTSV()), 0o644))
	movieRows := "not-an-id\t/m/x\tBroken Row\t2000\tNA\tNA\tNA\tNA\tNA\n" + test.GetTestMovieTSV()
	require.NoError(t, os.WriteFile(paths.Movies, []byte(movieRows), 0o644))
	require.NoError(t, os.WriteFile(paths.Summaries, []byte(test.GetTestSummaryTSV()), 0o644))

	_, movies, _, err := corpus.Load(paths)
	require.NoError(t, err)
	assert.Equal(t, 3, movies.Len())
	for _, r := range movies.Records {
		assert.NotEqual(t, "Broken Row", derefOr(r.MovieName, ""))
	}
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
