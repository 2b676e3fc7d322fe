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

// Package model_test contains the test suite for the model package: the
// serialized name-mapping parser and the snapshot's identity and lookup
// behavior.
package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jaycherian/go-movie-corpus/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	zassert "github.com/zeebo/assert"
)

// TestParseNameMap verifies the strict mapping parser: a well-formed JSON
// object of strings parses into a map, and anything else is an error rather
// than a partial result.
func TestParseNameMap(t *testing.T) {
	m, err := model.ParseNameMap(`{"/m/02kdv5l": "Action", "/m/03btsm8": "Adventure"}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"/m/02kdv5l": "Action",
		"/m/03btsm8": "Adventure",
	}, m)

	_, err = model.ParseNameMap("{not valid json")
	assert.Error(t, err)

	// A JSON array is valid JSON but not a mapping; still an error.
	_, err = model.ParseNameMap(`["Action", "Adventure"]`)
	assert.Error(t, err)
}

// TestResolveNames verifies the lenient wrapper over the strict parser: null
// and malformed cells both resolve to an empty slice, and well-formed cells
// resolve to display names in sorted order so repeated loads are identical.
func TestResolveNames(t *testing.T) {
	assert.Empty(t, model.ResolveNames(model.ColGenres, nil))

	malformed := "{not valid json"
	assert.Empty(t, model.ResolveNames(model.ColGenres, &malformed))

	raw := `{"/m/06n90": "Science Fiction", "/m/01jfsb": "Thriller", "/m/02kdv5l": "Action"}`
	names := model.ResolveNames(model.ColGenres, &raw)
	assert.Equal(t, []string{"Action", "Science Fiction", "Thriller"}, names)
}

// TestSnapshotIdentity verifies that the snapshot UUID is a pure function of
// the corpus source: two snapshots of the same source share an identity, and
// a different source produces a different one.
func TestSnapshotIdentity(t *testing.T) {
	empty := func() (*model.CharacterTable, *model.MovieTable, *model.SummaryTable) {
		return &model.CharacterTable{}, &model.MovieTable{}, &model.SummaryTable{}
	}

	c1, m1, s1 := empty()
	first := model.NewSnapshot("http://example.com/corpus.tar.gz", c1, m1, s1)
	c2, m2, s2 := empty()
	second := model.NewSnapshot("http://example.com/corpus.tar.gz", c2, m2, s2)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.ID, uuid.NewSHA1(uuid.NameSpaceURL, []byte("http://example.com/corpus.tar.gz")))

	c3, m3, s3 := empty()
	other := model.NewSnapshot("http://example.com/other.tar.gz", c3, m3, s3)
	assert.NotEqual(t, first.ID, other.ID)
}

// TestSnapshotLookups verifies the by-identifier indexes, including a
// summary row with no matching movie row: the corpus does not guarantee
// referential integrity and lookups must tolerate that in both directions.
func TestSnapshotLookups(t *testing.T) {
	title := "Raiders of the Lost Ark"
	movies := &model.MovieTable{Records: []model.MovieRecord{
		{WikipediaMovieID: 54166, MovieName: &title},
	}}
	summaries := &model.SummaryTable{Records: []model.SummaryRecord{
		{WikipediaMovieID: 54166, Summary: "An archaeologist races the Nazis to the Ark."},
		{WikipediaMovieID: 99999999, Summary: "An orphaned summary."},
	}}

	snapshot := model.NewSnapshot("fixture://lookups", &model.CharacterTable{}, movies, summaries)

	movie, ok := snapshot.MovieByID(54166)
	zassert.True(t, ok)
	zassert.Equal(t, title, *movie.MovieName)

	_, ok = snapshot.MovieByID(99999999)
	zassert.False(t, ok)

	summary, ok := snapshot.SummaryByID(99999999)
	zassert.True(t, ok)
	assert.Contains(t, summary, "orphaned")

	_, ok = snapshot.SummaryByID(42)
	zassert.False(t, ok)
}
