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

// Package test provides utility functions and fixture data to support the
// application's test suite. It helps in setting up a consistent test
// environment, loading test-specific configurations, and building miniature
// corpus archives for the ingestion tests.
package test

import (
	"archive/tar"
	"compress/gzip"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/jaycherian/go-movie-corpus/internal/cloud"
)

// StateManager acts as a simple in-memory cache for the application configuration
// during test runs. This prevents the need to reload configuration files for every
// test, speeding up the test suite.
type StateManager struct {
	config *cloud.Config
}

// state is a package-level variable that holds the singleton instance of StateManager,
// ensuring that the configuration is loaded only once per test run.
var state = &StateManager{}

// HandleErr is a simple test helper function that checks if an error is not nil.
// If an error exists, it fails the test immediately by calling t.Errorf.
// This is a convenience function to reduce boilerplate error-checking code in tests.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("Error reading config file: %v", err)
	}
}

// row joins cells with tabs, matching the corpus flat file format.
func row(cells ...string) string {
	return strings.Join(cells, "\t")
}

// GetTestCharacterTSV returns the character metadata fixture: fifteen
// character rows, all belonging to movie 54166 (Raiders of the Lost Ark),
// 13 tab-separated columns each. Five rows carry the known heights used by
// the distribution tests; two actors are born in January and one in May for
// the month labeling test; one row has a malformed date and one a malformed
// height to exercise lenient coercion.
func GetTestCharacterTSV() string {
	release := "1982-06-12"
	rows := []string{
		row("54166", "/m/0f4_l", release, "Indiana Jones", "1942-01-13", "M", "1.816", "NA", "Harrison Ford", "39", "/m/0k1", "/m/0c1", "/m/0a1"),
		row("54166", "/m/0f4_l", release, "Marion Ravenwood", "1951-01-30", "F", "1.7", "NA", "Karen Allen", "30", "/m/0k2", "/m/0c2", "/m/0a2"),
		row("54166", "/m/0f4_l", release, "Rene Belloq", "1943-03-29", "M", "1.87", "NA", "Paul Freeman", "38", "/m/0k3", "/m/0c3", "/m/0a3"),
		row("54166", "/m/0f4_l", release, "Sallah", "1944-07-30", "M", "1.85", "NA", "John Rhys-Davies", "37", "/m/0k4", "/m/0c4", "/m/0a4"),
		row("54166", "/m/0f4_l", release, "Marcus Brody", "1922-05-31", "M", "1.77", "NA", "Denholm Elliott", "59", "/m/0k5", "/m/0c5", "/m/0a5"),
		row("54166", "/m/0f4_l", release, "Major Toht", "1935-05-12", "M", "NA", "NA", "Ronald Lacey", "46", "/m/0k6", "/m/0c6", "/m/0a6"),
		row("54166", "/m/0f4_l", release, "Dietrich", "not-a-date", "M", "NA", "NA", "Wolf Kahler", "NA", "/m/0k7", "/m/0c7", "/m/0a7"),
		row("54166", "/m/0f4_l", release, "Gobler", "NA", "M", "tall", "NA", "Anthony Higgins", "NA", "/m/0k8", "/m/0c8", "/m/0a8"),
		row("54166", "/m/0f4_l", release, "Satipo", "1946", "M", "N/A", "NA", "Alfred Molina", "28", "/m/0k9", "/m/0c9", "/m/0a9"),
		row("54166", "/m/0f4_l", release, "Barranca", "NA", "M", "NA", "NA", "Vic Tablian", "NA", "/m/0ka", "/m/0ca", "/m/0aa"),
		row("54166", "/m/0f4_l", release, "Colonel Musgrove", "NA", "M", "NA", "NA", "Don Fellows", "NA", "/m/0kb", "/m/0cb", "/m/0ab"),
		row("54166", "/m/0f4_l", release, "Major Eaton", "NA", "M", "NA", "NA", "William Hootkins", "NA", "/m/0kc", "/m/0cc", "/m/0ac"),
		row("54166", "/m/0f4_l", release, "Bureaucrat", "NA", "M", "NA", "NA", "Bill Reimbold", "NA", "/m/0kd", "/m/0cd", "/m/0ad"),
		row("54166", "/m/0f4_l", release, "Pilot", "NA", "M", "NA", "NA", "Fred Sorenson", "NA", "/m/0ke", "/m/0ce", "/m/0ae"),
		row("54166", "/m/0f4_l", release, "Monkey Man", "NA", "M", "NA", "NA", "Vic Tablian", "NA", "/m/0kf", "/m/0cf", "/m/0af"),
	}
	return strings.Join(rows, "\n") + "\n"
}

// GetTestMovieTSV returns the movie metadata fixture: three movies with
// 9 tab-separated columns. One has a year-only release date and one carries
// malformed genre text to exercise the strict mapping parser's fallback.
func GetTestMovieTSV() string {
	rows := []string{
		row("54166", "/m/0f4_l", "Raiders of the Lost Ark", "1981-06-12", "389925971", "115",
			`{"/m/02h40lc": "English Language"}`,
			`{"/m/09c7w0": "United States of America"}`,
			`{"/m/02kdv5l": "Action", "/m/03btsm8": "Adventure"}`),
		row("975900", "/m/03vyhn", "Ghosts of Mars", "2001-08-24", "14010832", "98",
			`{"/m/02h40lc": "English Language"}`,
			`{"/m/09c7w0": "United States of America"}`,
			`{"/m/01jfsb": "Thriller", "/m/06n90": "Science Fiction"}`),
		row("3217262", "/m/08yjdv", "The Hunting of the Snark", "1999", "NA", "NA",
			`{"/m/02h40lc": "English Language"}`,
			"NA",
			"{not valid json"),
	}
	return strings.Join(rows, "\n") + "\n"
}

// GetTestSummaryTSV returns the plot summary fixture: two summaries, one for
// a movie present in the movie table and one for an id with no movie row, so
// lookups in both directions are covered.
func GetTestSummaryTSV() string {
	rows := []string{
		row("54166", "Archaeologist Indiana Jones races the Nazis to find the Ark of the Covenant before it falls into the wrong hands."),
		row("99999999", "An orphaned summary with no matching movie metadata row."),
	}
	return strings.Join(rows, "\n") + "\n"
}

// WriteCorpusArchive builds a gzip-compressed tar archive at path containing
// the given members. Member names keep an internal directory prefix
// ("MovieSummaries/") so extraction's basename matching is exercised the way
// the real corpus lays its files out.
func WriteCorpusArchive(t *testing.T, path string, members map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive %s: %v", path, err)
	}
	gw := gzip.NewWriter(f)
	tw := tar.NewWriter(gw)

	for name, content := range members {
		hdr := &tar.Header{
			Name: "MovieSummaries/" + name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("failed to write tar header for %s: %v", name, err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write tar member %s: %v", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		t.Fatalf("failed to close tar writer: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("failed to close gzip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close archive file: %v", err)
	}
}

// GetTestCorpusMembers returns the standard three-member fixture used by the
// ingestion tests, keyed by the member file names the configuration expects.
func GetTestCorpusMembers() map[string]string {
	return map[string]string{
		"character.metadata.tsv": GetTestCharacterTSV(),
		"movie.metadata.tsv":     GetTestMovieTSV(),
		"plot_summaries.txt":     GetTestSummaryTSV(),
	}
}

// SetupOS configures the necessary environment variables that the configuration
// loader (`cloud.LoadConfig`) depends on. By setting these variables, we can
// direct the loader to use the test-specific configuration files (e.g.,
// `configs/.env.test.toml`) instead of production or development ones.
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	// Set the directory where the configuration files are located.
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	// Set the runtime environment identifier to "test". This causes the loader
	// to look for a file named ".env.test.toml" for overrides.
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
// It ensures that the configuration is loaded from TOML files only once and
// is cached in the package-level `state` variable for subsequent calls.
// This is the primary way tests should retrieve their configuration.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	// Check if the config is already cached.
	if state.config == nil {
		// If not cached, set up the OS environment for the test configuration.
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		// Create a new, empty config struct.
		config := cloud.NewConfig()
		// Load the configuration from the TOML files into the struct.
		// `LoadConfig` handles the hierarchical loading (base file + test override).
		cloud.LoadConfig(&config)
		// Cache the loaded config in our state manager.
		state.config = config
	}
	// Return the cached configuration.
	return state.config
}
