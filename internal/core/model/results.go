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
// file holds the result row types returned by the query engine. Every query
// returns an ordered slice of one of these types; the HTTP layer serializes
// them as-is.
package model

// EntityCount is one row of a frequency ranking: a group key and the number
// of rows in that group.
type EntityCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GroupSizeBucket is one row of a cardinality histogram: how many groups
// have exactly Size members.
type GroupSizeBucket struct {
	Size   int `json:"size"`
	Groups int `json:"groups"`
}

// DistributionBin is one bin of a bounded attribute distribution, labeled by
// the bin's midpoint.
type DistributionBin struct {
	Midpoint float64 `json:"midpoint"`
	Count    int     `json:"count"`
}

// YearCount is one row of a temporal series: rows counted per release year.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// BirthCount is one row of a birth statistic. Label is a year ("1942") or an
// English month name ("January") depending on the requested unit.
type BirthCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MovieDetails is the result of an entity detail lookup. It is total over
// the identifier space: lookups of unknown movies return the placeholder
// values rather than failing.
type MovieDetails struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Genres  []string `json:"genres"`
}

// Placeholder values returned by detail lookups when the movie or its
// summary is absent from the snapshot.
const (
	UnknownTitle       = "Unknown Title"
	SummaryUnavailable = "Summary not available"
)
