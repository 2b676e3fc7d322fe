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

// Package services contains the business logic operating on the loaded
// corpus. This file defines the AnalyzerService: the query engine over the
// immutable snapshot. Every operation is pure — given the same snapshot and
// arguments it returns identical results, and nothing here mutates the
// snapshot. Each operation validates its own arguments before touching data
// and fails fast, naming the offending argument and the constraint violated.
package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/go-movie-corpus/internal/core/model"
)

// Sentinel errors for query argument validation. Callers match these with
// errors.Is to map a failure onto the right response (e.g., HTTP 400).
var (
	// ErrInvalidArgument indicates an argument value outside its allowed
	// range or a column missing from the table schema.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidType indicates an argument of the wrong dynamic type.
	ErrInvalidType = errors.New("invalid type")
)

// Height bounds in meters. The corpus records actor heights; nothing
// plausible falls outside this range, so the distribution endpoints reject
// bounds beyond it.
const (
	DistributionFloor   = 0.0
	DistributionCeiling = 3.0
)

// DefaultNumBins is the bin count used when a distribution request does not
// specify one.
const DefaultNumBins = 19

// DistributionParams carries the arguments of BinnedDistribution. FilterValue
// is declared as `any` so the wrong-type precondition is checked at runtime
// rather than silently coerced away at the call site.
type DistributionParams struct {
	Table        model.Table
	ValueColumn  string
	FilterColumn string
	FilterValue  any     // Must be a string when non-nil.
	LowerBound   float64 // Inclusive; must be >= DistributionFloor.
	UpperBound   float64 // Inclusive; must be <= DistributionCeiling.
	NumBins      int     // Zero selects DefaultNumBins.
}

// AnalyzerService is the query engine. It holds the snapshot loaded at
// startup; because the snapshot is immutable, a single service instance is
// safe for concurrent readers.
type AnalyzerService struct {
	Snapshot *model.Snapshot
}

// NewAnalyzerService constructs the query engine over a loaded snapshot.
func NewAnalyzerService(snapshot *model.Snapshot) *AnalyzerService {
	return &AnalyzerService{Snapshot: snapshot}
}

// TopEntities groups rows by keyColumn, counts group sizes, and returns the
// n largest groups ordered by count descending. Ties are broken by the key's
// natural ascending order (numeric keys compare numerically) so the output
// is deterministic.
//
// Inputs:
//   - table: The table to group.
//   - keyColumn: The column whose values form the groups. Rows with a null
//     key are dropped, not counted under an empty key.
//   - n: The number of groups to return; must be positive.
//
// Outputs:
//   - []model.EntityCount: At most n groups, count descending.
//   - error: ErrInvalidArgument when n is not positive or the column is unknown.
func (s *AnalyzerService) TopEntities(table model.Table, keyColumn string, n int) ([]model.EntityCount, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be a positive integer, got %d", ErrInvalidArgument, n)
	}
	if !table.HasColumn(keyColumn) {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidArgument, keyColumn)
	}

	counts := make(map[string]int)
	for row := 0; row < table.Len(); row++ {
		key, ok := table.StringCell(keyColumn, row)
		if !ok {
			continue
		}
		counts[key]++
	}

	out := make([]model.EntityCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, model.EntityCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return naturalLess(out[i].Key, out[j].Key)
	})

	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// GroupSizeHistogram computes the size of each distinct group under groupKey
// and returns a histogram keyed by that size: how many groups have exactly k
// members, ascending by k.
func (s *AnalyzerService) GroupSizeHistogram(table model.Table, groupKey string) ([]model.GroupSizeBucket, error) {
	if !table.HasColumn(groupKey) {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidArgument, groupKey)
	}

	groupSizes := make(map[string]int)
	for row := 0; row < table.Len(); row++ {
		key, ok := table.StringCell(groupKey, row)
		if !ok {
			continue
		}
		groupSizes[key]++
	}

	buckets := make(map[int]int)
	for _, size := range groupSizes {
		buckets[size]++
	}

	out := make([]model.GroupSizeBucket, 0, len(buckets))
	for size, groups := range buckets {
		out = append(out, model.GroupSizeBucket{Size: size, Groups: groups})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out, nil
}

// BinnedDistribution partitions [LowerBound, UpperBound] into NumBins
// equal-width intervals and counts the rows whose ValueColumn falls in each,
// labeling every bin by its midpoint.
//
// Validation:
//   - FilterValue, if given, must be a string (ErrInvalidType otherwise).
//   - LowerBound >= 0, UpperBound <= 3, LowerBound <= UpperBound
//     (ErrInvalidArgument otherwise).
//
// Rows with a null value are dropped. When FilterValue is given, only rows
// whose FilterColumn equals it exactly (no case-folding) are retained, then
// only rows with LowerBound <= value <= UpperBound. If any row survives,
// every bin appears in the output, zeros included; if none do, the result is
// empty.
func (s *AnalyzerService) BinnedDistribution(params DistributionParams) ([]model.DistributionBin, error) {
	filter := ""
	haveFilter := false
	if params.FilterValue != nil {
		v, ok := params.FilterValue.(string)
		if !ok {
			return nil, fmt.Errorf("%w: filter_value must be a string, got %T", ErrInvalidType, params.FilterValue)
		}
		filter = v
		haveFilter = true
	}
	if params.LowerBound < DistributionFloor {
		return nil, fmt.Errorf("%w: lower_bound must be >= %v, got %v", ErrInvalidArgument, DistributionFloor, params.LowerBound)
	}
	if params.UpperBound > DistributionCeiling {
		return nil, fmt.Errorf("%w: upper_bound must be <= %v, got %v", ErrInvalidArgument, DistributionCeiling, params.UpperBound)
	}
	if params.LowerBound > params.UpperBound {
		return nil, fmt.Errorf("%w: lower_bound %v exceeds upper_bound %v", ErrInvalidArgument, params.LowerBound, params.UpperBound)
	}
	numBins := params.NumBins
	if numBins == 0 {
		numBins = DefaultNumBins
	}
	if numBins < 0 {
		return nil, fmt.Errorf("%w: num_bins must be positive, got %d", ErrInvalidArgument, numBins)
	}
	if !params.Table.HasColumn(params.ValueColumn) {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidArgument, params.ValueColumn)
	}

	width := (params.UpperBound - params.LowerBound) / float64(numBins)
	counts := make([]int, numBins)
	matched := 0

	for row := 0; row < params.Table.Len(); row++ {
		value, ok := params.Table.NumericCell(params.ValueColumn, row)
		if !ok {
			continue
		}
		if haveFilter {
			cell, ok := params.Table.StringCell(params.FilterColumn, row)
			if !ok || cell != filter {
				continue
			}
		}
		if value < params.LowerBound || value > params.UpperBound {
			continue
		}

		// Half-open intervals, with the last bin inclusive of the upper
		// bound. A degenerate zero-width range puts everything in bin 0.
		bin := 0
		if width > 0 {
			bin = int(math.Floor((value - params.LowerBound) / width))
			if bin >= numBins {
				bin = numBins - 1
			}
		}
		counts[bin]++
		matched++
	}

	if matched == 0 {
		return []model.DistributionBin{}, nil
	}

	out := make([]model.DistributionBin, numBins)
	for i := range counts {
		out[i] = model.DistributionBin{
			Midpoint: params.LowerBound + width*(float64(i)+0.5),
			Count:    counts[i],
		}
	}
	return out, nil
}

// TimeSeriesCounts extracts the year component of dateColumn and counts rows
// per year, ascending. When genreFilter is non-empty, only rows whose
// genreColumn (the serialized mapping text) contains the filter as a
// case-insensitive substring are counted. Rows with an unknown date are
// dropped. An empty result is "no data," not a fault.
func (s *AnalyzerService) TimeSeriesCounts(table model.Table, dateColumn string, genreFilter string, genreColumn string) ([]model.YearCount, error) {
	if !table.HasColumn(dateColumn) {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidArgument, dateColumn)
	}
	if genreFilter != "" && !table.HasColumn(genreColumn) {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidArgument, genreColumn)
	}
	needle := strings.ToLower(genreFilter)

	counts := make(map[int]int)
	for row := 0; row < table.Len(); row++ {
		date, ok := table.TimeCell(dateColumn, row)
		if !ok {
			continue
		}
		if genreFilter != "" {
			cell, ok := table.StringCell(genreColumn, row)
			if !ok || !strings.Contains(strings.ToLower(cell), needle) {
				continue
			}
		}
		counts[date.Year()]++
	}

	out := make([]model.YearCount, 0, len(counts))
	for year, count := range counts {
		out = append(out, model.YearCount{Year: year, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

// BirthCounts counts rows per birth year or per calendar month of dobColumn.
// For unit "month" the counts are per month (1-12) irrespective of year,
// ascending by month number and labeled with the English month name. Any
// unit other than "month" gets the "year" behavior: counts per birth year,
// ascending, labeled with the year. Unrecognized units falling back to year
// rather than erroring is long-standing behavior that callers rely on.
func (s *AnalyzerService) BirthCounts(table model.Table, dobColumn string, unit string) ([]model.BirthCount, error) {
	if !table.HasColumn(dobColumn) {
		return nil, fmt.Errorf("%w: unknown column %q", ErrInvalidArgument, dobColumn)
	}

	if unit == "month" {
		counts := make(map[time.Month]int)
		for row := 0; row < table.Len(); row++ {
			dob, ok := table.TimeCell(dobColumn, row)
			if !ok {
				continue
			}
			counts[dob.Month()]++
		}
		out := make([]model.BirthCount, 0, len(counts))
		for m := time.January; m <= time.December; m++ {
			if counts[m] > 0 {
				out = append(out, model.BirthCount{Label: m.String(), Count: counts[m]})
			}
		}
		return out, nil
	}

	counts := make(map[int]int)
	for row := 0; row < table.Len(); row++ {
		dob, ok := table.TimeCell(dobColumn, row)
		if !ok {
			continue
		}
		counts[dob.Year()]++
	}
	years := make([]int, 0, len(counts))
	for year := range counts {
		years = append(years, year)
	}
	sort.Ints(years)
	out := make([]model.BirthCount, 0, len(years))
	for _, year := range years {
		out = append(out, model.BirthCount{Label: strconv.Itoa(year), Count: counts[year]})
	}
	return out, nil
}

// MovieDetails returns the title, plot summary, and genre display names for
// a movie. Lookups are total over the id space: an unknown id yields the
// placeholder record, and a movie without a summary row gets the
// "Summary not available" text while keeping its real title and genres.
func (s *AnalyzerService) MovieDetails(id int64) *model.MovieDetails {
	movie, ok := s.Snapshot.MovieByID(id)
	if !ok {
		slog.Debug("movie details requested for unknown identifier", "id", id)
		return &model.MovieDetails{
			Title:   model.UnknownTitle,
			Summary: model.SummaryUnavailable,
			Genres:  []string{},
		}
	}

	details := &model.MovieDetails{
		Title:   model.UnknownTitle,
		Summary: model.SummaryUnavailable,
		Genres:  movie.Genres,
	}
	if movie.MovieName != nil {
		details.Title = *movie.MovieName
	}
	if summary, ok := s.Snapshot.SummaryByID(id); ok {
		details.Summary = summary
	}
	if details.Genres == nil {
		details.Genres = []string{}
	}
	return details
}

// naturalLess orders keys for tie-breaking: keys that both parse as numbers
// compare numerically, everything else lexicographically.
func naturalLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}
