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

// Package api contains the HTTP route definitions for the server. This file
// defines the statistics dashboard: each endpoint is a thin adapter over one
// query engine operation. Argument validation failures surface as 400
// responses naming the offending argument; empty results are returned as
// empty JSON arrays, never errors.
//
// Functions:
//   - Dashboard: Sets up the route group for statistics endpoints.
//   - Movies: Sets up the route group for per-movie detail and classification.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/go-movie-corpus/internal/core/model"
	"github.com/jaycherian/go-movie-corpus/internal/core/services"
)

// Dashboard configures the API routes for corpus statistics. It creates a
// route group "/stats" nested under the main API router group, with one
// endpoint per query engine operation.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/stats" route group will be added.
//   - analyzer: The query engine serving every endpoint in the group.
func Dashboard(r *gin.RouterGroup, analyzer *services.AnalyzerService) {
	// Create a new router group for the statistics endpoints, prefixed with "/stats".
	stats := r.Group("/stats")
	{
		// The n most frequent movie type strings across the movie table.
		stats.GET("/movie-types", func(c *gin.Context) {
			n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "n must be an integer"})
				return
			}
			out, err := analyzer.TopEntities(analyzer.Snapshot.Movies, model.ColGenres, n)
			if err != nil {
				respondQueryError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Histogram of cast sizes: how many movies have exactly k character rows.
		stats.GET("/actor-counts", func(c *gin.Context) {
			out, err := analyzer.GroupSizeHistogram(analyzer.Snapshot.Characters, model.ColWikipediaMovieID)
			if err != nil {
				respondQueryError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Binned distribution of actor heights, optionally restricted to one
		// gender. Bounds are meters; bins defaults to 19.
		stats.GET("/height-distribution", func(c *gin.Context) {
			params := services.DistributionParams{
				Table:        analyzer.Snapshot.Characters,
				ValueColumn:  model.ColActorHeight,
				FilterColumn: model.ColActorGender,
			}
			if gender := c.Query("gender"); gender != "" {
				params.FilterValue = gender
			}

			var err error
			params.LowerBound, err = strconv.ParseFloat(c.DefaultQuery("min", "0"), 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "min must be numeric"})
				return
			}
			params.UpperBound, err = strconv.ParseFloat(c.DefaultQuery("max", "3"), 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "max must be numeric"})
				return
			}
			params.NumBins, err = strconv.Atoi(c.DefaultQuery("bins", "19"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bins must be an integer"})
				return
			}

			out, err := analyzer.BinnedDistribution(params)
			if err != nil {
				respondQueryError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Movie releases per year, optionally restricted to a genre substring.
		stats.GET("/releases", func(c *gin.Context) {
			out, err := analyzer.TimeSeriesCounts(
				analyzer.Snapshot.Movies,
				model.ColMovieReleaseDate,
				c.Query("genre"),
				model.ColGenres)
			if err != nil {
				respondQueryError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Actor births per year, or per calendar month when unit=month.
		stats.GET("/births", func(c *gin.Context) {
			out, err := analyzer.BirthCounts(
				analyzer.Snapshot.Characters,
				model.ColActorDOB,
				c.DefaultQuery("unit", "year"))
			if err != nil {
				respondQueryError(c, err)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

// Movies configures the per-movie routes: detail lookup and on-demand genre
// classification. Detail lookups are total — an unknown identifier returns
// the placeholder record with a 200, not a 404 — so navigating from any
// listed identifier always succeeds.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the new "/movies" route group will be added.
//   - analyzer: The query engine, used for detail lookups.
//   - classifier: The classification service, nil when no chat backend is configured.
func Movies(r *gin.RouterGroup, analyzer *services.AnalyzerService, classifier *services.ClassifierService) {
	movies := r.Group("/movies")
	{
		movies.GET("/:id", func(c *gin.Context) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
				return
			}
			c.JSON(http.StatusOK, analyzer.MovieDetails(id))
		})

		movies.POST("/:id/classify", func(c *gin.Context) {
			if classifier == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no chat model configured"})
				return
			}
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
				return
			}
			out, err := classifier.Classify(c.Request.Context(), id)
			if err != nil {
				slog.Error("classification failed", "id", id, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

// respondQueryError maps the query engine's sentinel errors onto HTTP
// statuses: precondition failures are the caller's fault, everything else is
// ours.
func respondQueryError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInvalidArgument) || errors.Is(err, services.ErrInvalidType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
