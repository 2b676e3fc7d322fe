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

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/go-movie-corpus/internal/api"
	"github.com/jaycherian/go-movie-corpus/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	// Ingest the corpus and build the services. A failure here means the
	// corpus could not be acquired or parsed; the error carries the failing
	// URL or path.
	if err := InitState(ctx); err != nil {
		slog.Error("Failed to initialize corpus state", "error", err, "url", config.Corpus.URL)
		log.Fatal(err)
	}
	slog.Info("Initialized State", "snapshot", state.analyzer.Snapshot.ID,
		"movies", state.analyzer.Snapshot.Movies.Len(),
		"characters", state.analyzer.Snapshot.Characters.Len(),
		"summaries", state.analyzer.Snapshot.Summaries.Len())

	r := gin.Default()

	// Add OpenTelemetry middleware.
	r.Use(otelgin.Middleware(config.Application.Name))

	// Use a default, permissive CORS configuration. The dashboard frontend
	// is served from a different origin during development.
	r.Use(cors.Default())

	// Create the "/api/v1" group and register the stats and movie routes.
	apiV1 := r.Group("/api/v1")
	{
		api.Dashboard(apiV1, state.analyzer)
		api.Movies(apiV1, state.analyzer, state.classifier)
	}

	port := config.Application.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start the server in a goroutine.
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", port)

	// Wait for an interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}
	state.cloud.Close()

	log.Println("Server exiting")
}
