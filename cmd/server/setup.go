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
	"log"
	"os"
	"text/template"

	"github.com/jaycherian/go-movie-corpus/internal/cloud"
	"github.com/jaycherian/go-movie-corpus/internal/core/cor"
	"github.com/jaycherian/go-movie-corpus/internal/core/services"
	"github.com/jaycherian/go-movie-corpus/internal/core/workflow"
)

// ClassifierModelName is the logical name of the chat model serving genre
// classification, as declared in the [chat_models] config section.
const ClassifierModelName = "classifier"

// StateManager holds the shared components for the application.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	analyzer   *services.AnalyzerService
	classifier *services.ClassifierService
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory with the
// local runtime, unless the caller has already set the environment.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the application configuration once and caches it on the
// state manager.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment: %v\n", err)
		}
		// Create a default config and load it from the TOML files.
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state and dependencies: external
// clients, the corpus ingestion workflow, and the services that serve the
// API. Ingestion is all-or-nothing; any failure here is fatal to startup.
func InitState(ctx context.Context) error {
	// Get the config file.
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		return err
	}
	state.cloud = cloudClients

	// Run the ingestion pipeline to completion. On a warm cache this is
	// pure filesystem work.
	ingestion := workflow.NewCorpusIngestionWorkflow(config, cloudClients)
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	snapshot, err := ingestion.Run(chainCtx)
	if err != nil {
		return err
	}

	state.analyzer = services.NewAnalyzerService(snapshot)

	// The classifier is optional: it exists only when a chat model is
	// configured with a real backend.
	if values, ok := config.ChatModels[ClassifierModelName]; ok && values.Backend != cloud.BackendNone && values.Backend != "" {
		promptTemplate, err := template.New("genre-template").Parse(config.PromptTemplates.GenrePrompt)
		if err != nil {
			return err
		}
		state.classifier = services.NewClassifierService(
			state.analyzer,
			cloudClients.ChatModels[ClassifierModelName],
			promptTemplate)
	}

	return nil
}
