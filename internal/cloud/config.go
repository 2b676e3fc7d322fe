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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the clients that talk to external services.
// It provides a structured way to manage settings for the corpus cache,
// the HTTP server, and the text-completion models used for genre
// classification.
//
// Structs:
//   - Corpus: Location and layout of the movie corpus on disk and upstream.
//   - PromptTemplates: Holds the text templates for prompts sent to chat models.
//   - ChatModelConfig: Configuration for one text-completion backend.
//   - Config: The top-level struct that aggregates all other configuration structs.
//
// Functions:
//   - NewConfig: A constructor that initializes a new Config object with empty maps.
package cloud

import "google.golang.org/genai"

// Chat model backends recognized in [chat_models] sections. A model whose
// backend is BackendNone is registered but refuses generation, which keeps
// the rest of the application runnable without credentials.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendNone   = "none"
)

// DefaultSafetySettings defines the default content safety thresholds for
// Gemini-backed models. These settings are configured to be non-restrictive:
// the prompts are built from our own templates and public movie metadata,
// so nothing user-generated reaches the model unfiltered.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Corpus describes where the movie corpus lives: the upstream archive URL,
// the local cache layout, and the optional fallback transports used when a
// direct download fails.
type Corpus struct {
	URL           string `toml:"url"`            // The upstream URL of the corpus archive.
	CacheDir      string `toml:"cache_dir"`      // The local directory the archive and extracted members live in.
	ArchiveName   string `toml:"archive_name"`   // The file name the downloaded archive is stored under.
	CharacterFile string `toml:"character_file"` // The archive member holding character metadata.
	MovieFile     string `toml:"movie_file"`     // The archive member holding movie metadata.
	SummaryFile   string `toml:"summary_file"`   // The archive member holding plot summaries.
	MirrorBucket  string `toml:"mirror_bucket"`  // Optional GCS bucket mirroring the archive.
	MirrorObject  string `toml:"mirror_object"`  // Object name of the mirrored archive within MirrorBucket.
	WgetPath      string `toml:"wget_path"`      // Optional path to a wget binary used as a last-resort transport.
}

// PromptTemplates holds the templates for different types of prompts.
type PromptTemplates struct {
	GenrePrompt string `toml:"genre"` // The template for the genre classification prompt.
}

// ChatModelConfig represents the configuration for a single text-completion
// model. The Backend field selects which client implementation serves it.
type ChatModelConfig struct {
	Backend            string  `toml:"backend"`             // One of "gemini", "openai", "none".
	Model              string  `toml:"model"`               // The provider-side model name.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the model.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter.
	TopP               float32 `toml:"top_p"`               // The top_p parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens in the output.
	OutputFormat       string  `toml:"output_format"`       // The desired response MIME type (e.g., "application/json").
	RateLimit          int     `toml:"rate_limit"`          // The rate limit in requests per second.
	BaseURL            string  `toml:"base_url"`            // Optional API base URL for OpenAI-compatible servers (e.g., Ollama).
	APIKeyEnv          string  `toml:"api_key_env"`         // Environment variable holding the API key for the openai backend.
}

// Config represents the overall configuration for the application, loaded
// from TOML files. It acts as the root container for all other configuration
// structs.
type Config struct {
	// Application holds general application settings.
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		Port            string `toml:"port"`              // The port the HTTP server listens on.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID (gemini backend only).
		GoogleLocation  string `toml:"location"`          // The Google Cloud location (gemini backend only).
	} `toml:"application"`
	Corpus          Corpus                     `toml:"corpus"`           // Corpus cache configuration.
	PromptTemplates PromptTemplates            `toml:"prompt_templates"` // Prompt templates configuration.
	ChatModels      map[string]ChatModelConfig `toml:"chat_models"`      // A map of chat models, keyed by a logical name (e.g., "classifier").
}

// NewConfig is a constructor function that creates a new, initialized Config
// instance. It's important to initialize the maps within the struct to avoid
// nil pointer panics when the configuration loader tries to populate them.
//
// Outputs:
//   - *Config: A pointer to a new Config struct with its map fields initialized.
func NewConfig() *Config {
	return &Config{
		ChatModels: make(map[string]ChatModelConfig),
	}
}
