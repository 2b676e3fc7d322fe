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

// This file is central to the application's architecture: it initializes and
// holds the client objects needed to communicate with external services. It
// acts as a dependency injection container, creating a single, shared
// `ServiceClients` struct that can be passed throughout the application.
//
// Logic Flow:
//  1. The `NewCloudServiceClients` function is called at application startup.
//  2. It takes the application's configuration (`Config`) and a `context.Context`.
//  3. For each configured chat model it instantiates the matching backend
//     client (Gemini or OpenAI-compatible), wraps it with the quota-aware
//     decorator, and stores it in a map keyed by logical name.
//  4. If a corpus mirror bucket is configured, it also creates a Cloud
//     Storage client so the corpus store can fall back to the mirror.
//
// Structs:
//   - ServiceClients: A container struct holding all initialized clients and
//     model wrappers, acting as a central state manager for external connections.
//
// Functions:
//   - Close: A convenience method to gracefully shut down the client connections.
//   - NewCloudServiceClients: A factory function that creates and configures all
//     necessary clients based on the application's configuration.
package cloud

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ServiceClients is a struct that acts as a central container for the clients
// that interact with external services. This pattern is a form of dependency
// injection, making it easy to manage and share these client connections
// across the entire application.
type ServiceClients struct {
	StorageClient *storage.Client      // Client for Google Cloud Storage, nil unless a corpus mirror is configured.
	GenAIClient   *genai.Client        // Client for Gemini models, nil unless a gemini-backed model is configured.
	ChatModels    map[string]ChatModel // A map of configured chat models, keyed by a logical name from the config.
}

// Close is a utility method to gracefully shut down the active client
// connections. While client connections are typically managed by the
// application's root context, this method provides an explicit way to
// release resources, which is especially useful in tests or for controlled
// shutdowns.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	// The genai client has no close function; its connections follow the
	// root context.
}

// NewCloudServiceClients is a factory function that initializes the external
// service clients based on the provided configuration. It serves as the main
// entry point for setting up the application's external dependencies.
//
// Inputs:
//   - ctx: The root context.Context for the application, used to manage the lifecycle of the clients.
//   - config: A pointer to the loaded application configuration (`Config`).
//
// Outputs:
//   - *ServiceClients: A pointer to the fully initialized ServiceClients struct.
//   - error: An error if any of the clients fail to initialize.
func NewCloudServiceClients(ctx context.Context, config *Config) (clients *ServiceClients, err error) {
	clients = &ServiceClients{
		ChatModels: make(map[string]ChatModel),
	}

	// A Cloud Storage client is only needed when the corpus store can fall
	// back to a mirrored copy of the archive.
	if config.Corpus.MirrorBucket != "" {
		sc, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		clients.StorageClient = sc
	}

	// The Gemini client is shared by every gemini-backed model, so create it
	// once if anything needs it.
	for _, values := range config.ChatModels {
		if values.Backend != BackendGemini {
			continue
		}
		gc, err := genai.NewClient(ctx, &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		clients.GenAIClient = gc
		break
	}

	// Iterate through the chat model configurations, build the matching
	// backend wrapper for each, and register it under its logical name.
	for name, values := range config.ChatModels {
		switch values.Backend {
		case BackendGemini:
			generationConfig := &genai.GenerateContentConfig{
				Temperature:       genai.Ptr[float32](values.Temperature),
				TopP:              genai.Ptr[float32](values.TopP),
				MaxOutputTokens:   values.MaxTokens,
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
				SafetySettings:    DefaultSafetySettings,
				ResponseMIMEType:  values.OutputFormat,
				Tools:             []*genai.Tool{},
			}
			clients.ChatModels[name] = NewQuotaAwareModel(generationConfig, values.Model, clients.GenAIClient.Models, values.RateLimit)
		case BackendOpenAI:
			apiKey := os.Getenv(values.APIKeyEnv)
			clientConfig := openai.DefaultConfig(apiKey)
			if values.BaseURL != "" {
				clientConfig.BaseURL = values.BaseURL
			}
			clients.ChatModels[name] = NewOpenAIChatModel(openai.NewClientWithConfig(clientConfig), values)
		case BackendNone, "":
			clients.ChatModels[name] = &UnavailableChatModel{Name: name}
		default:
			return nil, fmt.Errorf("chat model %q: unknown backend %q", name, values.Backend)
		}
	}

	return clients, nil
}
