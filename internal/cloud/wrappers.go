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

// This file implements the chat model wrappers. Each wrapper uses the
// Decorator design pattern to add extra functionality to an underlying
// provider client without altering its code. Specifically, they add rate
// limiting and a retry mechanism in front of the provider call.
//
// Why this is important:
//   - Rate Limiting: Hosted model services have quotas on how many requests
//     you can make per minute. The wrappers prevent the application from
//     exceeding those limits, which would otherwise result in errors.
//   - Retry Logic: Network requests can sometimes fail for transient reasons.
//     The wrappers automatically retry a failed request, making the application
//     more resilient and reliable.
//
// Structs:
//   - QuotaAwareGenerativeAIModel: Wraps a Gemini model handle with a rate limiter.
//   - OpenAIChatModel: Wraps an OpenAI-compatible chat completion client with
//     the same limiter and retry behavior, so Ollama or OpenAI endpoints can
//     serve the classifier interchangeably.
//   - UnavailableChatModel: A registered model with no backend; every call fails.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ChatModel is the text-completion contract the rest of the application
// programs against: one prompt in, one completion out. Implementations own
// their quota and retry behavior.
type ChatModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// retryCtxKey keys the retry counter carried on the context during the
// wrappers' recursive retry calls.
type retryCtxKey struct{}

// QuotaAwareGenerativeAIModel is a decorator struct that wraps a Gemini
// model handle to add rate-limiting capabilities. Calls that the limiter
// rejects are paused and re-queued rather than dropped.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // The generation settings applied to every call.
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               rate.Limiter // A rate limiter from golang.org/x/time to control request frequency.
}

// NewQuotaAwareModel is a constructor function that creates a new
// QuotaAwareGenerativeAIModel. It takes the generation config and a rate
// limit (in requests per second) and returns the quota-aware model.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		// Creates a new rate limiter that allows a burst of `requestsPerSecond` events
		// and replenishes the "token bucket" at a rate of 1 token per second.
		RateLimit: *rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// Generate sends the prompt to the Gemini model and concatenates the text
// parts of the first-class candidates into a single string.
//
// Logic Flow:
//  1. Check the rate limiter.
//  2. If a request is allowed:
//     a. Call the provider.
//     b. If it fails, check the retry count carried on the context.
//     c. If retries are available, wait and recursively call itself to try again.
//     d. If no retries are left, return the error.
//  3. If a request is NOT allowed (rate-limited):
//     a. Wait for a short period.
//     b. Recursively call itself to re-queue the request.
func (q *QuotaAwareGenerativeAIModel) Generate(ctx context.Context, prompt string) (string, error) {
	// The `Allow()` method checks if an event can happen now. It's a non-blocking check.
	if !q.RateLimit.Allow() {
		// If the rate limiter did not allow the request, wait for 5 seconds.
		// This pauses the execution of this specific request, effectively "queueing" it.
		time.Sleep(time.Second * 5)
		return q.Generate(ctx, prompt)
	}

	resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, genai.Text(prompt), q.GenerativeContentConfig)
	if err != nil {
		retryCount, ok := ctx.Value(retryCtxKey{}).(int)
		if !ok {
			// This is the first attempt.
			retryCount = 0
		}
		if retryCount >= MaxRetries {
			// If we have exceeded the maximum number of retries, give up and return an error.
			return "", errors.New("failed generation on max retries")
		}
		// If more retries are allowed, create a new context with an incremented retry count.
		errCtx := context.WithValue(ctx, retryCtxKey{}, retryCount+1)
		// Wait before retrying to give the service time to recover.
		time.Sleep(time.Second * 10)
		return q.Generate(errCtx, prompt)
	}

	value := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += fmt.Sprint(part.Text)
			}
		}
	}
	return value, nil
}

// OpenAIChatModel wraps an OpenAI-compatible chat completion client. Pointing
// its base URL at an Ollama server makes local models usable without any
// other code change.
type OpenAIChatModel struct {
	Client             *openai.Client
	ModelName          string
	SystemInstructions string
	Temperature        float32
	TopP               float32
	MaxTokens          int
	RateLimit          rate.Limiter
}

// NewOpenAIChatModel builds the wrapper around an existing client.
func NewOpenAIChatModel(client *openai.Client, values ChatModelConfig) *OpenAIChatModel {
	return &OpenAIChatModel{
		Client:             client,
		ModelName:          values.Model,
		SystemInstructions: values.SystemInstructions,
		Temperature:        values.Temperature,
		TopP:               values.TopP,
		MaxTokens:          int(values.MaxTokens),
		RateLimit:          *rate.NewLimiter(rate.Every(time.Second/1), values.RateLimit),
	}
}

// Generate sends the prompt as a single-turn chat completion and returns the
// first choice. Rate limiting and retries mirror the Gemini wrapper.
func (o *OpenAIChatModel) Generate(ctx context.Context, prompt string) (string, error) {
	if !o.RateLimit.Allow() {
		time.Sleep(time.Second * 5)
		return o.Generate(ctx, prompt)
	}

	messages := []openai.ChatCompletionMessage{}
	if o.SystemInstructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.SystemInstructions,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.ModelName,
		Messages:    messages,
		Temperature: o.Temperature,
		TopP:        o.TopP,
		MaxTokens:   o.MaxTokens,
	})
	if err != nil {
		retryCount, ok := ctx.Value(retryCtxKey{}).(int)
		if !ok {
			retryCount = 0
		}
		if retryCount >= MaxRetries {
			return "", errors.New("failed generation on max retries")
		}
		errCtx := context.WithValue(ctx, retryCtxKey{}, retryCount+1)
		time.Sleep(time.Second * 10)
		return o.Generate(errCtx, prompt)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// UnavailableChatModel stands in for a model configured with backend "none".
// It keeps the classifier endpoints wired while making the missing
// configuration explicit at call time instead of at startup.
type UnavailableChatModel struct {
	Name string
}

func (u *UnavailableChatModel) Generate(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("chat model %q has no backend configured", u.Name)
}
