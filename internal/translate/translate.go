// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package translate provides the English to French machine translation used
// to mirror free-text fields.
package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// ErrDisabled is returned when no translation provider is configured.
var ErrDisabled = errors.New("translation disabled")

// ErrEmptyResult is returned when the provider answers with no text.
var ErrEmptyResult = errors.New("empty translation")

const systemPrompt = "You translate English content of a health and nutrition app into French. " +
	"Reply with the French translation only, without quotes or comments. " +
	"Keep HTML tags, Markdown, line breaks, numbers and units unchanged."

// Translator renders English text in French.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// OpenAIConfig configures the OpenAI-compatible chat completion translator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string // empty selects api.openai.com; set for Groq, Ollama and the like
	Model   string
	Timeout time.Duration
}

// OpenAI translates through a chat completion endpoint.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI translator.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAI{client: openai.NewClient(opts...), model: model}
}

// Translate implements Translator.
func (t *OpenAI) Translate(ctx context.Context, text string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResult
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrEmptyResult
	}
	return out, nil
}

// Disabled is the translator used when no provider is configured; every
// call fails with ErrDisabled and French fields stay as they are.
type Disabled struct{}

// Translate implements Translator.
func (Disabled) Translate(context.Context, string) (string, error) {
	return "", ErrDisabled
}
