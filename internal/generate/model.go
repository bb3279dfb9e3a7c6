/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package generate asks a generative model for project assets and shot
// breakdowns and maps the (often sloppy) JSON it returns onto the domain
// model. Everything the model returns is auto-tagged before it reaches a
// project.
package generate

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey is returned when a Gemini client is requested without a key.
var ErrNoAPIKey = errors.New("generation api key is not set (GEMINI_API_KEY or API_KEY)")

// Options tunes one generation call.
type Options struct {
	Temperature float32
	// JSON asks for an application/json response.
	JSON bool
	// Schema constrains the JSON response when non-nil.
	Schema *genai.Schema
}

// Model produces text for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// Gemini is a Model backed by the Google Gen AI SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ Model = (*Gemini)(nil)

// NewGemini creates a Gemini client for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns the model name.
func (g *Gemini) Name() string { return g.model }

func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(opts.Temperature)}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if opts.Schema != nil {
		cfg.ResponseSchema = opts.Schema
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return resp.Text(), nil
}
