/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"errors"
	"log/slog"
	"time"

	applog "cineprompt/internal/log"
)

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Generator turns ideas into project assets and shots using a Model.
type Generator struct {
	model   Model
	timeout time.Duration
	autoTag bool
	log     *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithTimeout bounds every model call. Zero means no extra deadline.
func WithTimeout(d time.Duration) Option { return func(g *Generator) { g.timeout = d } }

// WithAutoTag toggles tagging of generated shot text with project entities.
func WithAutoTag(on bool) Option { return func(g *Generator) { g.autoTag = on } }

// New returns a Generator with auto-tagging on.
func New(m Model, opts ...Option) *Generator {
	g := &Generator{model: m, autoTag: true, log: applog.WithComponent("generate")}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *Generator) call(ctx context.Context, op, prompt string, opts Options) (string, error) {
	l := applog.WithOperation(g.log, op)
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	start := time.Now()
	text, err := g.model.Generate(ctx, prompt, opts)
	if err != nil {
		l.ErrorContext(ctx, "model call failed", slog.Any("err", err))
		return "", err
	}
	l.DebugContext(ctx, "model call done",
		slog.Int("prompt_len", len(prompt)),
		slog.Int("response_len", len(text)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return text, nil
}

// decode extracts the JSON from a response. Failures are logged and
// reported as ErrNoJSON so callers can fall back to empty results.
func (g *Generator) decode(ctx context.Context, op, text string) ([]byte, error) {
	if text == "" {
		return nil, ErrEmptyResponse
	}
	raw, err := ExtractJSON(text)
	if err != nil {
		applog.WithOperation(g.log, op).WarnContext(ctx, "unparseable model response",
			slog.Int("len", len(text)), slog.Any("err", err))
		return nil, err
	}
	return raw, nil
}
