// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Gateway converts text into vectors of a fixed dimension. It isolates each
// call: every failure comes back as an *EmbeddingError for that text alone.
// Gateway never retries; callers that want retries wrap it.
type Gateway struct {
	embedder  Embedder
	dimension int
	logger    *slog.Logger
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets the gateway logger.
func WithGatewayLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway wraps embedder and enforces that every vector has dimension
// entries.
func NewGateway(embedder Embedder, dimension int, opts ...GatewayOption) (*Gateway, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if dimension < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dimension)
	}
	g := &Gateway{
		embedder:  embedder,
		dimension: dimension,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With("component", "embedding-gateway")
	return g, nil
}

// Dimension returns the vector length produced by Embed.
func (g *Gateway) Dimension() int {
	return g.dimension
}

// Embed returns the vector for text or an *EmbeddingError.
func (g *Gateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbeddingError{Text: text, Err: ErrEmptyText}
	}

	vector, err := g.embedder.EmbedText(ctx, text)
	if err != nil {
		g.logger.Debug("embedding call failed", "err", err)
		return nil, &EmbeddingError{Text: text, Err: err}
	}
	if err := g.check(vector); err != nil {
		return nil, &EmbeddingError{Text: text, Err: err}
	}
	return vector, nil
}

// EmbedBatch embeds texts with a single provider call and returns the
// vectors in input order. The batch fails as a whole: a blank text, a failed
// call, a short response or any bad vector returns an error and no vectors.
// Use Embed to find which text is at fault.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, &EmbeddingError{Text: text, Err: ErrEmptyText}
		}
	}

	vectors, err := g.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		g.logger.Debug("batch embedding call failed", "size", len(texts), "err", err)
		return nil, fmt.Errorf("embedding batch of %d: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d texts", ErrVectorCountMismatch, len(vectors), len(texts))
	}
	for i, vector := range vectors {
		if err := g.check(vector); err != nil {
			return nil, &EmbeddingError{Text: texts[i], Err: err}
		}
	}
	return vectors, nil
}

func (g *Gateway) check(vector []float32) error {
	if len(vector) == 0 {
		return ErrEmptyEmbedding
	}
	if len(vector) != g.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), g.dimension)
	}
	return nil
}
