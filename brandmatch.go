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

// Package brandmatch matches free-text descriptions to brands in an embedded
// catalog, optionally narrowed by category, audience size, region, founding
// year and price level.
package brandmatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/ai/openai"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/filter"
	"github.com/poiesic/brandmatch/index"
	"github.com/poiesic/brandmatch/ingestion"
	"github.com/poiesic/brandmatch/search"
)

// DefaultReadyWait is how long Provision waits after creating an index.
const DefaultReadyWait = 10 * time.Second

// ErrIndexRequired is returned by NewEngine when no index is provided.
var ErrIndexRequired = errors.New("vector index required")

type Engine struct {
	index     index.Index
	provider  ai.AIProvider
	gateway   *ai.Gateway
	builder   *filter.Builder
	searcher  *search.Searcher
	dimension int
	readyWait time.Duration
	logger    *slog.Logger
	baseLog   *slog.Logger // handed to pipelines and searchers

	provisionOnce sync.Once
	provisioned   bool
	provisionErr  error
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig   *ai.Config
	provider   ai.AIProvider
	vocabulary *filter.Vocabulary
	readyWait  time.Duration
	logger     *slog.Logger
}

// WithAIConfig sets the embedding service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider replaces the OpenAI-compatible provider built from the AI
// config. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithVocabulary sets the filter vocabulary.
// Default is filter.DefaultVocabulary().
func WithVocabulary(v *filter.Vocabulary) EngineOption {
	return func(o *engineOptions) {
		if v != nil {
			o.vocabulary = v
		}
	}
}

// WithReadyWait sets the wait after creating the index.
func WithReadyWait(d time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.readyWait = d
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine wires an index to an embedding provider, a filter builder and a
// searcher. The engine owns idx and closes it in Close.
func NewEngine(idx index.Index, opts ...EngineOption) (*Engine, error) {
	if idx == nil {
		return nil, ErrIndexRequired
	}

	// Apply options
	options := &engineOptions{
		aiConfig:   ai.DefaultConfig(), // Default if not provided
		vocabulary: filter.DefaultVocabulary(),
		readyWait:  DefaultReadyWait,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if err := options.aiConfig.Validate(); err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	gateway, err := ai.NewGateway(provider.Embedder(), options.aiConfig.Dimension,
		ai.WithGatewayLogger(options.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(gateway, idx, search.WithLogger(options.logger))
	if err != nil {
		provider.Close()
		return nil, err
	}

	return &Engine{
		index:     idx,
		provider:  provider,
		gateway:   gateway,
		builder:   filter.NewBuilder(filter.WithVocabulary(options.vocabulary), filter.WithLogger(options.logger)),
		searcher:  searcher,
		dimension: options.aiConfig.Dimension,
		readyWait: options.readyWait,
		logger:    options.logger.With("component", "engine"),
		baseLog:   options.logger,
	}, nil
}

// Provision creates the index when it is missing. Only the first call does
// any work; later calls return its result.
func (e *Engine) Provision(ctx context.Context) (bool, error) {
	e.provisionOnce.Do(func() {
		e.provisioned, e.provisionErr = index.Provision(ctx, e.index, e.dimension, e.readyWait)
		if e.provisionErr != nil {
			e.logger.Error("error provisioning index", "index", e.index.Name(), "err", e.provisionErr)
		}
	})
	return e.provisioned, e.provisionErr
}

// NewIngestionPipeline creates a pipeline writing to the engine's index.
// The caller must Release it.
func (e *Engine) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	opts = append([]ingestion.Option{ingestion.WithLogger(e.baseLog)}, opts...)
	return ingestion.NewPipeline(e.gateway, e.index, opts...)
}

// Ingest provisions the index and loads records into it.
func (e *Engine) Ingest(ctx context.Context, records []core.BrandRecord, opts ...ingestion.Option) (*ingestion.Report, error) {
	if _, err := e.Provision(ctx); err != nil {
		return nil, err
	}

	pipeline, err := e.NewIngestionPipeline(opts...)
	if err != nil {
		return nil, err
	}
	defer pipeline.Release()

	return pipeline.Ingest(ctx, records)
}

// NewSearcher creates a searcher over the engine's index.
func (e *Engine) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	opts = append([]search.Option{search.WithLogger(e.baseLog)}, opts...)
	return search.NewSearcher(e.gateway, e.index, opts...)
}

// Filter builds the filter for the given selections.
func (e *Engine) Filter(sel filter.Selections) (*core.FilterSpec, error) {
	return e.builder.Build(sel)
}

// FindBrands returns up to topK brands matching query under the selections.
func (e *Engine) FindBrands(ctx context.Context, query string, sel filter.Selections, topK int) ([]core.ConsolidatedResult, error) {
	spec, err := e.Filter(sel)
	if err != nil {
		return nil, err
	}
	return e.searcher.FindBrands(ctx, query, spec, topK)
}

// Vocabulary returns the vocabulary used to validate selections.
func (e *Engine) Vocabulary() *filter.Vocabulary {
	return e.builder.Vocabulary()
}

// Describe reports the index statistics.
func (e *Engine) Describe(ctx context.Context) (*index.Stats, error) {
	return e.index.Describe(ctx)
}

func (e *Engine) Close() error {
	// Close AI provider first
	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.index.Close(); err != nil {
		e.logger.Error("error closing index", "err", err)
		return err
	}
	return nil
}
