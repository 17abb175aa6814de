package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/brandmatch"
	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/ai/openai"
	"github.com/poiesic/brandmatch/catalog"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/filter"
	"github.com/poiesic/brandmatch/index"
	"github.com/poiesic/brandmatch/index/badger"
	"github.com/poiesic/brandmatch/index/qdrant"
	"github.com/poiesic/brandmatch/ingestion"
	"github.com/poiesic/brandmatch/retry"
	"github.com/poiesic/brandmatch/search"
	"github.com/urfave/cli/v2"
)

// newProvider builds the embedding provider; tests replace it.
var newProvider = openai.NewProvider

func openIndex(c *cli.Context) (index.Index, error) {
	switch backend := c.String("index"); backend {
	case "badger":
		store, err := badger.OpenStore(c.String("db"), c.String("collection"))
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return store, nil
	case "qdrant":
		store, err := qdrant.Open(qdrant.Config{
			Host:       c.String("qdrant-host"),
			Port:       c.Int("qdrant-port"),
			APIKey:     c.String("qdrant-api-key"),
			UseTLS:     c.Bool("qdrant-tls"),
			Collection: c.String("collection"),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q: must be badger or qdrant", backend)
	}
}

func openEngine(c *cli.Context, opts ...brandmatch.EngineOption) (*brandmatch.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithDimension(c.Int("dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	provider, err := newProvider(aiConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}

	idx, err := openIndex(c)
	if err != nil {
		provider.Close()
		return nil, err
	}

	opts = append([]brandmatch.EngineOption{
		brandmatch.WithAIConfig(aiConfig),
		brandmatch.WithProvider(provider),
	}, opts...)
	engine, err := brandmatch.NewEngine(idx, opts...)
	if err != nil {
		provider.Close()
		idx.Close()
		return nil, err
	}
	return engine, nil
}

// retryPolicy builds the upload retry policy from the ingest flags.
func retryPolicy(maxAttempts int, delay time.Duration, exponential bool) retry.Policy {
	if exponential {
		return retry.Exponential(maxAttempts, delay)
	}
	return retry.Fixed(maxAttempts, delay)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	records, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c, brandmatch.WithReadyWait(c.Duration("ready-wait")))
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithEmbedBatchSize(c.Int("embed-batch-size")),
		ingestion.WithRetryPolicy(retryPolicy(c.Int("max-retries"), c.Duration("retry-delay"), c.Bool("exponential-backoff"))),
		ingestion.WithProgress(c.App.ErrWriter),
	}
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}

	fmt.Fprintf(c.App.ErrWriter, "Catalog: %s (%d brands)\n", c.String("catalog"), len(records))
	fmt.Fprintf(c.App.ErrWriter, "Index: %s\n", c.String("index"))
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(c.App.ErrWriter)

	report, err := engine.Ingest(ctx, records, opts...)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	out := c.App.Writer
	fmt.Fprintf(out, "Attempted: %d\n", report.Attempted)
	fmt.Fprintf(out, "Embedded:  %d\n", report.Embedded)
	fmt.Fprintf(out, "Skipped:   %d\n", report.Skipped)
	if report.Replaced > 0 {
		fmt.Fprintf(out, "Replaced:  %d\n", report.Replaced)
	}
	fmt.Fprintf(out, "Uploaded:  %d\n", report.Uploaded)
	for _, skip := range report.Skips {
		fmt.Fprintf(out, "  skipped #%d %q: %v\n", skip.Position, skip.BrandName, skip.Reason)
	}
	for _, failed := range report.FailedBatches {
		fmt.Fprintf(out, "  %v\n", failed)
	}

	if stats, err := engine.Describe(ctx); err == nil {
		fmt.Fprintf(out, "Index %s now holds %d vectors\n", stats.Name, stats.TotalVectorCount)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()
	query := strings.Join(c.Args().Slice(), " ")

	var opts []brandmatch.EngineOption
	if path := c.String("vocabulary"); path != "" {
		vocab, err := filter.LoadVocabulary(path)
		if err != nil {
			return err
		}
		opts = append(opts, brandmatch.WithVocabulary(vocab))
	}

	engine, err := openEngine(c, opts...)
	if err != nil {
		return err
	}
	defer engine.Close()

	form := filter.Form{
		Category:      c.String("category"),
		MinFollowers:  c.Int64("min-followers"),
		Region:        c.String("region"),
		FoundedBefore: c.Int("founded-before"),
		PriceLevel:    c.String("price-level"),
	}

	results, err := engine.FindBrands(ctx, query, engine.Vocabulary().Selections(form), c.Int("top-k"))
	var embErr *ai.EmbeddingError
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return cli.Exit("Please enter a description of the brand you are looking for.", 2)
	case errors.As(err, &embErr):
		return cli.Exit(fmt.Sprintf("Could not reach the embedding service, try again: %v", embErr.Err), 1)
	case err != nil:
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No matches found, adjust the filters and try again.")
		return nil
	}
	printResults(c.App.Writer, results)
	return nil
}

func printResults(w io.Writer, results []core.ConsolidatedResult) {
	for i, r := range results {
		fmt.Fprintf(w, "%d. %s (score %.4f)\n", i+1, r.BrandName, r.BestScore)
		fmt.Fprintf(w, "   Category: %s | Region: %s | Founded: %s | Price: %s | Followers: %s\n",
			r.Category, r.Region, r.Founded, r.PriceLevel, r.Followers)
		fmt.Fprintf(w, "   %s\n", r.Description)
	}
}

func describeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Describe(context.Background())
	if err != nil {
		return fmt.Errorf("failed to describe index: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Index:     %s\n", stats.Name)
	fmt.Fprintf(c.App.Writer, "Dimension: %d\n", stats.Dimension)
	fmt.Fprintf(c.App.Writer, "Metric:    %s\n", stats.Metric)
	fmt.Fprintf(c.App.Writer, "Vectors:   %d\n", stats.TotalVectorCount)
	return nil
}

func embedCommand(c *cli.Context) error {
	records, err := catalog.Load(c.String("catalog"))
	if err != nil {
		return err
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []ingestion.Option
	if workers := c.Int("workers"); workers > 0 {
		opts = append(opts, ingestion.WithPoolSize(workers))
	}
	opts = append(opts, ingestion.WithProgress(c.App.ErrWriter))
	pipeline, err := engine.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	var embedded []core.BrandRecord
	var vectors [][]float32
	for _, outcome := range pipeline.Embed(context.Background(), records) {
		if !outcome.OK() {
			fmt.Fprintf(c.App.ErrWriter, "skipped %q: %v\n", outcome.Record.BrandName, outcome.Err)
			continue
		}
		embedded = append(embedded, *outcome.Record)
		vectors = append(vectors, outcome.Entry.Vector)
	}

	out, err := os.Create(c.String("out"))
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := catalog.WriteEmbeddingsCSV(out, embedded, vectors); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %d of %d brands to %s\n", len(embedded), len(records), c.String("out"))
	return out.Close()
}
