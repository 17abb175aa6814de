package ingestion

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/index"
	"github.com/poiesic/brandmatch/progress"
	"github.com/poiesic/brandmatch/retry"
)

const (
	// DefaultBatchSize is the number of entries sent to the index per upsert.
	DefaultBatchSize = 100

	// DefaultEmbedBatchSize is the number of texts sent to the model per
	// call. The default embeds each record on its own.
	DefaultEmbedBatchSize = 1
)

// Pipeline orchestrates embedding a brand catalog and uploading it to an index.
type Pipeline struct {
	gateway        *ai.Gateway
	index          index.Index
	embeddingPool  *ants.Pool
	embeddingProc  *embeddingProcessor
	batchSize      int
	embedBatchSize int
	retryPolicy    retry.Policy
	progressWriter io.Writer
	logger         *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithBatchSize sets how many entries go into one upsert.
// Default is DefaultBatchSize.
func WithBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.batchSize = size
		return nil
	}
}

// WithEmbedBatchSize sets how many texts go into one embedding call. A
// failed batch is retried record by record, so failures stay per record.
// Default is DefaultEmbedBatchSize.
func WithEmbedBatchSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			return ErrInvalidBatchSize
		}
		p.embedBatchSize = size
		return nil
	}
}

// WithRetryPolicy sets the retry policy applied to each batch upload.
// Default is retry.Default().
func WithRetryPolicy(policy retry.Policy) Option {
	return func(p *Pipeline) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		p.retryPolicy = policy
		return nil
	}
}

// WithProgress writes embedding progress to w.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progressWriter = w
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline writing to idx.
func NewPipeline(gateway *ai.Gateway, idx index.Index, opts ...Option) (*Pipeline, error) {
	if gateway == nil {
		return nil, ErrGatewayRequired
	}
	if idx == nil {
		return nil, ErrIndexRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	embeddingPool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		gateway:        gateway,
		index:          idx,
		embeddingPool:  embeddingPool,
		batchSize:      DefaultBatchSize,
		embedBatchSize: DefaultEmbedBatchSize,
		retryPolicy:    retry.Default(),
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	p.logger = p.logger.With("component", "ingestion")
	p.embeddingProc = newEmbeddingProcessor(gateway, p.embeddingPool, p.embedBatchSize, p.logger)
	return p, nil
}

// Embed prepares records for the index without uploading them. The result
// has one Outcome per record, in catalog order.
func (p *Pipeline) Embed(ctx context.Context, records []core.BrandRecord) []Outcome {
	writer := p.progressWriter
	if writer == nil {
		writer = io.Discard
	}
	tracker := progress.NewTracker(writer, "brands", len(records), 10)
	tracker.Start()
	defer tracker.Finish()

	return p.embeddingProc.process(ctx, records, tracker)
}

// Ingest embeds records and upserts the results in batches.
// Records that fail validation or embedding are skipped, and batches that
// exhaust their retries are recorded in the report; neither is returned as
// an error. Ingest returns an error only when ctx is done.
func (p *Pipeline) Ingest(ctx context.Context, records []core.BrandRecord) (*Report, error) {
	report := &Report{Attempted: len(records)}

	outcomes := p.Embed(ctx, records)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	entries := make([]*core.IndexEntry, 0, len(outcomes))
	for _, outcome := range outcomes {
		if !outcome.OK() {
			p.logger.Warn("skipping brand", "position", outcome.Position,
				"brand", outcome.Record.BrandName, "err", outcome.Err)
			report.Skips = append(report.Skips, Skip{
				Position:  outcome.Position,
				BrandName: outcome.Record.BrandName,
				Reason:    outcome.Err,
			})
			continue
		}
		entries = append(entries, outcome.Entry)
	}
	report.Embedded = len(entries)
	report.Skipped = len(report.Skips)

	entries = p.latestByID(entries)
	report.Replaced = report.Embedded - len(entries)

	for batch, start := 0, 0; start < len(entries); batch, start = batch+1, start+p.batchSize {
		end := min(start+p.batchSize, len(entries))
		if err := p.upload(ctx, batch, entries[start:end]); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			report.FailedBatches = append(report.FailedBatches, err)
			continue
		}
		report.Uploaded += end - start
	}

	p.logger.Info("ingestion complete", "attempted", report.Attempted, "embedded", report.Embedded,
		"skipped", report.Skipped, "replaced", report.Replaced, "uploaded", report.Uploaded, "failedBatches", len(report.FailedBatches))
	return report, nil
}

// latestByID keeps the last entry for each id, in catalog order. Brand names
// that normalize to the same id would otherwise overwrite each other inside
// the index while being counted twice.
func (p *Pipeline) latestByID(entries []*core.IndexEntry) []*core.IndexEntry {
	last := make(map[string]int, len(entries))
	for i, entry := range entries {
		last[entry.ID] = i
	}
	if len(last) == len(entries) {
		return entries
	}

	kept := make([]*core.IndexEntry, 0, len(last))
	for i, entry := range entries {
		if last[entry.ID] != i {
			p.logger.Warn("brand replaced by a later record with the same id",
				"brand", entry.Metadata.Name, "id", entry.ID)
			continue
		}
		kept = append(kept, entry)
	}
	return kept
}

func (p *Pipeline) upload(ctx context.Context, batch int, entries []*core.IndexEntry) *IndexUploadError {
	attempts, err := p.retryPolicy.Do(ctx, func(attempt int) error {
		if attempt > 1 {
			p.logger.Info("retrying batch upload", "batch", batch, "attempt", attempt)
		}
		return p.index.Upsert(ctx, entries...)
	})
	if err != nil {
		p.logger.Error("batch upload failed", "batch", batch, "size", len(entries), "attempts", attempts, "err", err)
		return &IndexUploadError{Batch: batch, Size: len(entries), Attempts: attempts, Err: err}
	}
	p.logger.Debug("uploaded batch", "batch", batch, "size", len(entries))
	return nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
