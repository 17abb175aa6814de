package ingestion

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/brandmatch/ai"
	"github.com/poiesic/brandmatch/core"
	"github.com/poiesic/brandmatch/progress"
)

// embeddingProcessor turns catalog records into index entries.
type embeddingProcessor struct {
	gateway   *ai.Gateway
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

func newEmbeddingProcessor(gateway *ai.Gateway, pool *ants.Pool, batchSize int, logger *slog.Logger) *embeddingProcessor {
	return &embeddingProcessor{
		gateway:   gateway,
		pool:      pool,
		batchSize: batchSize,
		logger:    logger.With("processor", "embeddings"),
	}
}

// process embeds valid records in groups of batchSize on the worker pool.
// The returned outcomes are in catalog order regardless of completion order.
func (ep *embeddingProcessor) process(ctx context.Context, records []core.BrandRecord, tracker *progress.Tracker) []Outcome {
	ep.logger.Info("processing records for embeddings", "records", len(records), "batchSize", ep.batchSize)

	outcomes := make([]Outcome, len(records))
	pending := make([]int, 0, len(records))
	for i := range records {
		outcomes[i] = Outcome{Position: i, Record: &records[i]}
		if err := core.ValidateBrandRecord(&records[i]); err != nil {
			outcomes[i].Err = err
			tracker.Increment(1)
			continue
		}
		pending = append(pending, i)
	}

	var wg sync.WaitGroup
	for start := 0; start < len(pending); start += ep.batchSize {
		group := pending[start:min(start+ep.batchSize, len(pending))]

		wg.Add(1)
		err := ep.pool.Submit(func() {
			defer wg.Done()
			defer tracker.Increment(len(group))
			ep.embedGroup(ctx, records, group, outcomes)
		})
		if err != nil {
			wg.Done()
			tracker.Increment(len(group))
			for _, i := range group {
				outcomes[i].Err = err
			}
		}
	}

	wg.Wait()
	return outcomes
}

// embedGroup embeds the records at the given positions with one batch call.
// When the batch fails it embeds each record on its own so a single bad
// record only costs itself.
func (ep *embeddingProcessor) embedGroup(ctx context.Context, records []core.BrandRecord, group []int, outcomes []Outcome) {
	if len(group) > 1 {
		texts := make([]string, len(group))
		for j, i := range group {
			texts[j] = records[i].EmbeddingText()
		}
		vectors, err := ep.gateway.EmbedBatch(ctx, texts)
		if err == nil {
			for j, i := range group {
				outcomes[i].Entry = newEntry(&records[i], vectors[j])
			}
			return
		}
		ep.logger.Debug("batch embedding failed, embedding records individually", "size", len(group), "err", err)
	}

	for _, i := range group {
		outcomes[i].Entry, outcomes[i].Err = ep.embed(ctx, &records[i])
	}
}

func (ep *embeddingProcessor) embed(ctx context.Context, record *core.BrandRecord) (*core.IndexEntry, error) {
	vector, err := ep.gateway.Embed(ctx, record.EmbeddingText())
	if err != nil {
		return nil, err
	}
	return newEntry(record, vector), nil
}

func newEntry(record *core.BrandRecord, vector []float32) *core.IndexEntry {
	return &core.IndexEntry{
		ID:       core.NormalizeID(record.BrandName),
		Vector:   vector,
		Metadata: record.Metadata(),
	}
}
