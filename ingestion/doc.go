// Package ingestion embeds a brand catalog and loads it into a vector index.
//
// The Pipeline type manages the ingestion workflow:
//   - Validating records and deriving their index ids
//   - Embedding each record concurrently through a worker pool
//   - Upserting the embedded entries in fixed-size batches with retry
//
// Per-record failures are reported as skips and failed batches as
// *IndexUploadError values; neither stops the run. Re-ingesting the same
// catalog overwrites the same entries.
package ingestion
