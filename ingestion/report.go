package ingestion

import "github.com/poiesic/brandmatch/core"

// Outcome is the result of preparing one catalog record for the index.
// Exactly one of Entry and Err is set.
type Outcome struct {
	Position int
	Record   *core.BrandRecord
	Entry    *core.IndexEntry
	Err      error
}

// OK reports whether the record produced an index entry.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Entry != nil
}

// Skip describes a record left out of the index.
type Skip struct {
	Position  int
	BrandName string
	Reason    error
}

// Report summarizes an ingestion run.
// Uploaded counts distinct index entries; Replaced counts embedded records
// that were dropped because a later record in the catalog has the same id.
type Report struct {
	Attempted     int
	Embedded      int
	Skipped       int
	Replaced      int
	Uploaded      int
	FailedBatches []*IndexUploadError
	Skips         []Skip
}

// Failed reports whether any batch could not be uploaded.
func (r *Report) Failed() bool {
	return len(r.FailedBatches) > 0
}
