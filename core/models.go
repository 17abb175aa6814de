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

package core

// Display defaults used when a matched entry lacks a field.
const (
	UnknownBrand   = "Unknown Brand"
	NoCategoryInfo = "No Category Info"
	NoDescription  = "No Description Available"
	NotAvailable   = "N/A"
)

// BrandRecord is a single catalog entry. Optional fields are nil when the
// catalog does not carry them, which keeps "absent" distinct from zero.
type BrandRecord struct {
	BrandName     string  `json:"brand_name"`
	ProcessedText string  `json:"processed_text"`
	Category      *string `json:"category,omitempty"`
	Description   *string `json:"description,omitempty"`
	Followers     *int64  `json:"followers,omitempty"`
	Region        *string `json:"region,omitempty"`
	Founded       *int    `json:"founded,omitempty"`
	PriceLevel    *string `json:"price_level,omitempty"`
}

// EmbeddingText returns the text that represents the brand in vector space.
// Records without processed text fall back to their description.
func (r *BrandRecord) EmbeddingText() string {
	if r.ProcessedText != "" {
		return r.ProcessedText
	}
	if r.Description != nil {
		return *r.Description
	}
	return ""
}

// Metadata returns the display and filter fields stored alongside the vector.
func (r *BrandRecord) Metadata() Metadata {
	return Metadata{
		Name:        r.BrandName,
		Category:    r.Category,
		Description: r.Description,
		Followers:   r.Followers,
		Region:      r.Region,
		Founded:     r.Founded,
		PriceLevel:  r.PriceLevel,
	}
}

// Metadata is the subset of BrandRecord persisted with each vector.
type Metadata struct {
	Name        string  `json:"name"`
	Category    *string `json:"category,omitempty"`
	Description *string `json:"description,omitempty"`
	Followers   *int64  `json:"followers,omitempty"`
	Region      *string `json:"region,omitempty"`
	Founded     *int    `json:"founded,omitempty"`
	PriceLevel  *string `json:"price_level,omitempty"`
}

// IndexEntry is the unit stored in a vector index. Upserting an entry with an
// existing ID replaces it.
type IndexEntry struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// Match is a single ranked result returned by an index query.
type Match struct {
	ID        string
	BrandName string
	Score     float32
	Metadata  Metadata
}

// ConsolidatedResult is the per-brand entry returned to callers, with every
// field rendered for display.
type ConsolidatedResult struct {
	BrandName   string
	BestScore   float32
	Category    string
	Description string
	Followers   string
	Region      string
	Founded     string
	PriceLevel  string
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// Int64Ptr returns a pointer to n.
func Int64Ptr(n int64) *int64 { return &n }

// IntPtr returns a pointer to n.
func IntPtr(n int) *int { return &n }
