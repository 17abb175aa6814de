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

// Package search answers free-text brand queries against a vector index.
//
// The Searcher type runs the query pipeline:
//   - Embedding the query text through the embedding gateway
//   - Issuing a single nearest-neighbor query with an optional filter
//
// Consolidate then collapses the raw matches to one ranked result per brand.
// Query-path embedding failures are returned to the caller and never retried.
package search
