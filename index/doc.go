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

// Package index defines the vector index used to store and search brand
// embeddings.
//
// Two backends are provided:
//
//   - index/badger: an embedded BadgerDB store with exact cosine search,
//     suitable for local catalogs and tests
//   - index/qdrant: a Qdrant collection reached over gRPC
//
// Both treat a nil or empty *core.FilterSpec as "no filtering".
package index
