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

// Package ai provides abstractions for the embedding service used by brandmatch.
//
// The core pipelines depend on the Embedder interface and on Gateway, never on
// a concrete model client.
//
// # Design Principles
//
// The package is designed around three pieces:
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Owns an Embedder and its lifecycle
//   - Gateway: Wraps an Embedder, enforces the configured dimension and
//     reports each failure as an *EmbeddingError
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder) return
// INTERFACE types so callers depend on the abstraction.
//
//	provider, err := openai.NewProvider(config)  // returns ai.AIProvider
//
// Test utility constructors (mock.NewMockEmbedder) return CONCRETE types to
// enable test assertions and behavior injection.
//
//	mockEmbed := mock.NewMockEmbedder()  // returns *mock.MockEmbedder
//	count := mockEmbed.CallCount()       // test assertion
//
// # Usage Example
//
//	config := ai.NewConfig(ai.WithAPIKey(os.Getenv("OPENAI_API_KEY")))
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	gateway, err := ai.NewGateway(provider.Embedder(), config.Dimension)
//	vector, err := gateway.Embed(ctx, "eco-friendly toy brand")
//	var embedErr *ai.EmbeddingError
//	if errors.As(err, &embedErr) {
//	    // ask the user to try again
//	}
package ai
