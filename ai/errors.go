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

package ai

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText indicates a blank text was submitted for embedding.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyEmbedding indicates the model returned no vector.
	ErrEmptyEmbedding = errors.New("embedding service returned no vector")

	// ErrDimensionMismatch indicates a vector of unexpected length.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrVectorCountMismatch indicates a batch call returned the wrong number of vectors.
	ErrVectorCountMismatch = errors.New("embedding count mismatch")

	// ErrInvalidDimension indicates a non-positive dimension was configured.
	ErrInvalidDimension = errors.New("dimension must be positive")

	// ErrNilEmbedder indicates a gateway was built without an embedder.
	ErrNilEmbedder = errors.New("embedder is required")
)

// EmbeddingError reports a failed embedding call together with the text that
// was being embedded.
type EmbeddingError struct {
	Text string
	Err  error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %q: %v", preview(e.Text, 48), e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
