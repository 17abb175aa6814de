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

package search

import "errors"

var (
	// ErrEmptyQuery is returned when the query text is empty or whitespace only.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidTopK is returned when fewer than one result is requested.
	ErrInvalidTopK = errors.New("topK must be at least 1")

	// ErrGatewayRequired is returned when an embedding gateway is not provided.
	ErrGatewayRequired = errors.New("embedding gateway required")

	// ErrIndexRequired is returned when a vector index is not provided.
	ErrIndexRequired = errors.New("vector index required")
)
