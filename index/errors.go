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

package index

import "errors"

var (
	// ErrNotFound indicates the collection has not been created.
	ErrNotFound = errors.New("index not found")

	// ErrDimensionMismatch indicates a vector whose length differs from the collection's.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrUnsupportedMetric indicates a metric the backend cannot rank by.
	ErrUnsupportedMetric = errors.New("unsupported metric")

	// ErrInvalidTopK indicates a result count below one.
	ErrInvalidTopK = errors.New("topK must be at least 1")

	// ErrInvalidDimension indicates a non-positive collection dimension.
	ErrInvalidDimension = errors.New("dimension must be positive")
)
