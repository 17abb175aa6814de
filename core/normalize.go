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

import "strings"

// NormalizeID converts a brand display name into an index-safe identifier.
// Every rune outside printable ASCII (0x20-0x7E) is dropped, then spaces are
// replaced with underscores. The result may be empty; callers must guard.
// NormalizeID is idempotent.
func NormalizeID(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			continue
		}
		if r == ' ' {
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}
