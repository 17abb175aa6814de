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

// Package catalog loads brand catalogs from JSON or CSV files and exports
// embedded catalogs back to CSV.
//
// A JSON catalog is an array of objects with the fields brand_name,
// processed_text, category, description, followers, region, founded and
// price_level. A CSV catalog carries the same fields as header columns;
// headers are matched case-insensitively and "Brand Name", "brand-name" and
// "brand_name" are equivalent.
package catalog
