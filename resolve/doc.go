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


// Package resolve matches compliance requirements against the indexed
// documentation.
//
// A resolution combines four retrieval strategies:
//   - Exact regulatory reference membership (direct matches)
//   - Free-text relevance search (related matches)
//   - Suggested policy number checks, recording an explicit gap for
//     every suggested policy with no indexed documentation
//   - Guidance keyword lookup against a fixed compliance vocabulary
//
// Results are deduplicated across strategies and ranked by relevance.
package resolve
