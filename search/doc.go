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


// Package search provides relevance scoring and ranked retrieval over
// indexed chunks.
//
// The Score function is a deterministic heuristic combining:
//   - Exact phrase matches in content and titles
//   - Per-term matches in titles, section titles, keywords,
//     regulatory references, and content
//
// The Searcher type orchestrates scan, filter, parallel score, rank,
// and limit over a chunk repository. It deliberately performs a full
// scan per query rather than maintaining an inverted index.
package search
