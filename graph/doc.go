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

// Package graph provides the canonical knowledge graph and its traversal.
//
// The Store type applies normalization policy on top of a storage.GraphRepository:
// raw entity mentions are folded into canonical keys, aliases are merged
// append-only, and relations are deduplicated on their canonical
// (subject, predicate, object) triple.
//
// The Expander type matches free-text queries against entity keys and runs
// a bounded breadth-first traversal from the matched seeds, producing a
// connected subgraph with per-node depth and seed tags.
package graph
