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

// Package ingestion builds the knowledge graph and the passage index.
//
// The Pipeline type accepts two kinds of input:
//
//   - Raw triples, applied sequentially against the graph store with
//     malformed entries skipped and counted
//   - Free-text documents, chunked with overlap and optionally run through
//     the triple extractor before the chunks are indexed as passages
//
// Graph writes are synchronous and single-writer. Passage embedding is the
// expensive part and runs asynchronously on a worker pool; embedding
// failures are logged and leave the passage unvectorized rather than
// failing the ingestion call.
package ingestion
