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

// Package retrieve provides hybrid retrieval over the knowledge graph and
// the passage index.
//
// The Retriever type combines two retrieval modes for each query:
//   - Structured context from a bounded subgraph expansion
//   - Unstructured context from vector similarity over embedded passages
//
// Results are fused into a single context payload with structured facts
// first, passages deduplicated against relations already present in the
// subgraph, and a combined length ceiling. Either source may come back
// empty; retrieval degrades to the other rather than failing, and only
// reports ErrNoContext when both are empty.
package retrieve
