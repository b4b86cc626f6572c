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


// Package normalize canonicalizes noisy entity mentions and relation labels.
//
// All functions are pure and deterministic over their lookup tables, so the
// same raw mention always folds to the same canonical form. The folding
// rules (case folding, separator equivalence, punctuation stripping) are the
// single source of truth for entity identity: "INSAT-3D", "INSAT 3D" and
// "insat_3d" all fold to "insat 3d".
//
// Relation labels additionally pass through a SynonymTable that maps known
// synonym verbs onto one canonical predicate. The table contents are
// configuration, not algorithm; DefaultSynonyms is only a seed.
package normalize
