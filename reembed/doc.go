// Package reembed provides maintenance operations for an existing database:
// reembedding stored passages with a new or updated embedding model, and
// rebuilding the knowledge graph from stored document chunks.
//
// Both operations run in batches with progress tracking and retry logic
// with exponential backoff. Vectors are normalized after embedding to ensure
// compatibility with cosine similarity search.
package reembed
