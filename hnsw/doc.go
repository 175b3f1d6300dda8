// Package hnsw implements an in-memory Hierarchical Navigable Small-World graph: a
// multi-level proximity graph supporting approximate k-nearest-neighbor search in expected
// logarithmic time, plus incremental insertion, tombstone-based deletion with edge repair,
// and a diagnostic binary persistence format.
//
// The index carries no locking of its own — callers (the engine façade) are responsible for
// serializing mutations and coordinating them against concurrent searches. Every similarity
// value handled by this package is in "higher is better" score space: Euclidean distance is
// negated at the boundary so cosine, dot-product, and Euclidean all compare uniformly.
package hnsw
