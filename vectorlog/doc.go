// Package vectorlog implements the durable, append-only vector log: the on-disk
// representation of every vector ever written (live or tombstoned), paired with an
// in-memory chained-hash key index mapping an id to its record offset and an HNSW graph
// used to accelerate search.
//
// The log is the source of truth. The key index and the HNSW graph are accelerators
// rebuilt wholesale from the log on Open; a failed HNSW mutation never fails the log
// mutation that triggered it (see Insert and Delete), trading ANN staleness for write
// liveness. Search always has a brute-force fallback over the log's live records.
package vectorlog
