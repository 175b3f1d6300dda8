// Package engine is the embedding-facing façade over a vectorlog.Log: it owns
// configuration validation, the mutation mutex and search read-write lock described by
// the concurrency model, and translates vectorlog's sentinel errors into the stable
// integer error-code taxonomy surfaced to callers.
package engine
