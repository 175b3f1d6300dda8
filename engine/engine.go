package engine

import (
	"context"
	"os"
	"sync"

	"github.com/hupe1980/vecdb/fsutil"
	"github.com/hupe1980/vecdb/metric"
	"github.com/hupe1980/vecdb/vectorlog"
)

// Engine is the embedding-facing façade: the sole owner of the mutation mutex and the
// search read-write lock described by the concurrency model, wrapping a single
// vectorlog.Log.
type Engine struct {
	mu       sync.Mutex   // serializes all writers (insert, delete, close, repair).
	searchMu sync.RWMutex // shared by searches, exclusive by writers mutating the HNSW graph.

	cfg      Config
	log      *vectorlog.Log
	logger   *Logger
	lockFile *os.File // holds the advisory flock for this process's lifetime over the store.

	closed bool
}

// Create validates cfg and makes a new engine backed by a fresh vector log. It refuses
// if cfg is invalid or the target path already exists. The returned Engine holds an
// advisory exclusive lock on the store file for as long as it stays open, enforcing the
// "no multi-process sharing of a single store" invariant.
func Create(cfg Config, logger *Logger) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NoopLogger()
	}

	l, err := vectorlog.Create(cfg.Path, cfg.Dimension, cfg.Metric, logger.Logger)
	if err != nil {
		return nil, translate(err)
	}

	lockFile, err := fsutil.Lock(cfg.Path)
	if err != nil {
		l.Close()
		return nil, translate(err)
	}

	return &Engine{cfg: cfg, log: l, logger: logger, lockFile: lockFile}, nil
}

// Open opens an existing engine, rebuilding the key index and HNSW graph from the log.
// It takes the same advisory exclusive lock as Create, refusing to open a store another
// process already holds open. The log is opened (and its existence checked) before the
// lock is taken, so a missing path still reports ErrDBNotFound rather than creating it.
func Open(path string, logger *Logger) (*Engine, error) {
	if logger == nil {
		logger = NoopLogger()
	}

	l, err := vectorlog.Open(path, logger.Logger)
	if err != nil {
		return nil, translate(err)
	}

	lockFile, err := fsutil.Lock(path)
	if err != nil {
		l.Close()
		return nil, translate(err)
	}

	stats, err := l.Stats()
	if err != nil {
		l.Close()
		fsutil.Unlock(lockFile)
		return nil, translate(err)
	}

	return &Engine{
		cfg: Config{
			Path:      path,
			Dimension: stats.Dimension,
			Metric:    stats.Metric,
		},
		log:      l,
		logger:   logger,
		lockFile: lockFile,
	}, nil
}

// Insert adds a vector under the given external id. It acquires the mutation mutex and
// the search lock exclusively, since it mutates the HNSW graph.
func (e *Engine) Insert(id uint64, vector []float32) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	err := e.log.Insert(id, vector)
	e.logger.LogInsert(context.Background(), id, len(vector), err)
	if err == nil && e.log.HNSWStale() {
		e.logger.LogHNSWStale(context.Background(), "insert", nil)
	}

	return translate(err)
}

// Get returns a fresh copy of id's vector data.
func (e *Engine) Get(id uint64) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}

	vec, err := e.log.Get(id)
	e.logger.LogGet(context.Background(), id, err)

	return vec, translate(err)
}

// Delete tombstones id. It acquires the search lock exclusively, since it mutates the
// HNSW graph.
func (e *Engine) Delete(id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	err := e.log.Delete(id)
	e.logger.LogDelete(context.Background(), id, err)
	if err == nil && e.log.HNSWStale() {
		e.logger.LogHNSWStale(context.Background(), "delete", nil)
	}

	return translate(err)
}

// Search runs a top-k nearest-neighbor search under the shared search lock, allowing
// many concurrent searches but none concurrent with a writer.
func (e *Engine) Search(query []float32, k int, minSimilarity float32) ([]vectorlog.SearchResult, error) {
	e.searchMu.RLock()
	defer e.searchMu.RUnlock()
	if e.closed {
		return nil, ErrClosed
	}

	results, err := e.log.Search(query, k, minSimilarity)
	e.logger.LogSearch(context.Background(), k, len(results), err)

	return results, translate(err)
}

// Repair sweeps the HNSW graph's edges, re-elects the entry point, and clears both the
// integrity flag and the stale-HNSW marker.
func (e *Engine) Repair() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	e.searchMu.Lock()
	defer e.searchMu.Unlock()

	e.log.Repair()
	e.logger.LogRepair(context.Background(), nil)

	return nil
}

// Stats is a point-in-time snapshot of engine-level statistics.
type Stats struct {
	LiveCount int
	Dimension int
	Metric    metric.Type
	Path      string
	SizeBytes int64
}

// Stats reports live-count, on-disk size, declared dimension and metric, and the path —
// available even when the HNSW graph is stale.
func (e *Engine) Stats() (Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Stats{}, ErrClosed
	}

	s, err := e.log.Stats()
	if err != nil {
		return Stats{}, translate(err)
	}

	return Stats{
		LiveCount: s.LiveCount,
		Dimension: s.Dimension,
		Metric:    s.Metric,
		Path:      s.Path,
		SizeBytes: s.SizeBytes,
	}, nil
}

// Close rewrites the header, closes the underlying log, and releases the store's
// advisory lock. A double close returns ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}

	err := e.log.Close()
	fsutil.Unlock(e.lockFile)
	e.closed = true

	return translate(err)
}

// Drop removes the engine's file at path. The engine must already be closed.
func Drop(path string) error {
	return translate(vectorlog.Drop(path))
}
