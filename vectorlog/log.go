package vectorlog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/hupe1980/vecdb/fsutil"
	"github.com/hupe1980/vecdb/hnsw"
	"github.com/hupe1980/vecdb/metric"
)

// Log is the durable, append-only vector store: a file of fixed-layout records, a
// chained-hash key index accelerating id lookup, and an HNSW graph accelerating search.
// It performs no internal locking of its own — per the engine's latch model, callers
// (the engine façade) are responsible for serializing mutations and coordinating them
// with concurrent searches.
type Log struct {
	file   *os.File
	path   string
	logger *slog.Logger

	dimension  int
	metricType metric.Type

	nextID            uint64
	createdTimestamp  uint64
	modifiedTimestamp uint64

	keys  *keyIndex
	index *hnsw.Index

	// hnswStale records that the most recent HNSW mutation failed and the graph may be
	// missing a live vector until the next Open rebuilds it wholesale.
	hnswStale bool

	insertCount uint64
	deleteCount uint64
	searchCount uint64

	closed bool
}

// Create makes a new vector log at path. It refuses if the path already exists.
func Create(path string, dimension int, m metric.Type, logger *slog.Logger) (*Log, error) {
	if dimension <= 0 {
		return nil, ErrInvalidArgument
	}
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := fsutil.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("vectorlog: ensure directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	now := uint64(time.Now().Unix())
	l := &Log{
		file:              f,
		path:              path,
		logger:            logger,
		dimension:         dimension,
		metricType:        m,
		nextID:            1,
		createdTimestamp:  now,
		modifiedTimestamp: now,
		keys:              newKeyIndex(),
		index:             hnsw.New(dimension, withMetric(m)),
	}

	if err := l.writeHeader(); err != nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}

	return l, nil
}

func withMetric(m metric.Type) hnsw.Options {
	opts := hnsw.DefaultOptions
	opts.Metric = m
	return opts
}

// Open opens an existing vector log, replaying every record to rebuild the key index
// and the HNSW graph from scratch.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrDBNotFound
		}
		return nil, err
	}

	br := bufio.NewReader(f)
	header, err := readFileHeader(br)
	if err != nil {
		f.Close()
		if errors.Is(err, ErrInvalidMagic) || errors.Is(err, ErrUnsupportedVersion) {
			return nil, ErrCorrupt
		}
		return nil, err
	}

	l := &Log{
		file:              f,
		path:              path,
		logger:            logger,
		dimension:         int(header.Dimension),
		metricType:        metric.Type(header.DefaultSimilarity),
		nextID:            header.NextID,
		createdTimestamp:  header.CreatedTimestamp,
		modifiedTimestamp: header.ModifiedTimestamp,
		keys:              newKeyIndex(),
		index:             hnsw.New(int(header.Dimension), withMetric(metric.Type(header.DefaultSimilarity))),
	}

	offset := int64(FileHeaderSize)
	for {
		rh, err := readRecordHeader(br)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break // trailing partial record tolerated, treated as absent.
			}
			f.Close()
			return nil, ErrCorrupt
		}
		recordStart := offset
		offset += RecordHeaderSize

		payloadSize := int64(rh.Dimension) * 4
		if rh.Tombstone != 0 {
			if _, err := br.Discard(int(payloadSize)); err != nil {
				break
			}
			offset += payloadSize
			continue
		}

		vec, err := readVector(br, rh.Dimension)
		if err != nil {
			break // short read on the payload: trailing partial record, treated as absent.
		}
		offset += payloadSize

		l.keys.insert(rh.ID, recordStart, rh.Dimension)
		if _, err := l.index.Insert(rh.ID, vec); err != nil {
			l.logger.Warn("vectorlog: failed to rebuild HNSW entry on open",
				"id", rh.ID, "error", err)
		}
	}

	return l, nil
}

func (l *Log) writeHeader() error {
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	h := &fileHeader{
		Magic:             Magic,
		Version:           Version,
		Dimension:         uint32(l.dimension),
		DefaultSimilarity: similarityCode(l.metricType),
		VectorCount:       uint64(l.keys.liveCount()),
		NextID:            l.nextID,
		CreatedTimestamp:  l.createdTimestamp,
		ModifiedTimestamp: l.modifiedTimestamp,
	}
	if err := h.writeTo(l.file); err != nil {
		return err
	}
	return l.file.Sync()
}

// Insert appends a new record for id. It rejects a duplicate live id, but permits
// re-inserting an id that was previously deleted: the new record becomes the current
// one for id, and the tombstoned prior record is left on disk.
func (l *Log) Insert(id uint64, vector []float32) error {
	if l.closed {
		return ErrClosed
	}
	if len(vector) != l.dimension {
		return &ErrDimensionMismatch{Expected: l.dimension, Actual: len(vector)}
	}
	if l.keys.find(id) != nil {
		return ErrAlreadyExists
	}

	offset, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}

	rh := &recordHeader{
		ID:        id,
		Dimension: uint32(l.dimension),
		Timestamp: uint64(time.Now().Unix()),
		Tombstone: 0,
	}
	if err := rh.writeTo(l.file); err != nil {
		return err
	}
	if err := writeVector(l.file, vector); err != nil {
		return err
	}
	if err := l.file.Sync(); err != nil {
		return err
	}

	l.keys.insert(id, offset, uint32(l.dimension))

	if _, err := l.index.Insert(id, vector); err != nil {
		l.logger.Warn("vectorlog: HNSW insert failed, log entry kept, index flagged stale",
			"id", id, "error", err)
		l.hnswStale = true
	}

	if id >= l.nextID {
		l.nextID = id + 1
	}
	l.insertCount++
	l.modifiedTimestamp = uint64(time.Now().Unix())

	return nil
}

// Get returns a fresh copy of id's vector data, ErrNotFound if id is absent or
// tombstoned, or ErrInvalidArgument if id is zero.
func (l *Log) Get(id uint64) ([]float32, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if id == 0 {
		return nil, ErrInvalidArgument
	}

	entry := l.keys.find(id)
	if entry == nil {
		return nil, ErrNotFound
	}

	if _, err := l.file.Seek(entry.offset, io.SeekStart); err != nil {
		return nil, err
	}
	rh, err := readRecordHeader(l.file)
	if err != nil {
		return nil, err
	}
	if rh.Tombstone != 0 {
		// Raced with a concurrent delete between the key-index lookup and this read.
		return nil, ErrNotFound
	}

	return readVector(l.file, rh.Dimension)
}

// Delete tombstones id both in memory and on disk. It does not fail if HNSW removal
// errors; the HNSW entry is simply flagged stale.
func (l *Log) Delete(id uint64) error {
	if l.closed {
		return ErrClosed
	}
	if id == 0 {
		return ErrInvalidArgument
	}

	entry := l.keys.find(id)
	if entry == nil {
		return ErrNotFound
	}

	l.keys.tombstone(id)

	if err := l.index.Delete(id); err != nil {
		l.logger.Warn("vectorlog: HNSW delete failed, entry flagged stale", "id", id, "error", err)
		l.hnswStale = true
	}

	tombstoneOffset := entry.offset + 20 // id(8) + dimension(4) + timestamp(8)
	if _, err := l.file.Seek(tombstoneOffset, io.SeekStart); err != nil {
		return err
	}
	if _, err := l.file.Write([]byte{1}); err != nil {
		return err
	}
	if err := l.file.Sync(); err != nil {
		return err
	}

	l.deleteCount++
	l.modifiedTimestamp = uint64(time.Now().Unix())

	return nil
}

// SearchResult is a single ranked match: an external id and its score in "higher is
// better" space.
type SearchResult struct {
	ID    uint64
	Score float32
}

// Search runs a top-k nearest-neighbor search, trying the HNSW graph first and falling
// back to an exhaustive scan of every live record when the graph errors or returns
// nothing on a non-empty store. minSimilarity filters results below the threshold
// (ignored when exactly 0).
func (l *Log) Search(query []float32, k int, minSimilarity float32) ([]SearchResult, error) {
	if l.closed {
		return nil, ErrClosed
	}
	if len(query) != l.dimension {
		return nil, &ErrDimensionMismatch{Expected: l.dimension, Actual: len(query)}
	}
	if k <= 0 || k > 10000 {
		return nil, ErrInvalidArgument
	}
	if minSimilarity < -1.0 || minSimilarity > 1.0 {
		return nil, ErrInvalidArgument
	}

	l.searchCount++

	if l.keys.liveCount() == 0 {
		return []SearchResult{}, nil
	}

	results, err := l.index.Search(query, k, 2*k)
	if err == nil && len(results) > 0 {
		return filterResults(results, minSimilarity, k), nil
	}
	if err != nil {
		l.logger.Warn("vectorlog: HNSW search failed, falling back to brute force", "error", err)
	}

	return l.bruteForceSearch(query, k, minSimilarity)
}

func filterResults(in []hnsw.Result, minSimilarity float32, k int) []SearchResult {
	out := make([]SearchResult, 0, len(in))
	for _, r := range in {
		if minSimilarity != 0 && r.Score < minSimilarity {
			continue
		}
		out = append(out, SearchResult{ID: r.ID, Score: r.Score})
		if len(out) >= k {
			break
		}
	}
	return out
}

func (l *Log) bruteForceSearch(query []float32, k int, minSimilarity float32) ([]SearchResult, error) {
	scoreFunc := metric.FuncFor(l.metricType)
	negate := l.metricType == metric.Euclidean

	results := make([]SearchResult, 0, l.keys.liveCount())
	var readErr error
	l.keys.rangeLive(func(e *keyEntry) bool {
		if _, err := l.file.Seek(e.offset, io.SeekStart); err != nil {
			readErr = err
			return false
		}
		rh, err := readRecordHeader(l.file)
		if err != nil {
			readErr = err
			return false
		}
		if rh.Tombstone != 0 {
			return true
		}
		vec, err := readVector(l.file, rh.Dimension)
		if err != nil {
			readErr = err
			return false
		}

		score, err := scoreFunc(query, vec)
		if err != nil {
			return true
		}
		if negate {
			score = -score
		}
		if minSimilarity != 0 && score < minSimilarity {
			return true
		}
		results = append(results, SearchResult{ID: e.id, Score: score})
		return true
	})
	if readErr != nil {
		return nil, readErr
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Stats is a point-in-time snapshot of log-level statistics.
type Stats struct {
	LiveCount   int
	Dimension   int
	Metric      metric.Type
	Path        string
	SizeBytes   int64
	InsertCount uint64
	DeleteCount uint64
	SearchCount uint64
	HNSWStale   bool
}

// Stats reports live-count, on-disk size, declared dimension and metric, and the path.
func (l *Log) Stats() (Stats, error) {
	info, err := l.file.Stat()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		LiveCount:   l.keys.liveCount(),
		Dimension:   l.dimension,
		Metric:      l.metricType,
		Path:        l.path,
		SizeBytes:   info.Size(),
		InsertCount: l.insertCount,
		DeleteCount: l.deleteCount,
		SearchCount: l.searchCount,
		HNSWStale:   l.hnswStale,
	}, nil
}

// Close rewrites the header with the current live-count and next-id, flushes, and
// closes the file. A double close returns ErrClosed.
func (l *Log) Close() error {
	if l.closed {
		return ErrClosed
	}
	if err := l.writeHeader(); err != nil {
		return err
	}
	err := l.file.Close()
	l.closed = true
	return err
}

// Repair clears the HNSW integrity flag (sweeping every edge and re-electing the entry
// point) and clears the stale-HNSW flag left by a prior warn-and-continue failure.
func (l *Log) Repair() {
	l.index.Repair()
	l.hnswStale = false
}

// HNSWStale reports whether a previous HNSW mutation failed, leaving the graph possibly
// missing a live vector until the next reopen rebuilds it. Repair clears this flag but
// does not re-insert missing vectors.
func (l *Log) HNSWStale() bool { return l.hnswStale }

// Drop removes the log file at path. It fails if the file does not exist or cannot be
// removed, matching the source's unlink-and-propagate-errno contract.
func Drop(path string) error {
	if err := os.Remove(path); err != nil {
		return err
	}
	return nil
}
