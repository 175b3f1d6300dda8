package hnsw

import (
	"sort"
	"sync/atomic"

	"github.com/hupe1980/vecdb/queue"
)

// Result is a single ranked match from a search: an external vector id and its score in
// "higher is better" space.
type Result struct {
	ID    uint64
	Score float32
}

// Search performs a top-k approximate nearest-neighbor search with beam width
// max(ef, k). Results are truncated to k and sorted strictly descending by score, with
// ties broken by ascending id for reproducibility.
func (idx *Index) Search(query []float32, k, ef int) ([]Result, error) {
	if len(query) != idx.dimension {
		return nil, &ErrDimensionMismatch{Expected: idx.dimension, Actual: len(query)}
	}
	if !idx.IntegrityOK() {
		return nil, ErrIntegrityViolation
	}
	if idx.entryPoint == noEntry {
		return nil, ErrEmpty
	}

	atomic.AddUint64(&idx.searchCount, 1)

	entry := uint32(idx.entryPoint)
	entryScore, err := idx.score(idx.nodes[entry].Vector, query)
	if err != nil {
		return nil, err
	}

	curr, currScore, err := idx.greedyDescend(query, entry, entryScore, idx.maxLevel, 1)
	if err != nil {
		return nil, err
	}

	if ef <= 0 {
		ef = idx.opts.EFSearch
	}
	width := ef
	if k > width {
		width = k
	}

	top := queue.New(true, 0)
	if err := idx.searchLayer(query, curr, currScore, top, width, 0); err != nil {
		return nil, err
	}

	items := queue.Drain(top)
	results := make([]Result, 0, min(k, len(items)))
	for _, item := range items {
		if len(results) >= k {
			break
		}
		results = append(results, Result{ID: idx.nodes[item.Node].ID, Score: item.Score})
	}

	sortResults(results)

	return results, nil
}

// BruteSearch performs an exhaustive O(N) scan over every live node of the graph,
// returning the exact top-k under the same score convention as Search. The vectorlog
// fallback path does not call it; it scans the log's own records instead.
func (idx *Index) BruteSearch(query []float32, k int) ([]Result, error) {
	if len(query) != idx.dimension {
		return nil, &ErrDimensionMismatch{Expected: idx.dimension, Actual: len(query)}
	}
	if idx.liveCount == 0 {
		return nil, ErrEmpty
	}

	results := make([]Result, 0, idx.liveCount)
	for i, node := range idx.nodes {
		if idx.tombstones.Test(uint(i)) {
			continue
		}
		s, err := idx.score(query, node.Vector)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{ID: node.ID, Score: s})
	}

	sortResults(results)

	if len(results) > k {
		results = results[:k]
	}

	return results, nil
}

func sortResults(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
}

