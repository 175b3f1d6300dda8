package hnsw

import (
	"container/heap"
	"errors"
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/vecdb/metric"
	"github.com/hupe1980/vecdb/queue"
)

// ErrDimensionMismatch is returned when an inserted or queried vector's length does not
// match the index's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return "hnsw: dimension mismatch"
}

// ErrIntegrityViolation is returned by every mutating operation while the integrity flag is
// set. Callers must run Repair before further writes succeed.
var ErrIntegrityViolation = errors.New("hnsw: integrity flag set, refusing mutation until repair")

// ErrEmpty is returned by search operations on an index with no live nodes.
var ErrEmpty = errors.New("hnsw: index is empty")

// ErrNotFound is returned when Delete cannot locate the given id.
var ErrNotFound = errors.New("hnsw: id not found")

// noEntry is the sentinel value for "no entry point" (an empty index).
const noEntry = -1

// Node is a single vertex of the graph: an external vector id, the level it was drawn at,
// its vector data, and one neighbor-index slice per level (0..Level inclusive). Neighbor
// slices hold indices into the index's nodes array, not vector ids.
type Node struct {
	ID          uint64
	Level       int
	Vector      []float32
	Connections [][]uint32
}

// Index is an in-memory HNSW graph. It carries no internal locking: callers are
// responsible for serializing mutations and coordinating them with concurrent searches.
type Index struct {
	dimension int
	opts      Options

	nodes      []*Node
	idToIndex  map[uint64]uint32
	tombstones *bitset.BitSet

	entryPoint int
	maxLevel   int
	liveCount  int

	rng *rand.Rand

	integrity atomic.Bool

	insertCount          uint64
	deleteCount          uint64
	searchCount          uint64
	distanceComputations uint64
}

// New creates an empty Index for the given dimension.
func New(dimension int, opts Options) *Index {
	opts = opts.withDefaults()
	return &Index{
		dimension:  dimension,
		opts:       opts,
		nodes:      nil,
		idToIndex:  make(map[uint64]uint32),
		tombstones: &bitset.BitSet{},
		entryPoint: noEntry,
		maxLevel:   0,
		rng:        rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // determinism across runs is not required
	}
}

// Dimension returns the configured vector dimension.
func (idx *Index) Dimension() int { return idx.dimension }

// Len returns the number of live (non-tombstoned) nodes.
func (idx *Index) Len() int { return idx.liveCount }

// IntegrityOK reports whether the integrity flag is currently clear.
func (idx *Index) IntegrityOK() bool { return !idx.integrity.Load() }

// score computes the similarity between two vectors in "higher is better" space,
// negating Euclidean distance per the spec's uniform-score convention, and bumps the
// distance-computation counter.
func (idx *Index) score(a, b []float32) (float32, error) {
	atomic.AddUint64(&idx.distanceComputations, 1)

	if idx.opts.Metric == metric.Euclidean {
		d, err := metric.EuclideanDistance(a, b)
		if err != nil {
			return 0, err
		}
		return -d, nil
	}

	return metric.FuncFor(idx.opts.Metric)(a, b)
}

func (idx *Index) maxConnections(level int) int {
	if level == 0 {
		return 2 * idx.opts.M
	}
	return idx.opts.M
}

func (idx *Index) drawLevel() int {
	level := int(math.Floor(-math.Log(idx.rng.Float64()) * idx.opts.LevelMult))
	if level > maxLevelCap {
		level = maxLevelCap
	}
	return level
}

// Insert adds a vector under the given external id, returning the internal node index it
// was stored at. It refuses to run while the integrity flag is set.
func (idx *Index) Insert(id uint64, vector []float32) (uint32, error) {
	if len(vector) != idx.dimension {
		return 0, &ErrDimensionMismatch{Expected: idx.dimension, Actual: len(vector)}
	}
	if !idx.IntegrityOK() {
		return 0, ErrIntegrityViolation
	}

	vec := make([]float32, len(vector))
	copy(vec, vector)

	level := idx.drawLevel()
	node := &Node{
		ID:          id,
		Level:       level,
		Vector:      vec,
		Connections: make([][]uint32, level+1),
	}

	newIndex := uint32(len(idx.nodes))

	if idx.entryPoint == noEntry {
		idx.nodes = append(idx.nodes, node)
		idx.idToIndex[id] = newIndex
		idx.entryPoint = int(newIndex)
		idx.maxLevel = level
		idx.liveCount++
		atomic.AddUint64(&idx.insertCount, 1)
		return newIndex, nil
	}

	entry := uint32(idx.entryPoint)
	entryScore, err := idx.score(idx.nodes[entry].Vector, vec)
	if err != nil {
		return 0, err
	}

	// Greedy 1-nearest descent from maxLevel down to level+1.
	curr, currScore, err := idx.greedyDescend(vec, entry, entryScore, idx.maxLevel, level+1)
	if err != nil {
		return 0, err
	}

	// Beam-search and link at every level from min(level, maxLevel) down to 0.
	for l := min(level, idx.maxLevel); l >= 0; l-- {
		top := queue.New(true, 0)
		if err := idx.searchLayer(vec, curr, currScore, top, idx.opts.EFConstruction, l); err != nil {
			return 0, err
		}

		idx.selectNeighbours(top, idx.opts.M)

		conns := make([]uint32, top.Len())
		items := queue.Drain(top)
		for i, item := range items {
			conns[i] = item.Node
		}
		node.Connections[l] = conns

		if len(items) > 0 {
			best := items[0] // Drain on a max-heap yields highest score first.
			curr, currScore = best.Node, best.Score
		}
	}

	idx.nodes = append(idx.nodes, node)
	idx.idToIndex[id] = newIndex

	for l := min(level, idx.maxLevel); l >= 0; l-- {
		for _, neighbour := range node.Connections[l] {
			if err := idx.link(neighbour, newIndex, l); err != nil {
				return 0, err
			}
		}
	}

	if level > idx.maxLevel {
		idx.entryPoint = int(newIndex)
		idx.maxLevel = level
	}

	idx.liveCount++
	atomic.AddUint64(&idx.insertCount, 1)

	return newIndex, nil
}

// greedyDescend performs a 1-nearest greedy walk at each level from startLevel down to
// and including stopLevel, matching step 3 of the spec's graph-add algorithm.
func (idx *Index) greedyDescend(query []float32, curr uint32, currScore float32, startLevel, stopLevel int) (uint32, float32, error) {
	for level := startLevel; level >= stopLevel; level-- {
		changed := true
		for changed {
			changed = false
			node := idx.nodes[curr]
			if level >= len(node.Connections) {
				continue
			}
			for _, neighbour := range node.Connections[level] {
				if idx.tombstones.Test(uint(neighbour)) {
					continue
				}
				s, err := idx.score(idx.nodes[neighbour].Vector, query)
				if err != nil {
					return 0, 0, err
				}
				if s > currScore {
					curr, currScore = neighbour, s
					changed = true
				}
			}
		}
	}
	return curr, currScore, nil
}

// link appends a back-edge from `from` to `to` at the given level, pruning down to the
// level's max connection count when the new edge overflows it.
func (idx *Index) link(from, to uint32, level int) error {
	node := idx.nodes[from]
	if level >= len(node.Connections) {
		return nil
	}

	node.Connections[level] = append(node.Connections[level], to)

	maxConns := idx.maxConnections(level)
	if len(node.Connections[level]) <= maxConns {
		return nil
	}

	top := queue.New(true, 0)
	for _, n := range node.Connections[level] {
		if idx.tombstones.Test(uint(n)) {
			continue
		}
		s, err := idx.score(node.Vector, idx.nodes[n].Vector)
		if err != nil {
			return err
		}
		heap.Push(top, &queue.Item{Node: n, Score: s})
	}

	idx.selectNeighbours(top, maxConns)

	items := queue.Drain(top)
	conns := make([]uint32, len(items))
	for i, item := range items {
		conns[i] = item.Node
	}
	node.Connections[level] = conns

	return nil
}

// selectNeighbours trims a max-heap of candidates down to at most M entries, using either
// the naive top-M-by-score rule or the heuristic diversity-aware rule.
func (idx *Index) selectNeighbours(top *queue.PriorityQueue, m int) {
	if idx.opts.Heuristic {
		idx.selectNeighboursHeuristic(top, m)
		return
	}
	items := queue.Drain(top) // best score first
	for _, item := range items[:min(m, len(items))] {
		heap.Push(top, item)
	}
}

// selectNeighboursHeuristic keeps diverse candidates: a candidate is kept if it is closer
// to the query than to every candidate already kept. If fewer than m are kept that way,
// the best of the rejected candidates fill the remaining slots.
func (idx *Index) selectNeighboursHeuristic(top *queue.PriorityQueue, m int) {
	if top.Len() <= m {
		return
	}

	candidates := queue.Drain(top) // top is a max-heap, so Drain yields best score first
	kept := make([]*queue.Item, 0, m)
	rest := make([]*queue.Item, 0, len(candidates))

	for _, c := range candidates {
		if len(kept) >= m {
			rest = append(rest, c)
			continue
		}
		diverse := true
		for _, k := range kept {
			s, err := idx.score(idx.nodes[k.Node].Vector, idx.nodes[c.Node].Vector)
			if err == nil && s > c.Score {
				diverse = false
				break
			}
		}
		if diverse {
			kept = append(kept, c)
		} else {
			rest = append(rest, c)
		}
	}

	for len(kept) < m && len(rest) > 0 {
		kept = append(kept, rest[0])
		rest = rest[1:]
	}

	for _, item := range kept {
		heap.Push(top, item)
	}
}

// searchLayer runs a beam search of width ef at the given level, starting from (entry,
// entryScore), accumulating results into top (a max-heap bounded to ef entries).
func (idx *Index) searchLayer(query []float32, entry uint32, entryScore float32, top *queue.PriorityQueue, ef int, level int) error {
	out := top
	top = queue.New(false, 0) // min-heap: Top is the worst of the best-so-far set

	visited := &bitset.BitSet{}
	visited.Set(uint(entry))

	candidates := queue.New(true, 0) // max-heap: best-unexplored first
	heap.Push(candidates, &queue.Item{Node: entry, Score: entryScore})
	heap.Push(top, &queue.Item{Node: entry, Score: entryScore})

	for candidates.Len() > 0 {
		worstBest := top.Top().Score

		c := heap.Pop(candidates).(*queue.Item)
		if c.Score < worstBest && top.Len() >= ef {
			break
		}

		node := idx.nodes[c.Node]
		if level >= len(node.Connections) {
			continue
		}

		for _, n := range node.Connections[level] {
			if visited.Test(uint(n)) {
				continue
			}
			visited.Set(uint(n))

			if idx.tombstones.Test(uint(n)) {
				continue
			}

			s, err := idx.score(query, idx.nodes[n].Vector)
			if err != nil {
				return err
			}

			item := &queue.Item{Node: n, Score: s}

			if top.Len() < ef {
				heap.Push(top, item)
				heap.Push(candidates, item)
			} else if s > top.Top().Score {
				heap.Pop(top)
				heap.Push(top, item)
				heap.Push(candidates, item)
			}
		}
	}

	for _, item := range queue.Drain(top) {
		heap.Push(out, item)
	}

	return nil
}
