package hnsw

import (
	"math"

	"github.com/hupe1980/vecdb/metric"
)

// maxLevelCap is the hard ceiling on a node's drawn level: levels 0..15, the 16 per-node
// level slots of the original implementation's HNSW_MAX_LEVEL.
const maxLevelCap = 15

// Options configures a new Index.
type Options struct {
	// M is the max number of connections per node at levels above 0. Level 0 caps at 2*M.
	M int

	// EFConstruction is the beam width used while linking a newly inserted node.
	EFConstruction int

	// EFSearch is the default beam width used at query time when the caller passes an ef
	// of zero or less to Search.
	EFSearch int

	// LevelMult is the level-generation normalization factor, conventionally 1/ln(2).
	LevelMult float64

	// Metric selects the similarity function. Euclidean is negated internally so that,
	// uniformly, higher score means more similar.
	Metric metric.Type

	// Heuristic selects the heuristic neighbor-selection algorithm over the naive
	// top-M-by-score selection. Both are valid; heuristic tends to produce a better
	// connected graph at the same M.
	Heuristic bool
}

// DefaultOptions matches the defaults of the original C core (HNSW_DEFAULT_M,
// HNSW_DEFAULT_EF_CONSTRUCTION, HNSW_DEFAULT_EF_SEARCH, HNSW_DEFAULT_ML). M=16 differs
// from the Go reference implementation's default of 8.
var DefaultOptions = Options{
	M:              16,
	EFConstruction: 200,
	EFSearch:       50,
	LevelMult:      1.0 / math.Log(2.0),
	Metric:         metric.Cosine,
	Heuristic:      true,
}

func (o Options) withDefaults() Options {
	if o.M <= 0 {
		o.M = DefaultOptions.M
	}
	if o.M == 1 {
		// M == 1 is raised to 2. LevelMult is configured separately and is not derived from M.
		o.M = 2
	}
	if o.EFConstruction <= 0 {
		o.EFConstruction = DefaultOptions.EFConstruction
	}
	if o.EFSearch <= 0 {
		o.EFSearch = DefaultOptions.EFSearch
	}
	if o.LevelMult <= 0 {
		o.LevelMult = DefaultOptions.LevelMult
	}
	return o
}
