package hnsw

import "sync/atomic"

// Stats is a point-in-time snapshot of index statistics. The operation counters are read
// atomically; the topology fields (node counts, levels, connections) are plain,
// unsynchronized reads of the graph.
type Stats struct {
	NodeCount             int
	LiveCount              int
	MaxLevel               int
	EntryPointLevel        int
	InsertCount            uint64
	DeleteCount            uint64
	SearchCount            uint64
	DistanceComputations   uint64
	AvgConnectionsPerNode  float64
}

// Stats returns a snapshot of the index's statistics, matching the field set confirmed by
// the original implementation's hnsw_stats_t.
func (idx *Index) Stats() Stats {
	var totalConns, countedNodes int
	for i, node := range idx.nodes {
		if idx.tombstones.Test(uint(i)) {
			continue
		}
		for _, level := range node.Connections {
			totalConns += len(level)
		}
		countedNodes++
	}

	avg := 0.0
	if countedNodes > 0 {
		avg = float64(totalConns) / float64(countedNodes)
	}

	entryLevel := -1
	if idx.entryPoint != noEntry {
		entryLevel = idx.nodes[idx.entryPoint].Level
	}

	return Stats{
		NodeCount:             len(idx.nodes),
		LiveCount:             idx.liveCount,
		MaxLevel:              idx.maxLevel,
		EntryPointLevel:       entryLevel,
		InsertCount:           atomic.LoadUint64(&idx.insertCount),
		DeleteCount:           atomic.LoadUint64(&idx.deleteCount),
		SearchCount:           atomic.LoadUint64(&idx.searchCount),
		DistanceComputations:  atomic.LoadUint64(&idx.distanceComputations),
		AvgConnectionsPerNode: avg,
	}
}
