package hnsw

import "sync/atomic"

// Delete removes the node holding the given external id by setting its tombstone bit. The
// node's slot and edges are left in place — other nodes' edges to it are skipped during
// traversal rather than eagerly cleaned up, trading a compaction pass for O(1) delete. If
// the removed node was the entry point, a new one is elected from the remaining live nodes.
func (idx *Index) Delete(id uint64) error {
	if !idx.IntegrityOK() {
		return ErrIntegrityViolation
	}

	nodeIndex, ok := idx.idToIndex[id]
	if !ok {
		return ErrNotFound
	}

	idx.tombstones.Set(uint(nodeIndex))
	delete(idx.idToIndex, id)
	idx.liveCount--
	atomic.AddUint64(&idx.deleteCount, 1)

	if int(nodeIndex) == idx.entryPoint {
		idx.recoverEntryPoint()
	}

	return nil
}

// ContainsID reports whether id currently names a live (non-tombstoned) node.
func (idx *Index) ContainsID(id uint64) bool {
	nodeIndex, ok := idx.idToIndex[id]
	if !ok {
		return false
	}
	return !idx.tombstones.Test(uint(nodeIndex))
}

// recoverEntryPoint re-elects the entry point as the live node with the largest level,
// ties broken by smallest index, matching the graph-delete contract. Called after removing
// the current entry point, and from Repair.
func (idx *Index) recoverEntryPoint() {
	best := noEntry
	bestLevel := -1

	for i, node := range idx.nodes {
		if idx.tombstones.Test(uint(i)) {
			continue
		}
		if node.Level > bestLevel {
			best = i
			bestLevel = node.Level
		}
	}

	idx.entryPoint = best
	if best == noEntry {
		idx.maxLevel = 0
	} else {
		idx.maxLevel = bestLevel
	}
}

// MarkIntegrityViolation sets the integrity flag, refusing further mutation until Repair
// runs. Call this when an out-of-range neighbor index or an impossible level is observed.
func (idx *Index) MarkIntegrityViolation() {
	idx.integrity.Store(true)
}

// Repair sweeps every node's connection lists, discarding any neighbor whose index is out
// of range or tombstoned, re-elects the entry point, and clears the integrity flag.
func (idx *Index) Repair() {
	n := len(idx.nodes)

	for _, node := range idx.nodes {
		for level := range node.Connections {
			kept := node.Connections[level][:0]
			for _, neighbour := range node.Connections[level] {
				if int(neighbour) < 0 || int(neighbour) >= n {
					continue
				}
				if idx.tombstones.Test(uint(neighbour)) {
					continue
				}
				kept = append(kept, neighbour)
			}
			node.Connections[level] = kept
		}
	}

	idx.recoverEntryPoint()
	idx.integrity.Store(false)
}
