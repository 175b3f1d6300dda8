package hnsw

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/vecdb/metric"
	"github.com/hupe1980/vecdb/persistence"
)

// Magic identifies an HNSW diagnostic persistence file ("HNSW" in ASCII-derived form).
const Magic uint32 = 0x484E5357

// PersistVersion is the current HNSW persistence format version.
const PersistVersion uint32 = 1

// ErrInvalidMagic is returned by Load when the file does not begin with Magic.
var ErrInvalidMagic = errors.New("hnsw: invalid magic number")

// ErrInvalidVersion is returned by Load when the file's version is not understood.
var ErrInvalidVersion = errors.New("hnsw: unsupported persistence version")

// noEntrySentinel marks "no entry point" in the persisted int64 entry_point field.
const noEntrySentinel int64 = -1

// Save writes a diagnostic/backup snapshot of the index in the binary format described by
// the persistence spec: magic, version, header fields, then node_count node records, each
// carrying its id, level, vector, and a connection-count-prefixed neighbor list per level.
//
// The engine never loads this format back into a live index — on open it always rebuilds
// the graph by re-inserting every live vector from the log — so this is best read as a
// diagnostic artifact. Nothing else in this module calls Save. Every node slot is written,
// tombstoned ones included; the format carries no tombstone set.
func (idx *Index) Save(w io.Writer) error {
	cw := persistence.NewChecksumWriter(w)
	bw := bufio.NewWriterSize(cw, 256*1024)

	fields := []any{
		Magic,
		PersistVersion,
		uint32(idx.dimension),
		uint8(idx.opts.Metric),
		uint32(idx.opts.M),
		uint32(idx.opts.EFConstruction),
		uint32(idx.opts.EFSearch),
		idx.opts.LevelMult,
		uint32(len(idx.nodes)),
		entryPointField(idx.entryPoint),
		uint32(idx.maxLevel),
	}
	for _, f := range fields {
		if err := binary.Write(bw, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	for _, node := range idx.nodes {
		if err := binary.Write(bw, binary.LittleEndian, node.ID); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(node.Level)); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(node.Vector))); err != nil {
			return err
		}
		if err := binary.Write(bw, binary.LittleEndian, node.Vector); err != nil {
			return err
		}
		for level := 0; level <= node.Level; level++ {
			var conns []uint32
			if level < len(node.Connections) {
				conns = node.Connections[level]
			}
			if err := binary.Write(bw, binary.LittleEndian, uint32(len(conns))); err != nil {
				return err
			}
			if len(conns) > 0 {
				if err := binary.Write(bw, binary.LittleEndian, conns); err != nil {
					return err
				}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return err
	}

	return binary.Write(w, binary.LittleEndian, cw.Sum())
}

func entryPointField(entryPoint int) int64 {
	if entryPoint == noEntry {
		return noEntrySentinel
	}
	return int64(entryPoint)
}

// Load reads a diagnostic snapshot written by Save and reconstructs a fully populated
// Index. The snapshot carries no tombstones, so every loaded node is live, including
// nodes that were deleted from the index that was saved.
func Load(r io.Reader) (*Index, error) {
	// The checksum reader sits above the buffer so that it hashes exactly the bytes the
	// fields consume, leaving the trailing checksum unhashed in the buffer.
	buf := bufio.NewReaderSize(r, 256*1024)
	cr := persistence.NewChecksumReader(buf)
	br := cr

	var magic, version uint32
	if err := binary.Read(br, binary.LittleEndian, &magic); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != PersistVersion {
		return nil, ErrInvalidVersion
	}

	var dimension, m, efConstruction, efSearch, nodeCount, maxLevel uint32
	var metricByte uint8
	var levelMult float64
	var entryPoint int64

	for _, f := range []any{&dimension, &metricByte, &m, &efConstruction, &efSearch, &levelMult, &nodeCount, &entryPoint, &maxLevel} {
		if err := binary.Read(br, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}

	opts := Options{
		M:              int(m),
		EFConstruction: int(efConstruction),
		EFSearch:       int(efSearch),
		LevelMult:      levelMult,
		Metric:         metric.Type(metricByte),
		Heuristic:      DefaultOptions.Heuristic,
	}

	idx := New(int(dimension), opts)
	idx.nodes = make([]*Node, 0, nodeCount)
	idx.idToIndex = make(map[uint64]uint32, nodeCount)
	idx.tombstones = &bitset.BitSet{}

	for i := uint32(0); i < nodeCount; i++ {
		node := &Node{}
		if err := binary.Read(br, binary.LittleEndian, &node.ID); err != nil {
			return nil, err
		}
		var level, dim uint32
		if err := binary.Read(br, binary.LittleEndian, &level); err != nil {
			return nil, err
		}
		if err := binary.Read(br, binary.LittleEndian, &dim); err != nil {
			return nil, err
		}
		node.Level = int(level)
		node.Vector = make([]float32, dim)
		if err := binary.Read(br, binary.LittleEndian, node.Vector); err != nil {
			return nil, err
		}

		node.Connections = make([][]uint32, level+1)
		for l := uint32(0); l <= level; l++ {
			var count uint32
			if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
				return nil, err
			}
			if count > 0 {
				conns := make([]uint32, count)
				if err := binary.Read(br, binary.LittleEndian, conns); err != nil {
					return nil, err
				}
				node.Connections[l] = conns
			}
		}

		idx.nodes = append(idx.nodes, node)
		idx.idToIndex[node.ID] = i
	}

	idx.entryPoint = int(entryPoint)
	if entryPoint == noEntrySentinel {
		idx.entryPoint = noEntry
	}
	idx.maxLevel = int(maxLevel)
	idx.liveCount = len(idx.nodes)

	var checksum uint32
	if err := binary.Read(buf, binary.LittleEndian, &checksum); err != nil {
		return nil, err
	}
	if err := cr.Verify(checksum); err != nil {
		return nil, err
	}

	return idx, nil
}
