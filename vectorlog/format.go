package vectorlog

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/hupe1980/vecdb/metric"
)

// Magic identifies a vector log file ("CVEC" packed little-endian).
const Magic uint32 = 0x43564543

// Version is the current vector log file format version.
const Version uint32 = 1

// FileHeaderSize is the fixed size, in bytes, of the file header.
const FileHeaderSize = 80

// RecordHeaderSize is the fixed size, in bytes, of a record header (excluding the
// vector payload that follows it).
const RecordHeaderSize = 28

// ErrInvalidMagic is returned when a file's first four bytes are not Magic.
var ErrInvalidMagic = errors.New("vectorlog: invalid magic number")

// ErrUnsupportedVersion is returned when a file's version field is not understood.
var ErrUnsupportedVersion = errors.New("vectorlog: unsupported file version")

// fileHeader mirrors the 80-byte on-disk file header: magic, version, dimension,
// default similarity, live vector count, next id, created/modified unix-second
// timestamps, and 32 reserved bytes.
type fileHeader struct {
	Magic             uint32
	Version           uint32
	Dimension         uint32
	DefaultSimilarity uint32
	VectorCount       uint64
	NextID            uint64
	CreatedTimestamp  uint64
	ModifiedTimestamp uint64
	Reserved          [32]byte
}

func (h *fileHeader) writeTo(w io.Writer) error {
	fields := []any{
		h.Magic, h.Version, h.Dimension, h.DefaultSimilarity,
		h.VectorCount, h.NextID, h.CreatedTimestamp, h.ModifiedTimestamp,
		h.Reserved,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readFileHeader(r io.Reader) (*fileHeader, error) {
	h := &fileHeader{}
	if err := binary.Read(r, binary.LittleEndian, &h.Magic); err != nil {
		return nil, err
	}
	if h.Magic != Magic {
		return nil, ErrInvalidMagic
	}
	fields := []any{
		&h.Version, &h.Dimension, &h.DefaultSimilarity,
		&h.VectorCount, &h.NextID, &h.CreatedTimestamp, &h.ModifiedTimestamp,
		&h.Reserved,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	if h.Version != Version {
		return nil, ErrUnsupportedVersion
	}
	return h, nil
}

// recordHeader mirrors the 28-byte on-disk record header that precedes each vector's
// float32 payload.
type recordHeader struct {
	ID        uint64
	Dimension uint32
	Timestamp uint64
	Tombstone uint8
	Reserved  [7]byte
}

func (r *recordHeader) writeTo(w io.Writer) error {
	fields := []any{r.ID, r.Dimension, r.Timestamp, r.Tombstone, r.Reserved}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readRecordHeader(r io.Reader) (*recordHeader, error) {
	rh := &recordHeader{}
	fields := []any{&rh.ID, &rh.Dimension, &rh.Timestamp, &rh.Tombstone, &rh.Reserved}
	for _, f := range fields {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return rh, nil
}

func writeVector(w io.Writer, vec []float32) error {
	return binary.Write(w, binary.LittleEndian, vec)
}

func readVector(r io.Reader, dimension uint32) ([]float32, error) {
	vec := make([]float32, dimension)
	if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

func similarityCode(m metric.Type) uint32 { return uint32(m) }
