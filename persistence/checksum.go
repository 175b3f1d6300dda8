package persistence

import (
	"fmt"
	"hash"
	"hash/crc32"
	"io"
)

// crc32Table is the IEEE polynomial table backing every checksum computed by this
// package. CRC32 is fast and catches accidental storage corruption; it is not a
// substitute for a cryptographic MAC and is never used as one here.
var crc32Table = crc32.MakeTable(crc32.IEEE)

// ChecksumWriter wraps an io.Writer, computing a running CRC32 over everything written
// to it. The hnsw package's Save uses one to trail its snapshot with a checksum of the
// preceding bytes.
type ChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
}

// NewChecksumWriter wraps w with a running CRC32.
func NewChecksumWriter(w io.Writer) *ChecksumWriter {
	return &ChecksumWriter{w: w, hash: crc32.New(crc32Table)}
}

// Write implements io.Writer, updating the checksum before forwarding to w.
func (cw *ChecksumWriter) Write(p []byte) (int, error) {
	if _, err := cw.hash.Write(p); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}

// Sum returns the checksum of everything written so far.
func (cw *ChecksumWriter) Sum() uint32 {
	return cw.hash.Sum32()
}

// ChecksumReader wraps an io.Reader, computing a running CRC32 over everything read
// from it. hnsw.Load uses one to verify a snapshot's trailing checksum on load.
type ChecksumReader struct {
	r    io.Reader
	hash hash.Hash32
}

// NewChecksumReader wraps r with a running CRC32.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, hash: crc32.New(crc32Table)}
}

// Read implements io.Reader, updating the checksum with whatever bytes were read.
func (cr *ChecksumReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		if _, hashErr := cr.hash.Write(p[:n]); hashErr != nil {
			return n, hashErr
		}
	}
	return n, err
}

// Sum returns the checksum of everything read so far.
func (cr *ChecksumReader) Sum() uint32 {
	return cr.hash.Sum32()
}

// Verify reports a ChecksumMismatchError if the checksum of everything read so far does
// not equal expected.
func (cr *ChecksumReader) Verify(expected uint32) error {
	if actual := cr.Sum(); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}

// ChecksumMismatchError is returned by ChecksumReader.Verify, and so by hnsw.Load, when a
// loaded snapshot's trailing checksum does not match the checksum of the bytes preceding it.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}
