package persistence

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// ioBufferSize sizes the buffered reader/writer used by SaveToFile/LoadFromFile, large
// enough to amortize syscall overhead when streaming a whole vector log or HNSW
// snapshot through a single write.
const ioBufferSize = 256 * 1024

// SaveToFile calls writeFunc with a buffered writer over a temp file created alongside
// filename, then durably renames the temp file onto filename. A crash or error at any
// point before the rename leaves filename untouched; the atomic rename is what gives
// fsutil.CopyForBackup its all-or-nothing guarantee.
func SaveToFile(filename string, writeFunc func(io.Writer) error) error {
	tmp, cleanup, err := createTempSibling(filename)
	if err != nil {
		return err
	}
	defer cleanup()

	w := bufio.NewWriterSize(tmp, ioBufferSize)
	if err := writeFunc(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return err
	}
	syncDir(filepath.Dir(filename))

	return nil
}

// createTempSibling opens a temp file next to filename (same directory, so the later
// rename is guaranteed atomic) and returns a cleanup func that removes it unless the
// caller has already renamed it away.
func createTempSibling(filename string) (*os.File, func(), error) {
	tmp, err := os.CreateTemp(filepath.Dir(filename), filepath.Base(filename)+".tmp-*")
	if err != nil {
		return nil, nil, err
	}
	_ = tmp.Chmod(0o644)

	return tmp, func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name()) // no-op once the rename in SaveToFile has succeeded.
	}, nil
}

// syncDir best-effort fsyncs a directory so a preceding rename within it is durable on
// POSIX filesystems. Failures are ignored: this is belt-and-suspenders beyond the
// rename's own atomicity guarantee, not load-bearing correctness.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

// LoadFromFile opens filename and streams it through readFunc via a buffered reader.
func LoadFromFile(filename string, readFunc func(io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	return readFunc(bufio.NewReaderSize(f, ioBufferSize))
}
