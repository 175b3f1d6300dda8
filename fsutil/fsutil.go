package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/vecdb/persistence"
)

// EnsureDir creates path's parent directory if it does not already exist, matching the
// original implementation's dirname-then-mkdir behavior.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("fsutil: %s exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}

	return os.MkdirAll(dir, 0o755)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns path's size in bytes, or 0 if it cannot be stat'd.
func Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// CopyForBackup copies the file at srcPath into destDir under a collision-free,
// uuid-suffixed name, optionally compressing the copy with zstd, and returns the backup
// file's path. The copy itself is written atomically via persistence.SaveToFile: a
// failure partway through never leaves a half-written backup at the final path.
func CopyForBackup(srcPath, destDir string, compress bool) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	name := filepath.Base(srcPath) + "." + uuid.NewString() + ".bak"
	if compress {
		name += ".zst"
	}
	destPath := filepath.Join(destDir, name)

	err = persistence.SaveToFile(destPath, func(w io.Writer) error {
		if !compress {
			_, err := io.Copy(w, src)
			return err
		}

		enc, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if _, err := io.Copy(enc, src); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	})
	if err != nil {
		return "", err
	}

	return destPath, nil
}
