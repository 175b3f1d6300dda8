//go:build !windows

package fsutil

import (
	"os"

	"golang.org/x/sys/unix"
)

// Lock takes an advisory, exclusive, non-blocking flock on path, enforcing the "no
// multi-process sharing of a single store" invariant. The returned file must be passed
// to Unlock to release the lock and close its descriptor.
func Lock(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// Unlock releases the flock taken by Lock and closes its file descriptor.
func Unlock(f *os.File) error {
	if f == nil {
		return nil
	}
	_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return f.Close()
}
