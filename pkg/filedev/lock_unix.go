//go:build unix

package filedev

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func lock(file *os.File) error {
	err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EWOULDBLOCK):
		return errors.Wrapf(ErrLocked, "file: %s", file.Name())
	default:
		return errors.Wrapf(err, "locking file %s failed", file.Name())
	}
}

func unlock(file *os.File) error {
	if err := unix.Flock(int(file.Fd()), unix.LOCK_UN); err != nil {
		return errors.Wrapf(err, "unlocking file %s failed", file.Name())
	}
	return nil
}
