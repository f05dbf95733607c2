package filedev

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

var (
	_ io.ReaderAt = &FileDev{}
	_ io.WriterAt = &FileDev{}
	_ io.Closer   = &FileDev{}
)

// ErrLocked is returned if file is locked by another process.
var ErrLocked = errors.New("file is locked by another process")

// FileDev uses file handle as a device.
type FileDev struct {
	file   *os.File
	locked bool
}

// New returns new filedev.
func New(file *os.File) *FileDev {
	return &FileDev{
		file: file,
	}
}

// Open opens the file, creating it if it doesn't exist.
func Open(path string) (*FileDev, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return New(file), nil
}

// Name returns the name of the file.
func (fd *FileDev) Name() string {
	return fd.file.Name()
}

// Lock acquires exclusive advisory lock on the file without blocking.
func (fd *FileDev) Lock() error {
	if fd.locked {
		return nil
	}
	if err := lock(fd.file); err != nil {
		return err
	}
	fd.locked = true
	return nil
}

// ReadAt reads data from the file at offset.
func (fd *FileDev) ReadAt(p []byte, offset int64) (int, error) {
	n, err := fd.file.ReadAt(p, offset)
	if err != nil {
		return n, errors.WithStack(err)
	}
	return n, nil
}

// WriteAt writes data to the file at offset.
func (fd *FileDev) WriteAt(p []byte, offset int64) (int, error) {
	n, err := fd.file.WriteAt(p, offset)
	if err != nil {
		return n, errors.WithStack(err)
	}
	return n, nil
}

// Sync syncs data to the file.
func (fd *FileDev) Sync() error {
	if err := fd.file.Sync(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Size returns the byte size of the file.
func (fd *FileDev) Size() (int64, error) {
	info, err := fd.file.Stat()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size(), nil
}

// Truncate changes the size of the file.
func (fd *FileDev) Truncate(size int64) error {
	if err := fd.file.Truncate(size); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Close releases the lock and closes the file. File is closed even if unlocking fails.
func (fd *FileDev) Close() error {
	var unlockErr error
	if fd.locked {
		// Closing the file releases the lock anyway.
		unlockErr = unlock(fd.file)
		fd.locked = false
	}

	if err := fd.file.Close(); err != nil {
		if unlockErr != nil {
			return errors.WithMessage(errors.WithStack(err), unlockErr.Error())
		}
		return errors.WithStack(err)
	}
	return unlockErr
}
