package persistence

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// ReadAt reads exactly n bytes starting at offset.
func ReadAt(dev Dev, offset, n uint64) ([]byte, error) {
	if offset > math.MaxInt64 || n > math.MaxInt64-offset {
		return nil, errors.Errorf("invalid read range, offset: %d, length: %d", offset, n)
	}

	p := make([]byte, n)
	read, err := dev.ReadAt(p, int64(offset))
	if uint64(read) == n {
		// io.ReaderAt may return io.EOF together with the full buffer.
		return p, nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return nil, errors.Wrapf(err, "reading %d bytes at offset %d, got %d", n, offset, read)
}

// WriteAt writes all the bytes of p starting at offset.
func WriteAt(dev Dev, offset uint64, p []byte) error {
	if offset > math.MaxInt64 || uint64(len(p)) > math.MaxInt64-offset {
		return errors.Errorf("invalid write range, offset: %d, length: %d", offset, len(p))
	}

	n, err := dev.WriteAt(p, int64(offset))
	if err != nil {
		return errors.Wrapf(err, "writing %d bytes at offset %d", len(p), offset)
	}
	if n != len(p) {
		return errors.Wrapf(io.ErrShortWrite, "writing %d bytes at offset %d, written %d", len(p), offset, n)
	}
	return nil
}

// Size returns the size of the device as unsigned offset.
func Size(dev Dev) (uint64, error) {
	size, err := dev.Size()
	if err != nil {
		return 0, err
	}
	if size < 0 {
		return 0, errors.Errorf("invalid device size: %d", size)
	}
	return uint64(size), nil
}
