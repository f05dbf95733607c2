package memdev

import (
	"io"

	"github.com/pkg/errors"
)

var (
	_ io.ReaderAt = &MemDev{}
	_ io.WriterAt = &MemDev{}
	_ io.Closer   = &MemDev{}
)

var (
	// ErrInjected is returned by writes failing due to injected fault.
	ErrInjected = errors.New("injected write fault")

	// ErrClosed is returned if device is used after closing.
	ErrClosed = errors.New("device is closed")
)

// MemDev simulates device io operations in memory. The device grows on writes past its end.
type MemDev struct {
	data   []byte
	closed bool

	// failAfter is the number of writes succeeding before writes start failing, -1 disables faults.
	failAfter int
	nWrites   int
}

// New returns new memdev.
func New(size int64) *MemDev {
	return &MemDev{
		data:      make([]byte, size),
		failAfter: -1,
	}
}

// Clone returns new device containing a copy of data. It simulates reopening the device after restart.
func (md *MemDev) Clone() *MemDev {
	return &MemDev{
		data:      md.Bytes(),
		failAfter: -1,
	}
}

// Bytes returns a copy of device content.
func (md *MemDev) Bytes() []byte {
	return append([]byte{}, md.data...)
}

// FailWritesAfter causes all the writes after first n ones to fail. Failing write stores the first half
// of its data to simulate torn write.
func (md *MemDev) FailWritesAfter(n int) {
	md.failAfter = n
	md.nWrites = 0
}

// ResetFaults disables fault injection.
func (md *MemDev) ResetFaults() {
	md.failAfter = -1
	md.nWrites = 0
}

// ReadAt reads data from the memdev.
func (md *MemDev) ReadAt(p []byte, offset int64) (int, error) {
	if md.closed {
		return 0, errors.WithStack(ErrClosed)
	}
	if offset < 0 {
		return 0, errors.Errorf("invalid offset: %d", offset)
	}
	if offset >= int64(len(md.data)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, md.data[offset:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes data to the memdev.
func (md *MemDev) WriteAt(p []byte, offset int64) (int, error) {
	if md.closed {
		return 0, errors.WithStack(ErrClosed)
	}
	if offset < 0 {
		return 0, errors.Errorf("invalid offset: %d", offset)
	}

	fail := md.failAfter >= 0 && md.nWrites >= md.failAfter
	md.nWrites++
	if fail {
		p = p[:len(p)/2]
	}

	if end := offset + int64(len(p)); end > int64(len(md.data)) {
		md.grow(end)
	}
	n := copy(md.data[offset:], p)
	if fail {
		return n, errors.WithStack(ErrInjected)
	}
	return n, nil
}

// Sync does nothing.
func (md *MemDev) Sync() error {
	if md.closed {
		return errors.WithStack(ErrClosed)
	}
	return nil
}

// Size returns the size of the device.
func (md *MemDev) Size() (int64, error) {
	if md.closed {
		return 0, errors.WithStack(ErrClosed)
	}
	return int64(len(md.data)), nil
}

// Truncate changes the size of the device.
func (md *MemDev) Truncate(size int64) error {
	if md.closed {
		return errors.WithStack(ErrClosed)
	}
	if size < 0 {
		return errors.Errorf("invalid size: %d", size)
	}
	if size > int64(len(md.data)) {
		md.grow(size)
		return nil
	}
	md.data = md.data[:size]
	return nil
}

// Close closes the device.
func (md *MemDev) Close() error {
	md.closed = true
	return nil
}

func (md *MemDev) grow(size int64) {
	data := make([]byte, size)
	copy(data, md.data)
	md.data = data
}
