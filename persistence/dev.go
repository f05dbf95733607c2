package persistence

import (
	"io"
)

// Dev is the interface required from the device.
//
// All the reads and writes are positioned, there is no shared cursor, so blocks living in the same device
// never interfere through implicit file position.
type Dev interface {
	io.ReaderAt
	io.WriterAt
	io.Closer
	Sync() error
	Size() (int64, error)
	Truncate(size int64) error
}
