//go:build !unix

package filedev

import "os"

// Advisory locking is not available, exclusive access is the caller's responsibility.

func lock(_ *os.File) error {
	return nil
}

func unlock(_ *os.File) error {
	return nil
}
