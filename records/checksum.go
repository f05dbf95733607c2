package records

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// ErrChecksumMismatch is returned if stored checksum doesn't match the data.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Checksum computes checksum of bytes.
func Checksum(b []byte) Hash {
	return Hash(xxhash.Sum64(b))
}

// VerifyChecksum verifies that checksum of provided data matches the expected one.
func VerifyChecksum(what string, offset uint64, p []byte, expectedChecksum Hash) error {
	checksum := Checksum(p)
	if checksum == expectedChecksum {
		return nil
	}
	return errors.Wrapf(ErrChecksumMismatch, "%s at offset %d, computed: %016x, expected: %016x",
		what, offset, checksum, expectedChecksum)
}
