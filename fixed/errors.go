package fixed

import "github.com/pkg/errors"

var (
	// ErrCapacityExceeded is returned if data don't fit into the block.
	ErrCapacityExceeded = errors.New("block capacity exceeded")

	// ErrCapacityMismatch is returned if store was created with different block capacity.
	ErrCapacityMismatch = errors.New("block capacity mismatch")

	// ErrInvalidDescriptor is returned if descriptor taken from the free-list doesn't describe a block of the store.
	ErrInvalidDescriptor = errors.New("invalid free-list descriptor")

	// ErrInvalidOffset is returned if offset is not the start of the block existing in the store.
	ErrInvalidOffset = errors.New("invalid block offset")

	// ErrBlockFreed is returned if block is used after being freed.
	ErrBlockFreed = errors.New("block has been freed")

	// ErrForeignBlock is returned if block belongs to another store.
	ErrForeignBlock = errors.New("block belongs to another store")

	// ErrClosed is returned if store is used after being closed.
	ErrClosed = errors.New("store is closed")
)
