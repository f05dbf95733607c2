package fixed

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/fixedstore/persistence"
	"github.com/outofforest/fixedstore/records"
)

// AllocateBlock returns a block. Block freed previously is reused if exists, otherwise new block is appended
// to the data file.
func (s *Store) AllocateBlock() (*Block, error) {
	if s.closed {
		return nil, errors.WithStack(ErrClosed)
	}

	// Descriptor is validated before it is removed from the stack, so invalid one is never lost.
	d, exists, err := s.stack.Peek()
	if err != nil {
		return nil, err
	}
	if exists {
		return s.reuseBlock(d)
	}
	return s.growBlock()
}

// FreeBlock returns the block to the free-list. Block can't be used afterwards.
func (s *Store) FreeBlock(b *Block) error {
	if err := s.checkBlock(b); err != nil {
		return err
	}

	if err := s.stack.Push(records.Descriptor{
		FileID:      b.fileID,
		StartOffset: b.startOffset,
		Capacity:    b.capacity,
	}); err != nil {
		return err
	}

	b.freed = true
	delete(s.live, b.startOffset)
	s.config.Metrics.observeFree(s.fileID)

	s.log.WithField("offset", b.startOffset).Debug("Block freed")
	return nil
}

// Lookup returns the allocated block starting at offset. It is used to access blocks allocated before
// the store was reopened.
func (s *Store) Lookup(offset uint64) (*Block, error) {
	if s.closed {
		return nil, errors.WithStack(ErrClosed)
	}
	if b, exists := s.live[offset]; exists {
		return b, nil
	}

	size, err := persistence.Size(s.data)
	if err != nil {
		return nil, err
	}
	if err := s.validateOffset(offset, size); err != nil {
		return nil, err
	}

	var free bool
	if err := s.stack.Walk(func(_ uint64, d records.Descriptor) bool {
		free = d.StartOffset == offset
		return !free
	}); err != nil {
		return nil, err
	}
	if free {
		return nil, errors.Wrapf(ErrBlockFreed, "block at offset %d is in the free-list", offset)
	}

	return s.newBlock(offset), nil
}

// WalkFree calls fn for each freed block, in the order they would be reused, until fn returns false.
func (s *Store) WalkFree(fn func(d records.Descriptor) bool) error {
	if s.closed {
		return errors.WithStack(ErrClosed)
	}
	return s.stack.Walk(func(_ uint64, d records.Descriptor) bool {
		return fn(d)
	})
}

// DiscardFree removes the descriptor from the top of the free-list without reusing its block. It is the way
// to get rid of the descriptor AllocateBlock rejects with ErrInvalidDescriptor. False is returned if free-list
// is empty.
func (s *Store) DiscardFree() (records.Descriptor, bool, error) {
	if s.closed {
		return records.Descriptor{}, false, errors.WithStack(ErrClosed)
	}

	d, exists, err := s.stack.Pop()
	if !exists || err != nil {
		return records.Descriptor{}, false, err
	}

	s.log.WithFields(logrus.Fields{
		"fileID":   d.FileID,
		"offset":   d.StartOffset,
		"capacity": d.Capacity,
	}).Warn("Free-list descriptor discarded")
	return d, true, nil
}

func (s *Store) reuseBlock(d records.Descriptor) (*Block, error) {
	if err := s.validateDescriptor(d); err != nil {
		return nil, err
	}
	if _, _, err := s.stack.Pop(); err != nil {
		return nil, err
	}

	s.config.Metrics.observeAllocation(s.fileID, sourceReuse)
	s.log.WithField("offset", d.StartOffset).Debug("Block reused")
	return s.newBlock(d.StartOffset), nil
}

func (s *Store) growBlock() (*Block, error) {
	size, err := persistence.Size(s.data)
	if err != nil {
		return nil, err
	}
	if err := s.validateEnd(size); err != nil {
		return nil, err
	}

	// Zeroed block header is followed by zeroed payload.
	if err := persistence.WriteAt(s.data, size, make([]byte, s.blockSize)); err != nil {
		// Part of the block might have been written, it is removed so the allocation fails atomically.
		if truncErr := s.data.Truncate(int64(size)); truncErr != nil {
			s.log.WithError(truncErr).Error("Removing partially allocated block failed")
		}
		return nil, err
	}
	if s.config.SyncWrites {
		if err := s.data.Sync(); err != nil {
			return nil, err
		}
	}

	s.config.Metrics.observeAllocation(s.fileID, sourceGrow)
	s.config.Metrics.observeGrowth(s.fileID, s.blockSize)
	s.log.WithFields(logrus.Fields{
		"offset": size,
		"size":   size + s.blockSize,
	}).Debug("Data file grown")
	return s.newBlock(size), nil
}

func (s *Store) newBlock(offset uint64) *Block {
	b := &Block{
		store:       s,
		fileID:      s.fileID,
		startOffset: offset,
		capacity:    s.config.BlockCapacity,
	}
	s.live[offset] = b
	return b
}

func (s *Store) validateDescriptor(d records.Descriptor) error {
	if d.FileID != s.fileID {
		return errors.Wrapf(ErrInvalidDescriptor, "descriptor belongs to file %q, expected: %q", d.FileID, s.fileID)
	}
	if d.Capacity != s.config.BlockCapacity {
		return errors.Wrapf(ErrInvalidDescriptor, "descriptor capacity %d doesn't match block capacity %d",
			d.Capacity, s.config.BlockCapacity)
	}
	if _, exists := s.live[d.StartOffset]; exists {
		return errors.Wrapf(ErrInvalidDescriptor, "block at offset %d is allocated", d.StartOffset)
	}

	size, err := persistence.Size(s.data)
	if err != nil {
		return err
	}
	if err := s.validateOffset(d.StartOffset, size); err != nil {
		return errors.Wrap(ErrInvalidDescriptor, err.Error())
	}
	return nil
}

func (s *Store) validateOffset(offset, size uint64) error {
	if offset%s.blockSize != 0 {
		return errors.Wrapf(ErrInvalidOffset, "offset %d is not aligned to block boundary", offset)
	}
	if offset > size || size-offset < s.blockSize {
		return errors.Wrapf(ErrInvalidOffset, "block at offset %d exceeds data file of size %d", offset, size)
	}
	return nil
}

func (s *Store) validateEnd(size uint64) error {
	if size%s.blockSize != 0 {
		return errors.Errorf("data file size %d is not aligned to block boundary", size)
	}
	return nil
}

func (s *Store) checkBlock(b *Block) error {
	switch {
	case s.closed:
		return errors.WithStack(ErrClosed)
	case b == nil || b.store != s:
		return errors.WithStack(ErrForeignBlock)
	case b.freed:
		return errors.Wrapf(ErrBlockFreed, "offset: %d", b.startOffset)
	}
	return nil
}
