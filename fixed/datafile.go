package fixed

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/fixedstore/persistence"
)

// prepareDataFile verifies that data file and free-list stack agree on the block capacity. Data file has no
// header of its own, the capacity is stored in the header of the free-list stack.
func (s *Store) prepareDataFile() error {
	size, err := persistence.Size(s.data)
	if err != nil {
		return err
	}
	partial := size % s.blockSize

	switch stackCapacity := s.stack.BlockCapacity(); {
	case stackCapacity == 0:
		// Stack has just been created, so there is nothing proving that existing blocks use this capacity.
		if partial != 0 {
			return errors.Wrapf(ErrCapacityMismatch, "data file of size %d doesn't contain blocks of size %d",
				size, s.blockSize)
		}
		return s.stack.SetBlockCapacity(s.config.BlockCapacity)
	case stackCapacity != s.config.BlockCapacity:
		return errors.Wrapf(ErrCapacityMismatch, "data file uses capacity %d, requested: %d",
			stackCapacity, s.config.BlockCapacity)
	}

	// Blocks are appended in single write, partial block may exist only if process crashed during the write.
	// Such block has never been returned to the caller.
	if partial != 0 {
		s.log.WithFields(logrus.Fields{
			"size":    size,
			"partial": partial,
		}).Warn("Trimming partial block at the end of data file")
		return s.data.Truncate(int64(size - partial))
	}

	return nil
}
