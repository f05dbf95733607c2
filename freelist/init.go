package freelist

import (
	"github.com/pkg/errors"

	"github.com/outofforest/fixedstore/persistence"
	"github.com/outofforest/fixedstore/records"
)

var (
	// ErrAlreadyInitialized is returned if during initialization, data are detected on the provided device.
	ErrAlreadyInitialized = errors.New("free-list stack has been already initialized on the provided device")

	// ErrInvalidHeader is returned if stack header stored on the device is not valid.
	ErrInvalidHeader = errors.New("invalid free-list stack header")
)

// Initialize writes the header of empty stack to the device.
func Initialize(dev persistence.Dev) error {
	size, err := persistence.Size(dev)
	if err != nil {
		return err
	}
	if size != 0 {
		return errors.Wrapf(ErrAlreadyInitialized, "device size: %d", size)
	}

	lengths := records.ComputeLengths()
	if err := writeHeader(dev, lengths.StackHeader, 0); err != nil {
		return err
	}
	return dev.Sync()
}

func newHeader(topOffset, blockCapacity uint64) records.StackHeader {
	header := records.StackHeader{
		Magic:         records.StackSubject,
		TopOffset:     topOffset,
		BlockCapacity: blockCapacity,
	}
	header.Checksum = header.ComputeChecksum()
	return header
}

func writeHeader(dev persistence.Dev, topOffset, blockCapacity uint64) error {
	return persistence.WriteAt(dev, 0, records.Encode(newHeader(topOffset, blockCapacity)))
}

func loadHeader(dev persistence.Dev, lengths records.Lengths) (records.StackHeader, error) {
	b, err := persistence.ReadAt(dev, 0, lengths.StackHeader)
	if err != nil {
		return records.StackHeader{}, err
	}
	return records.Decode[records.StackHeader](b)
}

func validateHeader(header records.StackHeader, lengths records.Lengths, size uint64) error {
	if header.Magic != records.StackSubject {
		return errors.Wrap(ErrInvalidHeader, "device does not contain free-list stack")
	}

	if checksum := header.ComputeChecksum(); header.Checksum != checksum {
		return errors.Wrapf(ErrInvalidHeader, "checksum mismatch, computed: %016x, stored: %016x",
			checksum, header.Checksum)
	}

	if header.TopOffset < lengths.StackHeader || header.TopOffset > size {
		return errors.Wrapf(ErrInvalidHeader, "top offset %d is outside of valid range [%d, %d]",
			header.TopOffset, lengths.StackHeader, size)
	}

	return nil
}
