package freelist

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/fixedstore/persistence"
	"github.com/outofforest/fixedstore/pkg/filedev"
	"github.com/outofforest/fixedstore/records"
)

// Config stores configuration of the stack.
type Config struct {
	// SyncWrites causes the entry to be synced before header is updated and the header to be synced afterwards.
	SyncWrites bool

	// Logger is used for logging, if nil default one is used.
	Logger *logrus.Entry
}

// Stack is the persistent LIFO stack of freed block descriptors.
//
// Stack entries are packed after the header, each entry is the encoded descriptor followed by the footer
// storing descriptor length. Header stores the offset where valid data end. Header update is the commit point
// of every operation, so the stack is always recovered just by reading the header.
type Stack struct {
	dev     persistence.Dev
	config  Config
	log     *logrus.Entry
	lengths records.Lengths

	// top and blockCapacity are the values stored in the last committed header.
	top           uint64
	blockCapacity uint64
}

// Open opens the stack stored on the device. Empty device is initialized first.
func Open(dev persistence.Dev, config Config) (*Stack, error) {
	size, err := persistence.Size(dev)
	if err != nil {
		return nil, err
	}
	if size == 0 {
		if err := Initialize(dev); err != nil {
			return nil, err
		}
		if size, err = persistence.Size(dev); err != nil {
			return nil, err
		}
	}

	lengths := records.ComputeLengths()
	header, err := loadHeader(dev, lengths)
	if err != nil {
		return nil, err
	}
	if err := validateHeader(header, lengths, size); err != nil {
		return nil, err
	}

	log := config.Logger
	if log == nil {
		log = logrus.WithField("module", "freelist")
	}

	return &Stack{
		dev:           dev,
		config:        config,
		log:           log,
		lengths:       lengths,
		top:           header.TopOffset,
		blockCapacity: header.BlockCapacity,
	}, nil
}

// OpenFile opens the stack stored in file. File is created if it does not exist.
func OpenFile(path string, config Config) (*Stack, error) {
	dev, err := filedev.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := Open(dev, config)
	if err != nil {
		_ = dev.Close()
		return nil, errors.WithMessagef(err, "opening free-list stack %s failed", path)
	}
	return s, nil
}

// Push puts the descriptor on top of the stack.
func (s *Stack) Push(d records.Descriptor) error {
	descriptor, err := records.EncodeDescriptor(d)
	if err != nil {
		return err
	}

	footer := records.Encode(records.Footer{
		DescriptorLength: uint64(len(descriptor)),
		Checksum:         records.Checksum(descriptor),
	})

	entry := make([]byte, 0, len(descriptor)+len(footer))
	entry = append(entry, descriptor...)
	entry = append(entry, footer...)

	if err := persistence.WriteAt(s.dev, s.top, entry); err != nil {
		return err
	}
	if s.config.SyncWrites {
		if err := s.dev.Sync(); err != nil {
			return err
		}
	}

	newTop := s.top + uint64(len(entry))
	if err := s.commit(newTop, s.blockCapacity); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"fileID": d.FileID,
		"offset": d.StartOffset,
		"top":    newTop,
	}).Debug("Descriptor pushed")
	return nil
}

// Pop removes the descriptor from the top of the stack and returns it. False is returned if stack is empty.
func (s *Stack) Pop() (records.Descriptor, bool, error) {
	d, entryOffset, exists, err := s.readEntry(s.top)
	if !exists || err != nil {
		return records.Descriptor{}, false, err
	}

	if err := s.commit(entryOffset, s.blockCapacity); err != nil {
		return records.Descriptor{}, false, err
	}

	s.log.WithFields(logrus.Fields{
		"fileID": d.FileID,
		"offset": d.StartOffset,
		"top":    entryOffset,
	}).Debug("Descriptor popped")
	return d, true, nil
}

// Peek returns the descriptor from the top of the stack without removing it.
func (s *Stack) Peek() (records.Descriptor, bool, error) {
	d, _, exists, err := s.readEntry(s.top)
	return d, exists, err
}

// Walk calls fn for each descriptor, starting from the top of the stack, until fn returns false.
// Offset passed to fn is the offset where the entry starts.
func (s *Stack) Walk(fn func(offset uint64, d records.Descriptor) bool) error {
	top := s.top
	for {
		d, entryOffset, exists, err := s.readEntry(top)
		if !exists || err != nil {
			return err
		}
		if !fn(entryOffset, d) {
			return nil
		}
		top = entryOffset
	}
}

// Empty returns true if there are no descriptors in the stack.
func (s *Stack) Empty() bool {
	return s.top == s.lengths.StackHeader
}

// Top returns the offset of the top of the stack.
func (s *Stack) Top() uint64 {
	return s.top
}

// BlockCapacity returns the capacity of blocks described by the stack. 0 is returned if stack hasn't been bound
// to any capacity yet.
func (s *Stack) BlockCapacity() uint64 {
	return s.blockCapacity
}

// SetBlockCapacity stores the capacity of blocks described by the stack in the header.
func (s *Stack) SetBlockCapacity(blockCapacity uint64) error {
	if blockCapacity == s.blockCapacity {
		return nil
	}
	if err := s.commit(s.top, blockCapacity); err != nil {
		return err
	}

	s.log.WithField("blockCapacity", blockCapacity).Debug("Block capacity set")
	return nil
}

// Sync forces data to be written to the dev.
func (s *Stack) Sync() error {
	return s.dev.Sync()
}

// Close closes the device.
func (s *Stack) Close() error {
	return s.dev.Close()
}

// readEntry reads the entry ending at top. It returns the descriptor and the offset where the entry starts.
func (s *Stack) readEntry(top uint64) (records.Descriptor, uint64, bool, error) {
	if top == s.lengths.StackHeader {
		return records.Descriptor{}, 0, false, nil
	}
	if top < s.lengths.StackHeader+s.lengths.Footer {
		return records.Descriptor{}, 0, false, errors.Wrapf(records.ErrDecoding,
			"offset %d leaves no space for footer", top)
	}

	footerOffset := top - s.lengths.Footer
	b, err := persistence.ReadAt(s.dev, footerOffset, s.lengths.Footer)
	if err != nil {
		return records.Descriptor{}, 0, false, err
	}
	footer, err := records.Decode[records.Footer](b)
	if err != nil {
		return records.Descriptor{}, 0, false, err
	}

	if footer.DescriptorLength > footerOffset-s.lengths.StackHeader {
		return records.Descriptor{}, 0, false, errors.Wrapf(records.ErrDecoding,
			"footer at offset %d declares descriptor of %d bytes, only %d bytes available",
			footerOffset, footer.DescriptorLength, footerOffset-s.lengths.StackHeader)
	}

	entryOffset := footerOffset - footer.DescriptorLength
	b, err = persistence.ReadAt(s.dev, entryOffset, footer.DescriptorLength)
	if err != nil {
		return records.Descriptor{}, 0, false, err
	}
	if err := records.VerifyChecksum("descriptor", entryOffset, b, footer.Checksum); err != nil {
		return records.Descriptor{}, 0, false, err
	}
	d, err := records.DecodeDescriptor(b)
	if err != nil {
		return records.Descriptor{}, 0, false, errors.WithMessagef(err, "descriptor at offset %d", entryOffset)
	}

	return d, entryOffset, true, nil
}

// commit stores new header.
func (s *Stack) commit(top, blockCapacity uint64) error {
	if err := writeHeader(s.dev, top, blockCapacity); err != nil {
		return err
	}
	if s.config.SyncWrites {
		if err := s.dev.Sync(); err != nil {
			return err
		}
	}
	s.top = top
	s.blockCapacity = blockCapacity
	return nil
}
