package fixed

import (
	"github.com/pkg/errors"

	"github.com/outofforest/fixedstore/persistence"
	"github.com/outofforest/fixedstore/records"
)

// Block references allocated block. It is valid until it is freed or the store is closed.
type Block struct {
	store       *Store
	fileID      string
	startOffset uint64
	capacity    uint64
	freed       bool
}

// FileID returns the ID of the data file the block belongs to.
func (b *Block) FileID() string {
	return b.fileID
}

// StartOffset returns the offset of the block in the data file.
func (b *Block) StartOffset() uint64 {
	return b.startOffset
}

// Capacity returns the number of payload bytes available in the block.
func (b *Block) Capacity() uint64 {
	return b.capacity
}

// ReadHeader reads block header.
func (b *Block) ReadHeader() (records.BlockHeader, error) {
	return b.store.ReadHeader(b)
}

// WriteHeader writes block header.
func (b *Block) WriteHeader(header records.BlockHeader) error {
	return b.store.WriteHeader(b, header)
}

// WriteBody writes header and body to the block.
func (b *Block) WriteBody(header, body []byte) error {
	return b.store.WriteBody(b, header, body)
}

// ReadBody reads header and body from the block.
func (b *Block) ReadBody() ([]byte, []byte, error) {
	return b.store.ReadBody(b)
}

// ReadHeader reads the header of the block.
func (s *Store) ReadHeader(b *Block) (records.BlockHeader, error) {
	if err := s.checkBlock(b); err != nil {
		return records.BlockHeader{}, err
	}

	// Header lives at the start of the block.
	p, err := persistence.ReadAt(s.data, b.startOffset, s.lengths.BlockHeader)
	if err != nil {
		return records.BlockHeader{}, err
	}
	header, err := records.Decode[records.BlockHeader](p)
	if err != nil {
		return records.BlockHeader{}, errors.WithMessagef(err, "block header at offset %d", b.startOffset)
	}
	return header, nil
}

// WriteHeader writes the header of the block.
func (s *Store) WriteHeader(b *Block, header records.BlockHeader) error {
	if err := s.checkBlock(b); err != nil {
		return err
	}
	if err := checkCapacity(b, header.UsedHeaderBytes, header.UsedBodyBytes); err != nil {
		return err
	}

	if err := persistence.WriteAt(s.data, b.startOffset, records.Encode(header)); err != nil {
		return err
	}
	if s.config.SyncWrites {
		return s.data.Sync()
	}
	return nil
}

// WriteBody writes header and body to the payload of the block. Body is stored right after the header.
// Nothing is written if they don't fit into the block.
func (s *Store) WriteBody(b *Block, header, body []byte) error {
	if err := s.checkBlock(b); err != nil {
		return err
	}
	if err := checkCapacity(b, uint64(len(header)), uint64(len(body))); err != nil {
		return err
	}

	payload := make([]byte, 0, len(header)+len(body))
	payload = append(payload, header...)
	payload = append(payload, body...)

	if err := persistence.WriteAt(s.data, b.startOffset+s.lengths.BlockHeader, payload); err != nil {
		return err
	}
	if s.config.SyncWrites {
		if err := s.data.Sync(); err != nil {
			return err
		}
	}

	// Block header is the commit point.
	return s.WriteHeader(b, records.BlockHeader{
		UsedHeaderBytes: uint64(len(header)),
		UsedBodyBytes:   uint64(len(body)),
		Checksum:        records.Checksum(payload),
	})
}

// ReadBody reads header and body stored in the payload of the block.
func (s *Store) ReadBody(b *Block) ([]byte, []byte, error) {
	blockHeader, err := s.ReadHeader(b)
	if err != nil {
		return nil, nil, err
	}
	if err := checkCapacity(b, blockHeader.UsedHeaderBytes, blockHeader.UsedBodyBytes); err != nil {
		return nil, nil, errors.Wrapf(records.ErrDecoding, "block header at offset %d: %s", b.startOffset, err)
	}

	// Block which has never been written has zeroed header.
	if blockHeader.Used() == 0 {
		return []byte{}, []byte{}, nil
	}

	payloadOffset := b.startOffset + s.lengths.BlockHeader
	payload, err := persistence.ReadAt(s.data, payloadOffset, blockHeader.Used())
	if err != nil {
		return nil, nil, err
	}
	if err := records.VerifyChecksum("block payload", payloadOffset, payload, blockHeader.Checksum); err != nil {
		return nil, nil, err
	}

	return payload[:blockHeader.UsedHeaderBytes], payload[blockHeader.UsedHeaderBytes:], nil
}

func checkCapacity(b *Block, headerBytes, bodyBytes uint64) error {
	if headerBytes > b.capacity || bodyBytes > b.capacity-headerBytes {
		return errors.Wrapf(ErrCapacityExceeded, "header: %d bytes, body: %d bytes, capacity: %d",
			headerBytes, bodyBytes, b.capacity)
	}
	return nil
}
