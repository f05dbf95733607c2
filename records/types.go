package records

import (
	"github.com/outofforest/photon"
)

const (
	// StackSubject identifies the file as a free-list stack file.
	StackSubject = 0b0100011001010010010001010100010101001100010010010101001101010100

	// MaxFileIDLength is the maximum length of the file ID stored in the descriptor.
	MaxFileIDLength = 4096
)

// Hash represents checksum.
type Hash uint64

// Fixed defines the constraint for generics using fixed-shape records.
type Fixed interface {
	StackHeader | Footer | BlockHeader
}

// StackHeader is stored at offset 0 of the stack file.
type StackHeader struct {
	Magic     uint64
	TopOffset uint64

	// BlockCapacity is the capacity of blocks described by the stack, 0 if not bound yet.
	BlockCapacity uint64
	Checksum      Hash
}

// ComputeChecksum computes checksum of the header.
func (h StackHeader) ComputeChecksum() Hash {
	h.Checksum = 0
	return Checksum(photon.NewFromValue(&h).B)
}

// Footer follows each descriptor stored in the stack.
type Footer struct {
	DescriptorLength uint64
	Checksum         Hash
}

// BlockHeader is the structural header prefixed to every block.
type BlockHeader struct {
	UsedHeaderBytes uint64
	UsedBodyBytes   uint64

	// Checksum covers the used payload bytes (header followed by body).
	Checksum Hash
}

// Used returns the number of payload bytes in use.
func (h BlockHeader) Used() uint64 {
	return h.UsedHeaderBytes + h.UsedBodyBytes
}

// Descriptor describes a freed block.
type Descriptor struct {
	FileID      string
	StartOffset uint64
	Capacity    uint64
}

// descriptorPrefix is the fixed part of the serialized descriptor, file ID bytes follow it.
type descriptorPrefix struct {
	StartOffset  uint64
	Capacity     uint64
	FileIDLength uint64
}
