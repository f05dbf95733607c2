package records

import (
	"unicode/utf8"

	"github.com/outofforest/photon"
	"github.com/pkg/errors"
)

var (
	// ErrEncoding is returned if record can't be represented in binary form.
	ErrEncoding = errors.New("encoding failed")

	// ErrDecoding is returned if bytes don't form a valid record.
	ErrDecoding = errors.New("decoding failed")
)

// Lengths stores the lengths of the encoded fixed-shape records.
type Lengths struct {
	StackHeader uint64
	Footer      uint64
	BlockHeader uint64
}

// ComputeLengths computes lengths of fixed-shape records by encoding their zero values.
func ComputeLengths() Lengths {
	return Lengths{
		StackHeader: Size[StackHeader](),
		Footer:      Size[Footer](),
		BlockHeader: Size[BlockHeader](),
	}
}

// Size returns the length of encoded record.
func Size[T Fixed]() uint64 {
	var v T
	return uint64(len(photon.NewFromValue(&v).B))
}

// Encode encodes fixed-shape record.
func Encode[T Fixed](v T) []byte {
	return photon.NewFromValue(&v).B
}

// Decode decodes fixed-shape record.
func Decode[T Fixed](b []byte) (T, error) {
	var v T
	size := Size[T]()
	if uint64(len(b)) != size {
		return v, errors.Wrapf(ErrDecoding, "%T requires %d bytes, got %d", v, size, len(b))
	}

	// Copy is taken so the record is not aliased with the buffer and is correctly aligned.
	buf := make([]byte, size)
	copy(buf, b)
	return *photon.NewFromBytes[T](buf).V, nil
}

// EncodeDescriptor encodes descriptor. The length of the result depends on the length of file ID.
func EncodeDescriptor(d Descriptor) ([]byte, error) {
	switch {
	case d.FileID == "":
		return nil, errors.Wrap(ErrEncoding, "file ID is empty")
	case len(d.FileID) > MaxFileIDLength:
		return nil, errors.Wrapf(ErrEncoding, "file ID is too long: %d bytes, max: %d", len(d.FileID), MaxFileIDLength)
	case !utf8.ValidString(d.FileID):
		return nil, errors.Wrapf(ErrEncoding, "file ID is not valid UTF-8: %q", d.FileID)
	}

	prefix := descriptorPrefix{
		StartOffset:  d.StartOffset,
		Capacity:     d.Capacity,
		FileIDLength: uint64(len(d.FileID)),
	}
	prefixBytes := photon.NewFromValue(&prefix).B

	b := make([]byte, 0, len(prefixBytes)+len(d.FileID))
	b = append(b, prefixBytes...)
	return append(b, d.FileID...), nil
}

// DecodeDescriptor decodes descriptor.
func DecodeDescriptor(b []byte) (Descriptor, error) {
	var prefix descriptorPrefix
	prefixSize := uint64(len(photon.NewFromValue(&prefix).B))
	if uint64(len(b)) < prefixSize {
		return Descriptor{}, errors.Wrapf(ErrDecoding, "descriptor requires at least %d bytes, got %d", prefixSize, len(b))
	}

	buf := make([]byte, prefixSize)
	copy(buf, b)
	prefix = *photon.NewFromBytes[descriptorPrefix](buf).V

	fileID := b[prefixSize:]
	switch {
	case prefix.FileIDLength != uint64(len(fileID)):
		return Descriptor{}, errors.Wrapf(ErrDecoding, "descriptor declares file ID of %d bytes, got %d",
			prefix.FileIDLength, len(fileID))
	case len(fileID) == 0:
		return Descriptor{}, errors.Wrap(ErrDecoding, "descriptor contains empty file ID")
	case !utf8.Valid(fileID):
		return Descriptor{}, errors.Wrap(ErrDecoding, "descriptor contains file ID which is not valid UTF-8")
	}

	return Descriptor{
		FileID:      string(fileID),
		StartOffset: prefix.StartOffset,
		Capacity:    prefix.Capacity,
	}, nil
}
