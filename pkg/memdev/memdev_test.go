package memdev

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadAt(t *testing.T) {
	assertT := assert.New(t)

	dev := newDev()

	n, err := dev.ReadAt(nil, 0)
	assertT.NoError(err)
	assertT.EqualValues(0, n)

	n, err = dev.ReadAt([]byte{}, 10)
	assertT.NoError(err)
	assertT.EqualValues(0, n)

	buf := make([]byte, 3)
	n, err = dev.ReadAt(buf, 0)
	assertT.NoError(err)
	assertT.EqualValues(3, n)
	assertT.EqualValues([]byte{0x00, 0x01, 0x02}, buf)

	n, err = dev.ReadAt(buf, 1)
	assertT.NoError(err)
	assertT.EqualValues(3, n)
	assertT.EqualValues([]byte{0x01, 0x02, 0x03}, buf)

	n, err = dev.ReadAt(buf, 9)
	assertT.ErrorIs(err, io.EOF)
	assertT.EqualValues(1, n)
	assertT.EqualValues([]byte{0x09, 0x02, 0x03}, buf)

	n, err = dev.ReadAt(buf, 10)
	assertT.ErrorIs(err, io.EOF)
	assertT.EqualValues(0, n)

	_, err = dev.ReadAt(buf, -1)
	assertT.Error(err)
}

func TestWriteAt(t *testing.T) {
	assertT := assert.New(t)

	dev := newDev()

	n, err := dev.WriteAt(nil, 0)
	assertT.NoError(err)
	assertT.EqualValues(0, n)

	buf := []byte{0x10, 0x11, 0x12}
	n, err = dev.WriteAt(buf, 0)
	assertT.NoError(err)
	assertT.EqualValues(3, n)
	assertT.EqualValues([]byte{0x10, 0x11, 0x12, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, dev.data)

	n, err = dev.WriteAt(buf, 1)
	assertT.NoError(err)
	assertT.EqualValues(3, n)
	assertT.EqualValues([]byte{0x10, 0x10, 0x11, 0x12, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, dev.data)

	// Writing past the end grows the device.
	n, err = dev.WriteAt(buf, 9)
	assertT.NoError(err)
	assertT.EqualValues(3, n)
	assertT.EqualValues([]byte{0x10, 0x10, 0x11, 0x12, 0x04, 0x05, 0x06, 0x07, 0x08, 0x10, 0x11, 0x12}, dev.data)

	n, err = dev.WriteAt(buf, 14)
	assertT.NoError(err)
	assertT.EqualValues(3, n)
	assertT.EqualValues([]byte{
		0x10, 0x10, 0x11, 0x12, 0x04, 0x05, 0x06, 0x07, 0x08, 0x10, 0x11, 0x12, 0x00, 0x00, 0x10, 0x11, 0x12,
	}, dev.data)

	size, err := dev.Size()
	assertT.NoError(err)
	assertT.EqualValues(17, size)

	_, err = dev.WriteAt(buf, -1)
	assertT.Error(err)
}

func TestTruncate(t *testing.T) {
	assertT := assert.New(t)

	dev := newDev()

	assertT.NoError(dev.Truncate(4))
	assertT.EqualValues([]byte{0x00, 0x01, 0x02, 0x03}, dev.data)

	assertT.NoError(dev.Truncate(6))
	assertT.EqualValues([]byte{0x00, 0x01, 0x02, 0x03, 0x00, 0x00}, dev.data)

	assertT.Error(dev.Truncate(-1))
}

func TestFailWritesAfter(t *testing.T) {
	assertT := assert.New(t)

	dev := newDev()
	dev.FailWritesAfter(1)

	_, err := dev.WriteAt([]byte{0x10}, 0)
	assertT.NoError(err)

	n, err := dev.WriteAt([]byte{0x20, 0x21, 0x22, 0x23}, 4)
	assertT.ErrorIs(err, ErrInjected)
	assertT.EqualValues(2, n)
	assertT.EqualValues([]byte{0x10, 0x01, 0x02, 0x03, 0x20, 0x21, 0x06, 0x07, 0x08, 0x09}, dev.data)

	dev.ResetFaults()
	_, err = dev.WriteAt([]byte{0x30}, 9)
	assertT.NoError(err)
}

func TestCloneAndClose(t *testing.T) {
	assertT := assert.New(t)

	dev := newDev()
	clone := dev.Clone()

	assertT.NoError(dev.Close())
	_, err := dev.ReadAt(make([]byte, 1), 0)
	assertT.ErrorIs(err, ErrClosed)
	_, err = dev.WriteAt([]byte{0x00}, 0)
	assertT.ErrorIs(err, ErrClosed)
	assertT.ErrorIs(dev.Sync(), ErrClosed)

	assertT.EqualValues([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09}, clone.Bytes())
	assertT.NoError(clone.Sync())
}

func newDev() *MemDev {
	const size = 10

	dev := New(size)
	for i := 0; i < size; i++ {
		dev.data[i] = byte(i)
	}

	return dev
}
