package filedev

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWrite(t *testing.T) {
	requireT := require.New(t)

	dev, err := Open(filepath.Join(t.TempDir(), "dev"))
	requireT.NoError(err)
	t.Cleanup(func() {
		_ = dev.Close()
	})

	size, err := dev.Size()
	requireT.NoError(err)
	requireT.EqualValues(0, size)

	n, err := dev.WriteAt([]byte{0x01, 0x02, 0x03}, 5)
	requireT.NoError(err)
	requireT.Equal(3, n)

	size, err = dev.Size()
	requireT.NoError(err)
	requireT.EqualValues(8, size)

	buf := make([]byte, 8)
	n, err = dev.ReadAt(buf, 0)
	requireT.NoError(err)
	requireT.Equal(8, n)
	requireT.Equal([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x02, 0x03}, buf)

	n, err = dev.ReadAt(buf, 4)
	requireT.ErrorIs(err, io.EOF)
	requireT.Equal(4, n)

	requireT.NoError(dev.Sync())
}

func TestTruncate(t *testing.T) {
	requireT := require.New(t)

	dev, err := Open(filepath.Join(t.TempDir(), "dev"))
	requireT.NoError(err)
	t.Cleanup(func() {
		_ = dev.Close()
	})

	_, err = dev.WriteAt(make([]byte, 100), 0)
	requireT.NoError(err)
	requireT.NoError(dev.Truncate(10))

	size, err := dev.Size()
	requireT.NoError(err)
	requireT.EqualValues(10, size)
}

func TestReopenKeepsData(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "dev")
	dev, err := Open(path)
	requireT.NoError(err)
	_, err = dev.WriteAt([]byte("data"), 0)
	requireT.NoError(err)
	requireT.NoError(dev.Close())

	dev, err = Open(path)
	requireT.NoError(err)
	t.Cleanup(func() {
		_ = dev.Close()
	})
	requireT.Equal(path, dev.Name())

	buf := make([]byte, 4)
	_, err = dev.ReadAt(buf, 0)
	requireT.NoError(err)
	requireT.Equal([]byte("data"), buf)
}
