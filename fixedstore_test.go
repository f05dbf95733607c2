package fixedstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/fixedstore/fixed"
)

func TestEnsureDirectory(t *testing.T) {
	requireT := require.New(t)

	root := New(filepath.Join(t.TempDir(), "run_test"), nil)

	path, err := root.EnsureDirectory("test.db")
	requireT.NoError(err)
	requireT.Equal(filepath.Join(root.Path(), "test.db"), path)
	requireT.DirExists(path)

	// Existing directory is reused.
	path2, err := root.EnsureDirectory("test.db")
	requireT.NoError(err)
	requireT.Equal(path, path2)
}

func TestLogger(t *testing.T) {
	requireT := require.New(t)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)
	root := New(t.TempDir(), logrus.NewEntry(logger))

	path, err := root.EnsureDirectory("test.db")
	requireT.NoError(err)

	entry := hook.LastEntry()
	requireT.NotNil(entry)
	requireT.Equal("Table directory created", entry.Message)
	requireT.Equal(path, entry.Data["path"])

	// Messages below configured level are not logged.
	hook.Reset()
	logger.SetLevel(logrus.WarnLevel)
	_, err = root.EnsureDirectory("test2.db")
	requireT.NoError(err)
	requireT.Empty(hook.AllEntries())
}

func TestEnsureDirectoryErrors(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	root := New(dir, nil)

	for _, name := range []string{"", ".", "..", "a/b"} {
		_, err := root.EnsureDirectory(name)
		requireT.ErrorIs(err, ErrDirectoryCreation, "Name: %q", name)
	}

	requireT.NoError(os.WriteFile(filepath.Join(dir, "file"), []byte{}, 0o600))
	_, err := root.EnsureDirectory("file")
	requireT.ErrorIs(err, ErrDirectoryCreation)

	// Root itself is a file.
	_, err = New(filepath.Join(dir, "file"), nil).EnsureDirectory("table")
	requireT.ErrorIs(err, ErrDirectoryCreation)
}

func TestOpenFixed(t *testing.T) {
	requireT := require.New(t)

	root := New(t.TempDir(), nil)

	s, err := root.OpenFixed("test.db", "user_index", fixed.Config{BlockCapacity: 64})
	requireT.NoError(err)

	b, err := s.AllocateBlock()
	requireT.NoError(err)
	requireT.NoError(b.WriteBody([]byte("header"), []byte("body")))
	requireT.NoError(s.Close())

	requireT.FileExists(filepath.Join(root.Path(), "test.db", "user_index"))
	requireT.FileExists(filepath.Join(root.Path(), "test.db", "user_index"+fixed.DeleteSuffix))

	s, err = root.OpenFixed("test.db", "user_index", fixed.Config{BlockCapacity: 64})
	requireT.NoError(err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	b, err = s.Lookup(b.StartOffset())
	requireT.NoError(err)
	header, body, err := b.ReadBody()
	requireT.NoError(err)
	requireT.Equal([]byte("header"), header)
	requireT.Equal([]byte("body"), body)
}
