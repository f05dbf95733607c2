package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	requireT := require.New(t)

	root := t.TempDir()
	run := func(args ...string) (string, error) {
		out := &bytes.Buffer{}
		app := newApp()
		app.Writer = out
		app.ErrWriter = io.Discard
		err := app.Run(append([]string{"fixedctl", "--root", root, "--name", "test.db", "--table", "user_index",
			"--capacity", "64"}, args...))
		return out.String(), err
	}

	out, err := run("alloc")
	requireT.NoError(err)
	offsetA := strings.TrimSpace(out)

	out, err = run("alloc")
	requireT.NoError(err)
	offsetB := strings.TrimSpace(out)
	requireT.NotEqual(offsetA, offsetB)

	_, err = run("write", offsetB, "hdr", "payload")
	requireT.NoError(err)

	out, err = run("read", offsetB)
	requireT.NoError(err)
	requireT.Equal("header: \"hdr\"\nbody: \"payload\"\n", out)

	_, err = run("free", offsetA)
	requireT.NoError(err)

	out, err = run("freelist")
	requireT.NoError(err)
	requireT.Equal("user_index\t"+offsetA+"\t64\n", out)

	// Freed block can't be freed again.
	_, err = run("free", offsetA)
	requireT.Error(err)

	out, err = run("stats")
	requireT.NoError(err)
	requireT.Contains(out, "blocks: 2\nfree blocks: 1\n")

	out, err = run("alloc")
	requireT.NoError(err)
	requireT.Equal(offsetA, strings.TrimSpace(out))

	_, err = run("free", offsetB)
	requireT.NoError(err)
	out, err = run("discard-free")
	requireT.NoError(err)
	requireT.Equal("user_index\t"+offsetB+"\t64\n", out)

	// Free-list is empty.
	out, err = run("discard-free")
	requireT.NoError(err)
	requireT.Empty(out)
	out, err = run("freelist")
	requireT.NoError(err)
	requireT.Empty(out)

	_, err = run("read", "abc")
	requireT.Error(err)

	_, err = run("write", offsetB)
	requireT.Error(err)
}

func TestLogLevel(t *testing.T) {
	requireT := require.New(t)

	run := func(root, level string) string {
		errOut := &bytes.Buffer{}
		app := newApp()
		app.Writer = io.Discard
		app.ErrWriter = errOut
		requireT.NoError(app.Run([]string{"fixedctl", "--root", root, "--name", "test.db", "--table", "user_index",
			"--log-level", level, "stats"}))
		return errOut.String()
	}

	errOut := run(t.TempDir(), "info")
	requireT.Contains(errOut, "Table directory created")
	requireT.Contains(errOut, "Store opened")

	requireT.Empty(run(t.TempDir(), "warn"))
}

func TestConfigFile(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "fixedstore.toml")
	requireT.NoError(os.WriteFile(configPath, []byte(`
root = "`+filepath.ToSlash(dir)+`"
name = "test.db"
table = "user_index"
block_capacity = 32
log_level = "warn"
`), 0o600))

	out := &bytes.Buffer{}
	app := newApp()
	app.Writer = out
	app.ErrWriter = io.Discard
	requireT.NoError(app.Run([]string{"fixedctl", "--config", configPath, "stats"}))
	requireT.Contains(out.String(), "block capacity: 32\n")

	// Flags override the file, store created with different capacity can't be opened.
	app = newApp()
	app.Writer = io.Discard
	app.ErrWriter = io.Discard
	err := app.Run([]string{"fixedctl", "--config", configPath, "--capacity", "64", "stats"})
	requireT.Error(err)
}
