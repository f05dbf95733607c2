// Package fixedstore maps logical table names to the directories holding fixed block stores.
package fixedstore

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/outofforest/fixedstore/fixed"
)

// ErrDirectoryCreation is returned if directory of the table can't be created.
var ErrDirectoryCreation = errors.New("creating directory failed")

// Root is the directory containing tables. Each table is a directory containing store files.
type Root struct {
	path string
	log  *logrus.Entry
}

// New returns new root. If log is nil default logger is used.
func New(path string, log *logrus.Entry) *Root {
	if log == nil {
		log = logrus.WithField("module", "fixedstore")
	}
	return &Root{
		path: path,
		log:  log,
	}
}

// Path returns the path of the root.
func (r *Root) Path() string {
	return r.path
}

// EnsureDirectory returns the directory of the table, creating it if it does not exist.
func (r *Root) EnsureDirectory(name string) (string, error) {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return "", errors.Wrapf(ErrDirectoryCreation, "invalid table name: %q", name)
	}

	path := filepath.Join(r.path, name)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", errors.Wrapf(ErrDirectoryCreation, "%s exists and is not a directory", path)
		}
		return path, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", errors.Wrapf(ErrDirectoryCreation, "checking %s failed: %s", path, err)
	}

	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", errors.Wrapf(ErrDirectoryCreation, "%s", err)
	}

	r.log.WithField("path", path).Info("Table directory created")
	return path, nil
}

// OpenFixed opens the fixed block store named fixedName inside the directory of the table.
func (r *Root) OpenFixed(name, fixedName string, config fixed.Config) (*fixed.Store, error) {
	dir, err := r.EnsureDirectory(name)
	if err != nil {
		return nil, err
	}
	return fixed.Open(dir, fixedName, config)
}
