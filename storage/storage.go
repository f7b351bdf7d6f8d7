// Package storage reads and writes the files served under /files/.
package storage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNoDirectory      = errors.New("no directory configured")
	ErrOutsideDirectory = errors.New("name resolves outside the directory")
)

// FileStore keeps files directly under a single directory.
// The zero value has no directory and fails every operation with [ErrNoDirectory].
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (fs *FileStore) Dir() string { return fs.dir }

func (fs *FileStore) Read(name string) ([]byte, error) {
	path, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", name)
	}

	return b, nil
}

// Write creates or truncates the file and writes data to it.
// Missing parent directories are not created.
func (fs *FileStore) Write(name string, data []byte) error {
	path, err := fs.resolve(name)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %q", name)
	}

	return nil
}

// resolve joins name onto the directory, whether or not the directory ends with a separator.
func (fs *FileStore) resolve(name string) (string, error) {
	if fs.dir == "" {
		return "", ErrNoDirectory
	}

	if name == "" {
		return "", errors.Wrap(os.ErrNotExist, "empty file name")
	}

	path := filepath.Join(fs.dir, name)

	rel, err := filepath.Rel(filepath.Clean(fs.dir), path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrOutsideDirectory, "%q", name)
	}

	return path, nil
}
