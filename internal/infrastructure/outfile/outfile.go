// Package outfile writes generated files so that a destination is either
// fully replaced or left untouched.
package outfile

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kurochkinivan/modbus_map_maker/internal/domain"
)

const (
	DirPerm  = 0o755
	FilePerm = 0o644
)

// File is one destination of WriteAll.
type File struct {
	Path string
	Data []byte
}

// Write stores data at path through a temporary file in the same directory
// renamed over the destination. Failures come back as *domain.FileAccessError.
func Write(path string, data []byte) error {
	return WriteAll(File{Path: path, Data: data})
}

// WriteAll stages every file next to its destination before renaming any of
// them, so running out of space or permissions leaves all destinations
// untouched. Only a failing rename can leave the set partly replaced.
func WriteAll(files ...File) error {
	staged := make([]string, 0, len(files))

	for _, f := range files {
		tmp, err := stage(f.Path, f.Data)
		if err != nil {
			return withCleanup(err, staged)
		}
		staged = append(staged, tmp)
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			return withCleanup(&domain.FileAccessError{Op: "rename", Path: f.Path, Err: err}, staged[i:])
		}
	}

	return nil
}

func stage(path string, data []byte) (_ string, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", &domain.FileAccessError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, removeIfExists(tmp.Name()))
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", &domain.FileAccessError{Op: "write", Path: path, Err: errors.Join(err, tmp.Close())}
	}

	if err := tmp.Close(); err != nil {
		return "", &domain.FileAccessError{Op: "write", Path: path, Err: err}
	}

	if err := os.Chmod(tmp.Name(), FilePerm); err != nil {
		return "", &domain.FileAccessError{Op: "chmod", Path: path, Err: err}
	}

	return tmp.Name(), nil
}

func withCleanup(err error, staged []string) error {
	errs := []error{err}
	for _, tmp := range staged {
		errs = append(errs, removeIfExists(tmp))
	}
	return errors.Join(errs...)
}

// MkdirAll creates dir and its parents.
func MkdirAll(dir string) error {
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return &domain.FileAccessError{Op: "create directory", Path: dir, Err: err}
	}
	return nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
