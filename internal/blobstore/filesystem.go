package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileSystemStore keeps blobs under a root directory, mirroring the logical
// directory tree. Staged writes land in <root>/.staging and are promoted
// with a rename so a promoted blob is never half-written.
type FileSystemStore struct {
	root       string
	stagingDir string
}

// NewFileSystemStore creates a store rooted at the given path.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	stagingDir := filepath.Join(root, ".staging")
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &FileSystemStore{root: root, stagingDir: stagingDir}, nil
}

// resolve maps a logical key to an absolute path, rejecting keys that would
// escape the root.
func (s *FileSystemStore) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *FileSystemStore) Open(key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrBlobNotFound)
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return f, nil
}

func (s *FileSystemStore) Exists(key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat blob: %w", err)
	}
	return true, nil
}

func (s *FileSystemStore) Stage(key string, r io.Reader) (Staged, error) {
	dest, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.stagingDir, "upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to stage blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("failed to close staging file: %w", err)
	}

	return &stagedFile{tmpPath: tmp.Name(), destPath: dest, size: written}, nil
}

func (s *FileSystemStore) Copy(src, dst string) error {
	srcPath, err := s.resolve(src)
	if err != nil {
		return err
	}
	dstPath, err := s.resolve(dst)
	if err != nil {
		return err
	}

	in, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", src, ErrBlobNotFound)
		}
		return fmt.Errorf("failed to open source blob: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	out, err := os.CreateTemp(filepath.Dir(dstPath), ".copy-*")
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	tmpPath := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to copy blob: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close destination file: %w", err)
	}
	if err := os.Rename(tmpPath, dstPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize copy: %w", err)
	}
	return nil
}

func (s *FileSystemStore) Remove(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

func (s *FileSystemStore) RemoveAll(prefix string) error {
	path, err := s.resolve(prefix)
	if err != nil {
		return err
	}
	if path == s.root {
		return fmt.Errorf("refusing to remove store root")
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove blob tree: %w", err)
	}
	return nil
}

func (s *FileSystemStore) MkdirAll(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

type stagedFile struct {
	tmpPath  string
	destPath string
	size     int64
	done     bool
}

func (f *stagedFile) Promote() error {
	if f.done {
		return fmt.Errorf("staged blob already finalized")
	}
	if err := os.MkdirAll(filepath.Dir(f.destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	if err := os.Rename(f.tmpPath, f.destPath); err != nil {
		return fmt.Errorf("failed to promote staged blob: %w", err)
	}
	f.done = true
	return nil
}

func (f *stagedFile) Discard() error {
	if f.done {
		return nil
	}
	f.done = true
	if err := os.Remove(f.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to discard staged blob: %w", err)
	}
	return nil
}

func (f *stagedFile) Size() int64 { return f.size }

var _ Store = (*FileSystemStore)(nil)
