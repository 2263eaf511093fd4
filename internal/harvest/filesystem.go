package harvest

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const partialSuffix = ".part"

// FileInfo is a regular file found in a media directory
type FileInfo struct {
	Name string
	Size int64
}

// FileSystem is the slice of filesystem behavior the engine relies on
type FileSystem interface {
	DirExists(path string) bool
	MkdirAll(path string) error
	ListFiles(dir string) ([]FileInfo, error)
	Exists(path string) bool
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	Rename(oldPath, newPath string) error
	Remove(path string) error
	Size(path string) (int64, error)
}

type OSFileSystem struct{}

func (OSFileSystem) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OSFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ListFiles returns regular files in dir sorted by name; in-progress downloads are skipped
func (OSFileSystem) ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), partialSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func (OSFileSystem) Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}

func (OSFileSystem) Rename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

func (OSFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (OSFileSystem) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
