package discovery

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Extensions are the file extensions recognised as SDL.
var Extensions = []string{".graphql", ".graphqls", ".gql"}

// FileSystem discovers SDL files below a root directory.
type FileSystem struct {
	root  string
	files []string
}

// NewFileSystem walks rootDir and records every SDL file under it. Names
// are slash-separated paths relative to rootDir.
func NewFileSystem(rootDir string) (*FileSystem, error) {
	d := &FileSystem{root: rootDir}
	err := filepath.WalkDir(rootDir, func(path string, e os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() || !isSDL(e.Name()) {
			return nil
		}
		rel, err := filepath.Rel(rootDir, path)
		if err != nil {
			return errors.Wrapf(err, "relative path for %q", path)
		}
		d.files = append(d.files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walk %q", rootDir)
	}
	return d, nil
}

func isSDL(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (d *FileSystem) List(context.Context) ([]string, error) {
	return append([]string(nil), d.files...), nil
}

func (d *FileSystem) Read(_ context.Context, name string) (string, error) {
	content, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
	if err != nil {
		return "", errors.Wrapf(err, "read schema document %q", name)
	}
	return string(content), nil
}

// LoadPath returns the SDL at path, which is either one file or a directory
// searched with NewFileSystem.
func LoadPath(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(err, "read schema")
	}
	if !info.IsDir() {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", errors.Wrap(err, "read schema")
		}
		return string(content), nil
	}
	d, err := NewFileSystem(path)
	if err != nil {
		return "", err
	}
	return Load(ctx, d)
}
