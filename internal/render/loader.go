package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirLoader reads templates from files below a directory.
type DirLoader struct {
	root string
}

// NewDirLoader returns a loader rooted at dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{root: dir}
}

// Load reads the template at name, relative to the loader directory. Names
// that are absolute or climb out of the directory are rejected.
func (l *DirLoader) Load(_ context.Context, name string) (string, error) {
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("template name %q escapes the template directory", name)
	}
	data, err := os.ReadFile(filepath.Join(l.root, name))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, name string) (string, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}
