package ingest

import (
	"os"
	"path/filepath"
)

// walkFiles walks root recursively, following symlinks, and calls fn
// for every regular file. Directory cycles introduced by symlinks are
// broken with a visited set of resolved paths.
func walkFiles(root string, fn func(path string) error) error {
	visited := make(map[string]struct{})
	return walkDir(root, visited, fn)
}

func walkDir(dir string, visited map[string]struct{}, fn func(string) error) error {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		if _, seen := visited[resolved]; seen {
			return nil
		}
		visited[resolved] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path) // follows symlinks
		if err != nil {
			continue
		}
		if info.IsDir() {
			if err := walkDir(path, visited, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(path); err != nil {
			return err
		}
	}
	return nil
}
