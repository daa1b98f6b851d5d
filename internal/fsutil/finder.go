// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for all files ending
// with the specified extension. It returns a slice of their full paths.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	return files, nil
}

// ExpandPaths resolves a mixed list of file and directory paths into a flat,
// deduplicated list of files carrying the given extension. Directories are
// walked recursively; explicit file paths are kept regardless of extension.
func ExpandPaths(paths []string, extension string) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	add := func(path string) {
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			found, err := FindFilesByExtension(path, extension)
			if err != nil {
				return nil, err
			}
			for _, f := range found {
				add(f)
			}
			continue
		}
		add(path)
	}
	return files, nil
}

// EnsureDir creates the directory and any missing parents with 0o755
// permissions. It is a no-op when the directory already exists.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}
