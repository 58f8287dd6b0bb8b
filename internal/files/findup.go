package files

import (
	"os"
	"path/filepath"
)

// FindUp walks from dir toward the filesystem root looking for an entry
// with the given name, returning its full path or "" if no ancestor
// directory contains it. Unreadable directories are skipped.
func FindUp(name, dir string) string {
	curDir := dir
	for {
		entries, err := os.ReadDir(curDir)
		if err == nil {
			for _, e := range entries {
				if name == e.Name() {
					return filepath.Join(curDir, name)
				}
			}
		}
		newDir := filepath.Dir(curDir)
		if newDir == curDir {
			return ""
		}
		curDir = newDir
	}
}

// FirstExisting returns the first of the given paths that exists, or "" if
// none do.
func FirstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
