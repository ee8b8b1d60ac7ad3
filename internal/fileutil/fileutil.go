package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// OwnerReadWrite is the file permission mode for newly written documents
// (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// FindFiles returns the absolute paths of all regular files under root whose
// name ends with ext, sorted lexically. Hidden directories are skipped.
func FindFiles(root, ext string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("fileutil: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fileutil: %s is not a directory", root)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("fileutil: resolving %s: %w", root, err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fileutil: scanning %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// ListDirs returns root and every non-hidden directory below it.
func ListDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fileutil: listing %s: %w", root, err)
	}
	return dirs, nil
}
