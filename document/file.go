package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lokireturns/loki-jsonschema-resolver/internal/fileutil"
	"github.com/lokireturns/loki-jsonschema-resolver/referrors"
)

// Load reads the JSON document at path. The root must be an object.
func Load(path string) (*Object, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: paths come from the scanned target directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &referrors.FileError{Path: path, NotFound: true, Cause: err}
		}
		return nil, &referrors.FileError{Path: path, Message: "reading file", Cause: err}
	}
	obj, err := ParseObject(data)
	if err != nil {
		return nil, &referrors.FileError{Path: path, Cause: err}
	}
	return obj, nil
}

// Save writes v to path as indented JSON. The write goes through a
// temporary file in the same directory and an atomic rename, and an
// existing file keeps its permissions.
func Save(path string, v any) error {
	data, err := MarshalIndent(v)
	if err != nil {
		return fmt.Errorf("document: encoding %s: %w", path, err)
	}

	mode := fileutil.OwnerReadWrite
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("document: creating temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op after a successful rename
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("document: writing %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("document: setting mode on %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("document: closing %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("document: replacing %s: %w", path, err)
	}
	return nil
}
