// Package filex contains the file-system helpers used by the JSON user store
// and the session file: data directory creation, owner-only overwrite and
// atomic replace.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// OwnerOnly is the permission applied to every file holding account data.
const OwnerOnly os.FileMode = 0o600

// EnsureDir creates dir (and parents) with owner-only access if needed.
// Relative paths are resolved against the working directory.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// OverwriteOwnerOnly truncates path (creating it if missing), writes data and
// forces mode 0600 even when the file already existed with wider permissions.
func OverwriteOwnerOnly(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, OwnerOnly)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	if err := f.Chmod(OwnerOnly); err != nil {
		_ = f.Close()
		return fmt.Errorf("chmod %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}

	return f.Close()
}

// ReplaceAtomic writes data to a temporary file in the same directory and
// renames it over path, so readers observe either the old or the new content.
func ReplaceAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(OwnerOnly); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
