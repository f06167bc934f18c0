// Package atomicfile provides the temp-file-plus-rename write used by
// every persisted blob in Dynafile (partition data and table metadata),
// so a reader never observes a torn file for either.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Write atomically replaces path's contents with data. It creates the
// parent directory if necessary, writes to a uniquely named temp file
// in the same directory (so the final rename is same-filesystem), syncs
// it, renames it over path, and best-effort syncs the parent directory.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	syncDir(dir)
	return nil
}

// syncDir best-effort fsyncs a directory so the rename above survives a
// crash on filesystems that require it. Failure is not fatal: not every
// platform supports opening a directory for read, and the rename itself
// has already landed.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// Read returns the contents of path, or (nil, nil) if it does not
// exist.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}
