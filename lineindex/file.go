package lineindex

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/hupe1980/linescan/internal/fs"
)

// Extension is the file extension of stored indexes.
const Extension = ".lsix"

// WriteFile stores x at path. The index is written to a temporary file in
// the same directory and renamed over path once synced, so path holds
// either the previous index or the complete new one.
func WriteFile(fsys fs.FileSystem, path string, x *Index) (err error) {
	if fsys == nil {
		fsys = fs.Default
	}
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := fsys.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = fsys.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	if _, err := x.WriteTo(w); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return fsys.Rename(tmp, path)
}

// ReadFile loads an index stored by WriteFile.
func ReadFile(fsys fs.FileSystem, path string) (*Index, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(bufio.NewReader(f))
}
