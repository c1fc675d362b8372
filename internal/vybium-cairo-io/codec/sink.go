package codec

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/vybium/vybium-cairo-io/internal/vybium-cairo-io/core"
)

// Default buffer capacities for the artifact files
const (
	DefaultTraceBufferSize  = 3 << 20
	DefaultMemoryBufferSize = 5 << 20
)

// WithFileSink runs fn against a buffered writer for path.
//
// Output goes to a temporary file in the target directory which is flushed,
// synced, made world-readable (0644) and renamed over path only when fn
// succeeds. On any failure the
// temporary file is removed and path is left untouched.
func WithFileSink(path string, bufSize int, fn func(io.Writer) error) (err error) {
	if bufSize <= 0 {
		bufSize = 4096
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "failed to create temporary file")
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriterSize(tmp, bufSize)
	if err = fn(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "failed to flush")
	}
	if err = tmp.Sync(); err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "failed to sync")
	}
	if err = tmp.Chmod(0o644); err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "failed to set mode")
	}
	if err = tmp.Close(); err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "failed to close")
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return core.WrapError(core.KindIOFailure, path, err, "failed to rename into place")
	}
	return nil
}
