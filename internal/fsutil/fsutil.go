// Package fsutil opens and creates data files, transparently handling
// gzip/zstd compression by extension and writing outputs atomically.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultFileMode is the permission of newly written outputs.
const DefaultFileMode os.FileMode = 0o644

// ErrIO marks failures to open, read, write or rename a file.
var ErrIO = errors.New("i/o failure")

// Compression identifies a stream compression format.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
)

// CompressionFor picks the compression format from the file extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// zstdReadCloser closes both the decoder and the underlying file.
// *zstd.Decoder.Close does not return an error, so it cannot be an io.ReadCloser itself.
type zstdReadCloser struct {
	*zstd.Decoder
	f *os.File
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return z.f.Close()
}

type gzipReadCloser struct {
	*gzip.Reader
	f *os.File
}

func (g gzipReadCloser) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens path for reading, decompressing when the extension asks for it.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrIO, path, err)
	}

	switch CompressionFor(path) {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: reading gzip header of %s: %w", ErrIO, path, err)
		}
		return gzipReadCloser{Reader: zr, f: f}, nil
	case Zstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: opening zstd stream %s: %w", ErrIO, path, err)
		}
		return zstdReadCloser{Decoder: zr, f: f}, nil
	default:
		return f, nil
	}
}

// AtomicFile writes to a temporary file next to the destination and only
// renames it into place on Commit. Abort (or a failed Commit) removes the
// temporary file, so readers never observe a truncated output.
type AtomicFile struct {
	path string
	f    *os.File
	w    io.Writer
	enc  io.WriteCloser
	done bool
}

// CreateAtomic starts writing path. Output is compressed according to the
// destination extension.
func CreateAtomic(path string) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %w", ErrIO, path, err)
	}

	a := &AtomicFile{path: path, f: f, w: f}
	switch CompressionFor(path) {
	case Gzip:
		a.enc = gzip.NewWriter(f)
	case Zstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
			return nil, fmt.Errorf("%w: creating zstd stream %s: %w", ErrIO, path, err)
		}
		a.enc = enc
	}
	if a.enc != nil {
		a.w = a.enc
	}
	return a, nil
}

// Path returns the final destination path.
func (a *AtomicFile) Path() string {
	return a.path
}

// Write implements io.Writer.
func (a *AtomicFile) Write(p []byte) (int, error) {
	n, err := a.w.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: writing %s: %w", ErrIO, a.path, err)
	}
	return n, nil
}

// Commit flushes, closes and renames the file into place.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true

	tmp := a.f.Name()
	if a.enc != nil {
		if err := a.enc.Close(); err != nil {
			_ = a.f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("%w: finishing %s: %w", ErrIO, a.path, err)
		}
	}
	if err := a.f.Chmod(a.mode()); err != nil {
		_ = a.f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: setting mode of %s: %w", ErrIO, a.path, err)
	}
	if err := a.f.Sync(); err != nil {
		_ = a.f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: syncing %s: %w", ErrIO, a.path, err)
	}
	if err := a.f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: closing %s: %w", ErrIO, a.path, err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: renaming into %s: %w", ErrIO, a.path, err)
	}
	return nil
}

// mode keeps the permissions of an existing destination; new files get
// DefaultFileMode.
func (a *AtomicFile) mode() os.FileMode {
	if fi, err := os.Stat(a.path); err == nil && fi.Mode().IsRegular() {
		return fi.Mode().Perm()
	}
	return DefaultFileMode
}

// Abort discards the temporary file. It is a no-op after Commit.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true
	_ = a.f.Close()
	return os.Remove(a.f.Name())
}

// WriteFileAtomic writes the output of fn to path atomically.
func WriteFileAtomic(path string, fn func(w io.Writer) error) error {
	a, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if err := fn(a); err != nil {
		_ = a.Abort()
		return err
	}
	return a.Commit()
}
