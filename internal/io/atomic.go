package ioutils

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// TempSuffix marks in-flight files written by AtomicWriter.
const TempSuffix = ".tmp"

// AtomicWriter writes files through a temporary sibling and a rename.
//
// Content is streamed into a temp file created in the destination's own
// directory, so the final rename never crosses a filesystem boundary. If the
// copy fails the temp file is removed and the destination is left untouched:
// observers see either the previous version or the complete new one.
//
// Example:
//
//	w := NewAtomicWriter(afero.NewOsFs())
//	n, err := w.WriteFrom("/archive/episodes/230515-Intro.mp3", resp.Body, resp.ContentLength, nil)
type AtomicWriter struct {
	fs afero.Fs
}

// NewAtomicWriter creates an AtomicWriter on top of fs.
func NewAtomicWriter(fs afero.Fs) *AtomicWriter {
	return &AtomicWriter{fs: fs}
}

// WriteFrom streams r into dest and returns the number of bytes written.
//
// onProgress, if not nil, receives (bytesWritten, total) after each chunk;
// total is passed through unchanged and may be -1 when unknown.
func (w *AtomicWriter) WriteFrom(dest string, r io.Reader, total int64, onProgress func(written, total int64)) (int64, error) {
	dir := filepath.Dir(dest)
	if err := w.fs.MkdirAll(dir, 0755); err != nil {
		return 0, errors.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(w.fs, dir, "."+filepath.Base(dest)+".*"+TempSuffix)
	if err != nil {
		return 0, errors.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	var writer io.Writer = tmp
	if onProgress != nil {
		writer = &ProgressWriter{Writer: tmp, Total: total, OnUpdate: onProgress}
	}

	written, copyErr := io.Copy(writer, r)
	if copyErr == nil {
		copyErr = tmp.Sync()
	}
	closeErr := tmp.Close()

	if copyErr != nil || closeErr != nil {
		_ = w.fs.Remove(tmpName)
		if copyErr != nil {
			return written, errors.Errorf("writing %s: %w", filepath.Base(dest), copyErr)
		}
		return written, errors.Errorf("closing temp file: %w", closeErr)
	}

	if err := w.fs.Rename(tmpName, dest); err != nil {
		_ = w.fs.Remove(tmpName)
		return written, errors.Errorf("renaming into place: %w", err)
	}

	return written, nil
}

// WriteFile atomically replaces dest with data.
func (w *AtomicWriter) WriteFile(dest string, data []byte) error {
	_, err := w.WriteFrom(dest, bytes.NewReader(data), int64(len(data)), nil)
	return err
}

// Exists reports whether path exists.
func (w *AtomicWriter) Exists(path string) (bool, error) {
	_, err := w.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// ProgressWriter wraps a writer to track transfer progress.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}
