package download

import (
	"context"
	"math"
	"time"

	"github.com/handiism/podcast-backup/internal/http"
	ioutils "github.com/handiism/podcast-backup/internal/io"
	"gitlab.com/tozd/go/errors"
)

// ErrAlreadyExists is returned by Fetch when the destination exists and
// overwriting was not requested.
var ErrAlreadyExists = errors.Base("file already exists")

// RetryConfig controls how failed transfers are retried.
type RetryConfig struct {
	// Attempts is the total number of tries per file. Values below 1 mean 1.
	Attempts int

	// Cooldown is the first wait in seconds; each further wait is
	// multiplied by Exponent.
	Cooldown float64
	Exponent float64
}

// Downloader fetches remote files into place through an AtomicWriter.
type Downloader struct {
	client *http.Client
	writer *ioutils.AtomicWriter
	retry  RetryConfig
}

// NewDownloader creates a Downloader.
func NewDownloader(client *http.Client, writer *ioutils.AtomicWriter, retry RetryConfig) *Downloader {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	return &Downloader{client: client, writer: writer, retry: retry}
}

// Fetch streams url into dest and returns the number of bytes written.
//
// If dest exists and overwrite is false, Fetch returns ErrAlreadyExists
// without touching the network. A failed attempt never leaves a partial file
// at dest.
//
// Example:
//
//	n, err := d.Fetch(ctx, ep.EnclosureURL, path, false, nil)
//	if errors.Is(err, ErrAlreadyExists) {
//	    // counted as skipped
//	}
func (d *Downloader) Fetch(ctx context.Context, url, dest string, overwrite bool, onProgress func(written, total int64)) (int64, error) {
	if !overwrite {
		exists, err := d.writer.Exists(dest)
		if err != nil {
			return 0, errors.WithStack(err)
		}
		if exists {
			return 0, errors.WithStack(ErrAlreadyExists)
		}
	}

	var written int64
	err := d.withRetry(ctx, func() error {
		body, size, err := d.client.Open(ctx, url)
		if err != nil {
			return err
		}
		defer body.Close()

		written, err = d.writer.WriteFrom(dest, body, size, onProgress)
		return err
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// DownloadImage fetches an image and returns its bytes. When dest is not
// empty the image is also written there atomically.
func (d *Downloader) DownloadImage(ctx context.Context, url, dest string) ([]byte, error) {
	var data []byte
	err := d.withRetry(ctx, func() error {
		var err error
		data, err = d.client.Get(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}

	if dest != "" {
		if err := d.writer.WriteFile(dest, data); err != nil {
			return data, err
		}
	}
	return data, nil
}

func (d *Downloader) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for tries := 0; tries < d.retry.Attempts; tries++ {
		err = fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || tries == d.retry.Attempts-1 {
			break
		}
		d.waitForRetry(ctx, tries)
	}
	return err
}

func (d *Downloader) waitForRetry(ctx context.Context, tries int) {
	cooldown := d.retry.Cooldown * math.Pow(d.retry.Exponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}
