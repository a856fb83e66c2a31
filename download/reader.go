package download

import (
	"bytes"
	"io"
	"sync/atomic"
	"time"

	apperrors "github.com/nijaru/yt-stt/errors"
)

const (
	// DefaultMaxBytes is the largest audio payload accepted (25 MiB).
	DefaultMaxBytes int64 = 25 * 1024 * 1024
	// DefaultMaxDuration bounds the wall-clock time spent reading the body.
	DefaultMaxDuration = 45 * time.Second

	chunkSize = 32 * 1024
)

// BoundedReader yields a body chunk by chunk and fails as soon as either the
// size or the elapsed-time ceiling is crossed. A stalled body is closed when
// the time ceiling expires, so Next never blocks past it.
type BoundedReader struct {
	body        io.ReadCloser
	maxBytes    int64
	maxDuration time.Duration
	now         func() time.Time

	started  time.Time
	received int64
	buf      []byte
	timer    *time.Timer
	expired  atomic.Bool
	err      error
}

type ReaderOption func(*BoundedReader)

// WithClock replaces time.Now for elapsed-time checks.
func WithClock(now func() time.Time) ReaderOption {
	return func(r *BoundedReader) {
		r.now = now
	}
}

// NewBoundedReader starts the clock immediately.
func NewBoundedReader(body io.ReadCloser, maxBytes int64, maxDuration time.Duration, opts ...ReaderOption) *BoundedReader {
	r := &BoundedReader{
		body:        body,
		maxBytes:    maxBytes,
		maxDuration: maxDuration,
		now:         time.Now,
		buf:         make([]byte, chunkSize),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.started = r.now()
	r.timer = time.AfterFunc(maxDuration, func() {
		r.expired.Store(true)
		body.Close()
	})
	return r
}

// Received returns the number of bytes read so far.
func (r *BoundedReader) Received() int64 {
	return r.received
}

// Next returns the next chunk, io.EOF once the body is drained, or a terminal
// audio_too_large / download_timeout error. The returned slice is only valid
// until the following call.
func (r *BoundedReader) Next() ([]byte, error) {
	const op = "BoundedReader.Next"

	if r.err != nil {
		return nil, r.err
	}

	for {
		n, err := r.body.Read(r.buf)
		if n > 0 {
			r.received += int64(n)
			if r.received > r.maxBytes {
				return nil, r.fail(apperrors.AudioTooLarge(op, r.maxBytes))
			}
			if r.now().Sub(r.started) > r.maxDuration {
				return nil, r.fail(apperrors.DownloadTimeout(op, r.maxDuration))
			}
			return r.buf[:n], nil
		}

		if err == io.EOF {
			return nil, r.fail(io.EOF)
		}
		if err != nil {
			if r.expired.Load() {
				return nil, r.fail(apperrors.DownloadTimeout(op, r.maxDuration))
			}
			return nil, r.fail(apperrors.Internal(op, err))
		}
	}
}

// ReadAll drains the reader into one contiguous buffer in arrival order.
func (r *BoundedReader) ReadAll() ([]byte, error) {
	var out bytes.Buffer
	for {
		chunk, err := r.Next()
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, err
		}
		out.Write(chunk)
	}
}

// Close stops the timer and closes the body.
func (r *BoundedReader) Close() error {
	r.timer.Stop()
	return r.body.Close()
}

func (r *BoundedReader) fail(err error) error {
	r.err = err
	r.timer.Stop()
	return err
}
