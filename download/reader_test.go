package download

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	apperrors "github.com/nijaru/yt-stt/errors"
)

// chunkedBody returns one predefined chunk per Read call.
type chunkedBody struct {
	chunks [][]byte
	closed bool
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks = b.chunks[1:]
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.closed = true
	return nil
}

// steppingClock advances by step on every call.
func steppingClock(step time.Duration) func() time.Time {
	current := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

func TestBoundedReaderConcatenatesInOrder(t *testing.T) {
	body := &chunkedBody{chunks: [][]byte{[]byte("ab"), []byte("cd"), []byte("ef")}}
	r := NewBoundedReader(body, 1024, time.Minute)
	defer r.Close()

	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != "abcdef" {
		t.Errorf("expected 'abcdef', got %q", got)
	}
	if r.Received() != 6 {
		t.Errorf("expected 6 bytes received, got %d", r.Received())
	}
}

func TestBoundedReaderExactLimitSucceeds(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, int(DefaultMaxBytes))
	r := NewBoundedReader(io.NopCloser(bytes.NewReader(payload)), DefaultMaxBytes, time.Minute)
	defer r.Close()

	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("expected success at exactly the limit, got %v", err)
	}
	if int64(len(got)) != DefaultMaxBytes {
		t.Errorf("expected %d bytes, got %d", DefaultMaxBytes, len(got))
	}
}

func TestBoundedReaderOneByteOverLimitFails(t *testing.T) {
	payload := bytes.Repeat([]byte{0x42}, int(DefaultMaxBytes)+1)
	r := NewBoundedReader(io.NopCloser(bytes.NewReader(payload)), DefaultMaxBytes, time.Minute)
	defer r.Close()

	_, err := r.ReadAll()
	if apperrors.KindOf(err) != apperrors.KindAudioTooLarge {
		t.Fatalf("expected audio_too_large, got %v", err)
	}

	appErr := apperrors.From("test", err)
	if appErr.Fields["limitMB"] != float64(25) {
		t.Errorf("expected limitMB 25, got %v", appErr.Fields["limitMB"])
	}
	if appErr.Fields["limitBytes"] != DefaultMaxBytes {
		t.Errorf("expected limitBytes %d, got %v", DefaultMaxBytes, appErr.Fields["limitBytes"])
	}
}

func TestBoundedReaderSizeCheckedPerChunk(t *testing.T) {
	body := &chunkedBody{chunks: [][]byte{
		[]byte("12345"),
		[]byte("67890"),
		[]byte("never read"),
	}}
	r := NewBoundedReader(body, 8, time.Minute)
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatalf("first chunk: unexpected error %v", err)
	}
	if _, err := r.Next(); apperrors.KindOf(err) != apperrors.KindAudioTooLarge {
		t.Fatalf("second chunk: expected audio_too_large, got %v", err)
	}
	if len(body.chunks) != 1 {
		t.Errorf("expected the reader to stop before the third chunk, %d left", len(body.chunks))
	}

	// The terminal error sticks.
	if _, err := r.Next(); apperrors.KindOf(err) != apperrors.KindAudioTooLarge {
		t.Errorf("expected terminal error to repeat, got %v", err)
	}
}

func TestBoundedReaderElapsedTimeAborts(t *testing.T) {
	body := &chunkedBody{chunks: [][]byte{
		[]byte("a"), []byte("b"), []byte("c"), []byte("d"),
	}}
	r := NewBoundedReader(body, DefaultMaxBytes, DefaultMaxDuration, WithClock(steppingClock(20*time.Second)))
	defer r.Close()

	for i := 0; i < 2; i++ {
		if _, err := r.Next(); err != nil {
			t.Fatalf("chunk %d: unexpected error %v", i, err)
		}
	}
	if _, err := r.Next(); apperrors.KindOf(err) != apperrors.KindDownloadTimeout {
		t.Fatalf("expected download_timeout after 60s, got %v", err)
	}
}

func TestBoundedReaderSizeCheckedBeforeTime(t *testing.T) {
	body := &chunkedBody{chunks: [][]byte{[]byte("too big")}}
	r := NewBoundedReader(body, 3, time.Second, WithClock(steppingClock(time.Minute)))
	defer r.Close()

	if _, err := r.Next(); apperrors.KindOf(err) != apperrors.KindAudioTooLarge {
		t.Fatalf("expected audio_too_large to win, got %v", err)
	}
}

func TestBoundedReaderStalledBodyTimesOut(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	r := NewBoundedReader(pr, DefaultMaxBytes, 50*time.Millisecond)
	defer r.Close()

	done := make(chan error, 1)
	go func() {
		_, err := r.Next()
		done <- err
	}()

	select {
	case err := <-done:
		if apperrors.KindOf(err) != apperrors.KindDownloadTimeout {
			t.Fatalf("expected download_timeout, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next blocked past the time ceiling")
	}
}

func TestBoundedReaderReadErrorIsServerError(t *testing.T) {
	body := io.NopCloser(io.MultiReader(strings.NewReader("ok"), errReader{}))
	r := NewBoundedReader(body, DefaultMaxBytes, time.Minute)
	defer r.Close()

	_, err := r.ReadAll()
	if apperrors.KindOf(err) != apperrors.KindServerError {
		t.Fatalf("expected server_error, got %v", err)
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
