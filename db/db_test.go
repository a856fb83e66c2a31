package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nijaru/yt-stt/models"
	"github.com/pkg/errors"
)

// get reads back the latest outcome recorded for requestID.
func (s *Store) get(ctx context.Context, requestID string) (*models.Outcome, error) {
	var (
		o          models.Outcome
		durationMS int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT request_id, video_id, language, kind, status,
		bytes, segments, duration_ms, created_at
		FROM requests WHERE request_id = ? ORDER BY id DESC LIMIT 1`, requestID).
		Scan(&o.RequestID, &o.VideoID, &o.Language, &o.Kind, &o.Status,
			&o.Bytes, &o.Segments, &durationMS, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Duration = time.Duration(durationMS) * time.Millisecond
	return &o, nil
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	want := &models.Outcome{
		RequestID: "req-1",
		VideoID:   "dQw4w9WgXcQ",
		Language:  "pt",
		Status:    200,
		Bytes:     2048,
		Segments:  12,
		Duration:  1500 * time.Millisecond,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Record(ctx, want); err != nil {
		t.Fatalf("Failed to record outcome: %v", err)
	}

	got, err := store.get(ctx, "req-1")
	if err != nil {
		t.Fatalf("Failed to get outcome: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outcome mismatch (-want +got):\n%s", diff)
	}
	if !got.Succeeded() {
		t.Error("expected a successful outcome")
	}
}

func TestRecordFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, &models.Outcome{
		RequestID: "req-2",
		VideoID:   "abc",
		Kind:      "audio_too_large",
		Status:    413,
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("Failed to record outcome: %v", err)
	}

	got, err := store.get(ctx, "req-2")
	if err != nil {
		t.Fatalf("Failed to get outcome: %v", err)
	}
	if got.Succeeded() || got.Kind != "audio_too_large" || got.Status != 413 {
		t.Errorf("unexpected outcome %+v", got)
	}
}

func TestGetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.get(context.Background(), "nope")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestPing(t *testing.T) {
	store := openTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestOpenError(t *testing.T) {
	// A regular file cannot be used as a directory.
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	store, err := Open(file)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	store.Close()

	if _, err := Open(filepath.Join(file, "history.db")); err == nil {
		t.Fatal("expected error, got nil")
	}
}
