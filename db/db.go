package db

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/nijaru/yt-stt/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const schema = `CREATE TABLE IF NOT EXISTS requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	request_id TEXT NOT NULL,
	video_id TEXT NOT NULL,
	language TEXT NOT NULL DEFAULT '',
	kind TEXT NOT NULL DEFAULT '',
	status INTEGER NOT NULL,
	bytes INTEGER NOT NULL DEFAULT 0,
	segments INTEGER NOT NULL DEFAULT 0,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_requests_video_id ON requests(video_id);`

// Store is an append-only request history. It never holds transcript text.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	logrus.WithField("path", dbPath).Info("Initializing history database")

	if err := os.MkdirAll(filepath.Dir(dbPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(30 * time.Minute)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &Store{db: conn}, nil
}

// Record appends one outcome row.
func (s *Store) Record(ctx context.Context, o *models.Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO requests
		(request_id, video_id, language, kind, status, bytes, segments, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		o.RequestID, o.VideoID, o.Language, o.Kind, o.Status,
		o.Bytes, o.Segments, o.Duration.Milliseconds(), o.CreatedAt.UTC())
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "insert outcome")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
