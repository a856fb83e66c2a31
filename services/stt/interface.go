package stt

import (
	"context"

	"github.com/nijaru/yt-stt/models"
)

// Resolver picks the audio stream for a video.
type Resolver interface {
	Resolve(ctx context.Context, videoID string) (models.Format, error)
}

// Fetcher downloads a stream URL into memory under size and time limits.
type Fetcher interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Transcriber converts audio into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, videoID, language string) ([]models.Segment, error)
}

// OutcomeRecorder receives one Outcome per request. Optional.
type OutcomeRecorder interface {
	Record(ctx context.Context, outcome *models.Outcome) error
}

// Archiver stores successful transcripts. Optional.
type Archiver interface {
	Archive(ctx context.Context, req models.Request, transcript *models.Transcript) error
}
