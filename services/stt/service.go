package stt

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/nijaru/yt-stt/errors"
	"github.com/nijaru/yt-stt/models"
	"github.com/nijaru/yt-stt/subtitles"
	"github.com/sirupsen/logrus"
)

type Service struct {
	resolver    Resolver
	fetcher     Fetcher
	transcriber Transcriber
	recorder    OutcomeRecorder
	archiver    Archiver
	logger      *logrus.Logger
	now         func() time.Time
}

type Option func(*Service)

func WithRecorder(r OutcomeRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(resolver Resolver, fetcher Fetcher, transcriber Transcriber, logger *logrus.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &Service{
		resolver:    resolver,
		fetcher:     fetcher,
		transcriber: transcriber,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Transcribe runs resolve, download, transcribe and format for one video.
// The first failing stage ends the request; nothing partial is returned.
func (s *Service) Transcribe(ctx context.Context, req models.Request) (*models.Transcript, error) {
	const op = "STTService.Transcribe"
	started := s.now()
	logger := s.logger.WithFields(logrus.Fields{
		"operation":  op,
		"request_id": req.RequestID,
		"video_id":   req.VideoID,
		"language":   req.Language,
	})

	outcome := &models.Outcome{
		RequestID: req.RequestID,
		VideoID:   req.VideoID,
		Language:  req.Language,
		CreatedAt: started,
	}

	transcript, err := s.run(ctx, req, outcome)
	// Sinks still run when the client has gone away.
	sinkCtx := context.WithoutCancel(ctx)
	outcome.Duration = s.now().Sub(started)
	if err != nil {
		appErr := apperrors.From(op, err)
		outcome.Kind = string(appErr.Kind)
		outcome.Status = appErr.Code
		logger.WithError(err).WithField("error_kind", appErr.Kind).Warn("Transcription request failed")
		s.record(sinkCtx, logger, outcome)
		return nil, appErr
	}

	outcome.Status = http.StatusOK
	outcome.Segments = len(transcript.Segments)
	logger.WithFields(logrus.Fields{
		"segments": outcome.Segments,
		"bytes":    outcome.Bytes,
		"duration": outcome.Duration.String(),
	}).Info("Transcription request completed")

	s.record(sinkCtx, logger, outcome)
	if s.archiver != nil {
		if err := s.archiver.Archive(sinkCtx, req, transcript); err != nil {
			logger.WithError(err).Error("Failed to archive transcript")
		}
	}
	return transcript, nil
}

func (s *Service) run(ctx context.Context, req models.Request, outcome *models.Outcome) (*models.Transcript, error) {
	const op = "STTService.run"
	if req.VideoID == "" {
		return nil, apperrors.MissingVideoID(op)
	}

	format, err := s.resolver.Resolve(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}

	audio, err := s.fetcher.Download(ctx, format.URL)
	if err != nil {
		return nil, err
	}
	outcome.Bytes = len(audio)

	segments, err := s.transcriber.Transcribe(ctx, audio, req.VideoID, req.Language)
	if err != nil {
		return nil, err
	}

	transcript := subtitles.Build(segments)
	return &transcript, nil
}

func (s *Service) record(ctx context.Context, logger *logrus.Entry, outcome *models.Outcome) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, outcome); err != nil {
		logger.WithError(err).Error("Failed to record request outcome")
	}
}
