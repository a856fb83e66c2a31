package download

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/nijaru/yt-stt/errors"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent is the browser-like identifier the video host expects.
const DefaultUserAgent = "Mozilla/5.0"

type Config struct {
	MaxBytes    int64
	MaxDuration time.Duration
	UserAgent   string
	HTTPClient  *http.Client
}

type Downloader struct {
	config Config
	logger *logrus.Logger
	opts   []ReaderOption
}

func NewDownloader(cfg Config, logger *logrus.Logger, opts ...ReaderOption) *Downloader {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Downloader{config: cfg, logger: logger, opts: opts}
}

// Download fetches url into memory, enforcing the size and time ceilings while
// the body streams in.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	const op = "Downloader.Download"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}
	req.Header.Set("User-Agent", d.config.UserAgent)

	resp, err := d.config.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		d.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
		}).Warn("Audio fetch rejected")
		return nil, apperrors.AudioFetchFailed(op, resp.StatusCode)
	}

	reader := NewBoundedReader(resp.Body, d.config.MaxBytes, d.config.MaxDuration, d.opts...)
	defer reader.Close()

	start := time.Now()
	audio, err := reader.ReadAll()
	if err != nil {
		d.logger.WithFields(logrus.Fields{
			"bytes":    reader.Received(),
			"duration": time.Since(start),
			"error":    err,
		}).Warn("Audio download aborted")
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"bytes":    len(audio),
		"duration": time.Since(start),
	}).Debug("Audio downloaded")
	return audio, nil
}
