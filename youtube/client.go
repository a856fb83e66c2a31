package youtube

import (
	"context"
	"net/http"

	yt "github.com/kkdai/youtube/v2"
	apperrors "github.com/nijaru/yt-stt/errors"
	"github.com/nijaru/yt-stt/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// VideoSource lists the streams of a video and turns one of them into a
// fetchable URL, deciphering signatureCipher streams when needed.
// *yt.Client satisfies it.
type VideoSource interface {
	GetVideoContext(ctx context.Context, id string) (*yt.Video, error)
	GetStreamURLContext(ctx context.Context, video *yt.Video, format *yt.Format) (string, error)
}

type Config struct {
	PreferredItag int
	HTTPClient    *http.Client
	Source        VideoSource
}

// Client resolves a video ID to one downloadable audio stream.
type Client struct {
	config Config
	logger *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.PreferredItag == 0 {
		cfg.PreferredItag = DefaultPreferredItag
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Source == nil {
		cfg.Source = &yt.Client{HTTPClient: cfg.HTTPClient}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{config: cfg, logger: logger}
}

// Resolve fetches metadata for videoID, selects its audio stream and returns
// it with a URL the downloader can fetch directly.
func (c *Client) Resolve(ctx context.Context, videoID string) (models.Format, error) {
	const op = "youtube.Resolve"
	logger := c.logger.WithField("video_id", videoID)

	video, err := c.config.Source.GetVideoContext(ctx, videoID)
	if err != nil {
		if unavailable(err) {
			logger.WithError(err).Warn("Video has no playable streams")
			return models.Format{}, apperrors.NoAudioFormat(op, err)
		}
		return models.Format{}, apperrors.Internal(op, errors.Wrap(err, "fetch video metadata"))
	}

	formats := collectFormats(video.Formats)
	idx := selectAudioFormat(formats, c.config.PreferredItag)
	if idx < 0 {
		logger.WithField("formats", len(formats)).Warn("No usable audio format")
		return models.Format{}, apperrors.NoAudioFormat(op, errors.Errorf("no audio among %d formats", len(formats)))
	}

	format := formats[idx]
	streamURL, err := c.config.Source.GetStreamURLContext(ctx, video, &video.Formats[idx])
	if err != nil {
		return models.Format{}, apperrors.Internal(op, errors.Wrapf(err, "stream url for itag %d", format.Itag))
	}
	if streamURL == "" {
		return models.Format{}, apperrors.Internal(op, errors.Errorf("empty stream url for itag %d", format.Itag))
	}
	format.URL = streamURL

	logger.WithFields(logrus.Fields{
		"itag":      format.Itag,
		"mime_type": format.MimeType,
		"bitrate":   format.Bitrate,
		"ciphered":  format.Ciphered,
		"preferred": format.Itag == c.config.PreferredItag,
	}).Info("Audio format selected")
	return format, nil
}

// unavailable reports errors that mean the video itself cannot be streamed.
func unavailable(err error) bool {
	for _, target := range []error{
		yt.ErrVideoPrivate,
		yt.ErrLoginRequired,
		yt.ErrNotPlayableInEmbed,
		yt.ErrInvalidCharactersInVideoID,
		yt.ErrVideoIDMinLength,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
