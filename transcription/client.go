package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	apperrors "github.com/nijaru/yt-stt/errors"
	"github.com/nijaru/yt-stt/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultModel = "whisper-1"
	DefaultURL   = "https://api.openai.com/v1/audio/transcriptions"

	invalidResponse = "invalid transcription response"
	maxErrorBody    = 64 * 1024
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type Config struct {
	APIKey     string
	Model      string
	URL        string
	HTTPClient *http.Client
}

// Client uploads audio to a Whisper-compatible endpoint.
type Client struct {
	config Config
	logger *logrus.Logger
}

// verboseResponse is the verbose_json body. Segments is a pointer so a
// missing field can be told apart from an empty list.
type verboseResponse struct {
	Text     string     `json:"text"`
	Language string     `json:"language"`
	Duration float64    `json:"duration"`
	Segments *[]segment `json:"segments"`
}

type segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{config: cfg, logger: logger}
}

// Transcribe sends audio in one request and returns the timed segments.
func (c *Client) Transcribe(ctx context.Context, audio []byte, videoID, language string) ([]models.Segment, error) {
	const op = "transcription.Transcribe"
	if c.config.APIKey == "" {
		return nil, apperrors.MissingCredential(op)
	}

	logger := c.logger.WithFields(logrus.Fields{
		"video_id": videoID,
		"language": language,
		"bytes":    len(audio),
	})

	body, contentType, err := c.encodeForm(audio, videoID, language)
	if err != nil {
		return nil, apperrors.Internal(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, body)
	if err != nil {
		return nil, apperrors.Internal(op, errors.Wrap(err, "build transcription request"))
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		return nil, apperrors.Internal(op, errors.Wrap(err, "transcription request"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.WithField("status", resp.StatusCode).Warn("Transcription API rejected request")
		return nil, apperrors.TranscriptionFailed(op, resp.StatusCode, string(details))
	}

	var vr verboseResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil || vr.Segments == nil {
		logger.WithError(err).WithField("status", resp.StatusCode).Warn("Malformed transcription response")
		return nil, apperrors.TranscriptionFailed(op, resp.StatusCode, invalidResponse)
	}

	segments := make([]models.Segment, 0, len(*vr.Segments))
	for _, s := range *vr.Segments {
		segments = append(segments, models.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}

	logger.WithFields(logrus.Fields{
		"segments": len(segments),
		"duration": vr.Duration,
	}).Info("Transcription completed")
	return segments, nil
}

func (c *Client) encodeForm(audio []byte, videoID, language string) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	// CreateFormFile would label the part application/octet-stream.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s.m4a"`, quoteEscaper.Replace(videoID)))
	header.Set("Content-Type", "audio/mp4")
	fw, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", errors.Wrap(err, "create file part")
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, "", errors.Wrap(err, "write file part")
	}

	fields := [][2]string{
		{"model", c.config.Model},
		{"language", language},
		{"response_format", "verbose_json"},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", errors.Wrapf(err, "write field %s", f[0])
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart")
	}
	return &buf, mw.FormDataContentType(), nil
}
