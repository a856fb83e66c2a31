package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/nijaru/yt-stt/models"
	"github.com/pkg/errors"
)

type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
}

// Enabled reports whether enough settings are present to build a client.
func (c SpacesConfig) Enabled() bool {
	return c.Bucket != "" && c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Putter is the subset of *s3.Client the archive writes through.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SpacesClient writes finished transcripts to an S3-compatible bucket.
// Objects are write-only; nothing in the service reads them back.
type SpacesClient struct {
	client Putter
	bucket string
	now    func() time.Time
}

type archivedTranscript struct {
	RequestID  string           `json:"request_id"`
	VideoID    string           `json:"video_id"`
	Language   string           `json:"language"`
	Text       string           `json:"text"`
	Segments   []models.Segment `json:"segments"`
	ArchivedAt time.Time        `json:"archived_at"`
}

func NewSpacesClient(ctx context.Context, cfg SpacesConfig) (*SpacesClient, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "load SDK config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	})
	return NewSpacesClientWith(client, cfg.Bucket), nil
}

func NewSpacesClientWith(client Putter, bucket string) *SpacesClient {
	return &SpacesClient{client: client, bucket: bucket, now: time.Now}
}

// Archive stores the VTT and a JSON copy under transcripts/<video>/<lang>.
func (s *SpacesClient) Archive(ctx context.Context, req models.Request, t *models.Transcript) error {
	prefix := objectPrefix(req)

	data, err := json.Marshal(archivedTranscript{
		RequestID:  req.RequestID,
		VideoID:    req.VideoID,
		Language:   req.Language,
		Text:       t.Text,
		Segments:   t.Segments,
		ArchivedAt: s.now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "marshal transcript")
	}

	if err := s.put(ctx, prefix+".vtt", "text/vtt; charset=utf-8", []byte(t.VTT)); err != nil {
		return err
	}
	return s.put(ctx, prefix+".json", "application/json", data)
}

func (s *SpacesClient) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return errors.Wrapf(err, "put %s: %s", key, apiErr.ErrorCode())
		}
		return errors.Wrapf(err, "put %s", key)
	}
	return nil
}

func objectPrefix(req models.Request) string {
	lang := req.Language
	if lang == "" {
		lang = models.DefaultLanguage
	}
	return fmt.Sprintf("transcripts/%s/%s", sanitizeKey(req.VideoID), sanitizeKey(lang))
}

var keyReplacer = strings.NewReplacer("/", "_", "\\", "_", "..", "_")

func sanitizeKey(s string) string {
	return keyReplacer.Replace(s)
}
