package storage

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/go-cmp/cmp"
	"github.com/nijaru/yt-stt/models"
	"github.com/pkg/errors"
)

type putCall struct {
	Bucket      string
	Key         string
	ContentType string
	Body        string
}

type fakePutter struct {
	calls []putCall
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.calls = append(f.calls, putCall{
		Bucket:      aws.ToString(in.Bucket),
		Key:         aws.ToString(in.Key),
		ContentType: aws.ToString(in.ContentType),
		Body:        string(body),
	})
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveWritesVTTAndJSON(t *testing.T) {
	putter := &fakePutter{}
	client := NewSpacesClientWith(putter, "transcripts-bucket")
	client.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }

	transcript := &models.Transcript{
		Text:     "hello world",
		Segments: []models.Segment{{Start: 0, End: 1, Text: "hello world"}},
		VTT:      "WEBVTT\n\n1\n00:00:00.000 --> 00:00:01.000\nhello world\n\n",
	}
	req := models.Request{RequestID: "r1", VideoID: "abc", Language: "en"}
	if err := client.Archive(context.Background(), req, transcript); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(putter.calls) != 2 {
		t.Fatalf("expected 2 puts, got %d", len(putter.calls))
	}
	vtt := putter.calls[0]
	if diff := cmp.Diff(putCall{
		Bucket:      "transcripts-bucket",
		Key:         "transcripts/abc/en.vtt",
		ContentType: "text/vtt; charset=utf-8",
		Body:        transcript.VTT,
	}, vtt); diff != "" {
		t.Errorf("vtt put mismatch (-want +got):\n%s", diff)
	}

	js := putter.calls[1]
	if js.Key != "transcripts/abc/en.json" {
		t.Errorf("unexpected json key %q", js.Key)
	}
	var got archivedTranscript
	if err := json.Unmarshal([]byte(js.Body), &got); err != nil {
		t.Fatalf("decode archived json: %v", err)
	}
	if got.Text != "hello world" || got.RequestID != "r1" || len(got.Segments) != 1 {
		t.Errorf("unexpected archived transcript %+v", got)
	}
}

func TestArchivePutError(t *testing.T) {
	putter := &fakePutter{err: &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "bucket missing"}}
	client := NewSpacesClientWith(putter, "gone")

	err := client.Archive(context.Background(), models.Request{VideoID: "abc"}, &models.Transcript{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode() != "NoSuchBucket" {
		t.Errorf("expected wrapped NoSuchBucket, got %v", err)
	}
	if len(putter.calls) != 1 {
		t.Errorf("expected archive to stop after first failed put, got %d puts", len(putter.calls))
	}
}

func TestObjectPrefix(t *testing.T) {
	tests := []struct {
		req  models.Request
		want string
	}{
		{models.Request{VideoID: "abc", Language: "pt"}, "transcripts/abc/pt"},
		{models.Request{VideoID: "abc"}, "transcripts/abc/" + models.DefaultLanguage},
		{models.Request{VideoID: "../etc/passwd", Language: "en"}, "transcripts/__etc_passwd/en"},
	}
	for _, tt := range tests {
		if got := objectPrefix(tt.req); got != tt.want {
			t.Errorf("objectPrefix(%+v) = %q, want %q", tt.req, got, tt.want)
		}
	}
}

func TestSpacesConfigEnabled(t *testing.T) {
	if (SpacesConfig{}).Enabled() {
		t.Error("empty config must be disabled")
	}
	cfg := SpacesConfig{AccessKey: "a", SecretKey: "s", Endpoint: "https://nyc3.digitaloceanspaces.com", Bucket: "b"}
	if !cfg.Enabled() {
		t.Error("complete config must be enabled")
	}
}
