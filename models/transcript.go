package models

import (
	"strings"
	"time"
)

// DefaultLanguage is used when a request carries no lang parameter.
const DefaultLanguage = "pt"

// Request is one transcription request.
type Request struct {
	RequestID string `json:"request_id,omitempty"`
	VideoID   string `json:"video_id"`
	Language  string `json:"language"`
}

// Format describes one selectable stream of a hosted video.
type Format struct {
	Itag            int    `json:"itag"`
	MimeType        string `json:"mime_type"`
	URL             string `json:"url"`
	Bitrate         int    `json:"bitrate"`
	AudioQuality    string `json:"audio_quality,omitempty"`
	AudioSampleRate string `json:"audio_sample_rate,omitempty"`
	HasVideo        bool   `json:"has_video"`
	// Ciphered streams carry a signatureCipher instead of a URL.
	Ciphered bool `json:"ciphered,omitempty"`
}

// HasAudio reports whether the stream carries an audio track.
func (f Format) HasAudio() bool {
	return f.AudioQuality != "" || strings.HasPrefix(f.MimeType, "audio/")
}

// Segment is a time-bounded span of transcript text, in seconds.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the formatted result of one request.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	VTT      string    `json:"vtt"`
}

// TranscriptResponse is the success body of the transcribe endpoint.
type TranscriptResponse struct {
	OK       bool      `json:"ok"`
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	VTT      string    `json:"vtt"`
}

func NewTranscriptResponse(t *Transcript) *TranscriptResponse {
	segments := t.Segments
	if segments == nil {
		segments = []Segment{}
	}
	return &TranscriptResponse{
		OK:       true,
		Text:     t.Text,
		Segments: segments,
		VTT:      t.VTT,
	}
}

// Outcome records how a single request ended. It never holds transcript text.
type Outcome struct {
	RequestID string        `json:"request_id"`
	VideoID   string        `json:"video_id"`
	Language  string        `json:"language"`
	Kind      string        `json:"kind"`
	Status    int           `json:"status"`
	Bytes     int           `json:"bytes"`
	Segments  int           `json:"segments"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Succeeded reports whether the request produced a transcript.
func (o *Outcome) Succeeded() bool { return o.Kind == "" }
