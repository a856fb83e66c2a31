package youtube

import (
	"testing"

	yt "github.com/kkdai/youtube/v2"
	"github.com/nijaru/yt-stt/models"
)

func TestSelectAudioFormat(t *testing.T) {
	m4a := models.Format{Itag: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, URL: "https://a/140", Bitrate: 129000, AudioQuality: "AUDIO_QUALITY_MEDIUM"}
	opus := models.Format{Itag: 251, MimeType: `audio/webm; codecs="opus"`, URL: "https://a/251", Bitrate: 140000, AudioQuality: "AUDIO_QUALITY_MEDIUM"}
	opusLow := models.Format{Itag: 249, MimeType: `audio/webm; codecs="opus"`, URL: "https://a/249", Bitrate: 50000, AudioQuality: "AUDIO_QUALITY_LOW"}
	muxed := models.Format{Itag: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, URL: "https://a/18", Bitrate: 500000, AudioQuality: "AUDIO_QUALITY_LOW", HasVideo: true}
	muxedMedium := models.Format{Itag: 22, MimeType: "video/mp4", URL: "https://a/22", Bitrate: 900000, AudioQuality: "AUDIO_QUALITY_MEDIUM", HasVideo: true}
	videoOnly := models.Format{Itag: 137, MimeType: "video/mp4", URL: "https://a/137", Bitrate: 4000000, HasVideo: true}
	ciphered := models.Format{Itag: 140, MimeType: "audio/mp4", AudioQuality: "AUDIO_QUALITY_MEDIUM", Ciphered: true}
	bare := models.Format{Itag: 140, MimeType: "audio/mp4", AudioQuality: "AUDIO_QUALITY_MEDIUM"}
	cipheredHigh := models.Format{Itag: 141, MimeType: "audio/mp4", Bitrate: 256000, AudioQuality: "AUDIO_QUALITY_HIGH", Ciphered: true}

	tests := []struct {
		name     string
		formats  []models.Format
		wantItag int
		wantOK   bool
	}{
		{"preferred itag wins", []models.Format{opus, muxed, m4a}, 140, true},
		{"highest quality fallback", []models.Format{opusLow, muxed, opus, videoOnly}, 251, true},
		{"audio-only beats muxed at same quality", []models.Format{muxedMedium, opus}, 251, true},
		{"ciphered preferred wins", []models.Format{opus, ciphered}, 140, true},
		{"preferred without url or cipher is skipped", []models.Format{bare, opusLow}, 249, true},
		{"ciphered fallback ranks by quality", []models.Format{opusLow, cipheredHigh}, 141, true},
		{"muxed when nothing else", []models.Format{videoOnly, muxed}, 18, true},
		{"video only yields nothing", []models.Format{videoOnly}, 0, false},
		{"ciphered only resolves", []models.Format{ciphered}, 140, true},
		{"no url or cipher yields nothing", []models.Format{bare}, 0, false},
		{"empty", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectAudioFormat(tt.formats, DefaultPreferredItag)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got.Itag != tt.wantItag {
				t.Errorf("itag = %d, want %d", got.Itag, tt.wantItag)
			}
		})
	}
}

func TestToFormat(t *testing.T) {
	f := toFormat(yt.Format{
		ItagNo:         18,
		MimeType:       "video/mp4",
		Bitrate:        600000,
		AverageBitrate: 500000,
		Width:          640,
		AudioQuality:   "AUDIO_QUALITY_LOW",
	})
	if !f.HasVideo {
		t.Error("expected HasVideo for video mime")
	}
	if f.Bitrate != 500000 {
		t.Errorf("expected average bitrate, got %d", f.Bitrate)
	}
	if f.Ciphered {
		t.Error("format without cipher reported as ciphered")
	}

	c := toFormat(yt.Format{ItagNo: 140, MimeType: "audio/mp4", Cipher: "s=abc&sp=sig&url=x"})
	if !c.Ciphered || c.URL != "" {
		t.Errorf("expected ciphered format without url, got %+v", c)
	}
}
