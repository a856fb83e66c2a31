package youtube

import (
	"sort"
	"strings"

	yt "github.com/kkdai/youtube/v2"
	"github.com/nijaru/yt-stt/models"
)

// DefaultPreferredItag is the m4a AAC ~128kbps audio-only stream.
const DefaultPreferredItag = 140

var audioQualityRank = map[string]int{
	"AUDIO_QUALITY_ULTRALOW": 1,
	"AUDIO_QUALITY_LOW":      2,
	"AUDIO_QUALITY_MEDIUM":   3,
	"AUDIO_QUALITY_HIGH":     4,
}

// SelectAudioFormat returns the preferred itag when it is fetchable,
// otherwise the highest audio quality stream. A stream is fetchable when it
// has a direct URL or a cipher that can be turned into one. ok is false when
// no fetchable stream with audio exists.
func SelectAudioFormat(formats []models.Format, preferredItag int) (models.Format, bool) {
	idx := selectAudioFormat(formats, preferredItag)
	if idx < 0 {
		return models.Format{}, false
	}
	return formats[idx], true
}

func selectAudioFormat(formats []models.Format, preferredItag int) int {
	for i, f := range formats {
		if f.Itag == preferredItag && fetchable(f) {
			return i
		}
	}

	candidates := make([]int, 0, len(formats))
	for i, f := range formats {
		if fetchable(f) && f.HasAudio() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := formats[candidates[i]], formats[candidates[j]]
		if ra, rb := audioQualityRank[a.AudioQuality], audioQualityRank[b.AudioQuality]; ra != rb {
			return ra > rb
		}
		// Muxed bitrates include video, so audio-only streams rank first.
		if a.HasVideo != b.HasVideo {
			return !a.HasVideo
		}
		return a.Bitrate > b.Bitrate
	})
	return candidates[0]
}

func fetchable(f models.Format) bool {
	return f.URL != "" || f.Ciphered
}

func toFormat(f yt.Format) models.Format {
	bitrate := f.AverageBitrate
	if bitrate == 0 {
		bitrate = f.Bitrate
	}
	return models.Format{
		Itag:            f.ItagNo,
		MimeType:        f.MimeType,
		URL:             f.URL,
		Bitrate:         bitrate,
		AudioQuality:    f.AudioQuality,
		AudioSampleRate: f.AudioSampleRate,
		HasVideo:        strings.HasPrefix(f.MimeType, "video/") || f.Width > 0 || f.QualityLabel != "",
		Ciphered:        f.URL == "" && f.Cipher != "",
	}
}

// collectFormats keeps the order of the source list so indexes line up.
func collectFormats(list yt.FormatList) []models.Format {
	formats := make([]models.Format, 0, len(list))
	for _, f := range list {
		formats = append(formats, toFormat(f))
	}
	return formats
}
