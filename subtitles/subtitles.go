package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nijaru/yt-stt/models"
)

const vttHeader = "WEBVTT\n\n"

// Build turns upstream segments into the response transcript: trimmed segments,
// the space-joined full text and a WEBVTT cue block. Segment order is preserved.
func Build(segments []models.Segment) models.Transcript {
	cleaned := make([]models.Segment, len(segments))
	texts := make([]string, len(segments))
	for i, seg := range segments {
		cleaned[i] = models.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		}
		texts[i] = cleaned[i].Text
	}

	return models.Transcript{
		Text:     strings.TrimSpace(strings.Join(texts, " ")),
		Segments: cleaned,
		VTT:      FormatVTT(cleaned),
	}
}

// FormatVTT renders numbered cues. Texts are written as given.
func FormatVTT(segments []models.Segment) string {
	var b strings.Builder
	b.WriteString(vttHeader)
	for i, seg := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteByte('\n')
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm. The value is rounded to the
// nearest millisecond first so 3661.005 does not drift to .004. Negative, NaN
// and infinite inputs render as zero.
func FormatTimestamp(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	total := int64(math.Round(seconds * 1000))

	ms := total % 1000
	sec := (total / 1000) % 60
	min := (total / 60000) % 60
	hours := total / 3600000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, min, sec, ms)
}
