package validation

import (
	"net/url"
	"strings"

	"github.com/nijaru/yt-stt/models"
)

var youtubeHosts = map[string]bool{
	"youtube.com":              true,
	"www.youtube.com":          true,
	"m.youtube.com":            true,
	"music.youtube.com":        true,
	"youtube-nocookie.com":     true,
	"www.youtube-nocookie.com": true,
	"youtu.be":                 true,
}

// NormalizeVideoID extracts the video ID when raw is a YouTube watch, shorts,
// embed, live or youtu.be URL. Anything else is returned trimmed, unchanged.
func NormalizeVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "/") {
		return raw
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	u, err := url.Parse(candidate)
	if err != nil || !youtubeHosts[strings.ToLower(u.Hostname())] {
		return raw
	}

	if strings.EqualFold(u.Hostname(), "youtu.be") {
		if id := firstSegment(u.Path); id != "" {
			return id
		}
		return raw
	}

	if v := u.Query().Get("v"); v != "" {
		return v
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 {
		switch parts[0] {
		case "shorts", "embed", "live", "v":
			if parts[1] != "" {
				return parts[1]
			}
		}
	}
	return raw
}

// NormalizeLanguage trims lang and falls back to the default language.
func NormalizeLanguage(lang, fallback string) string {
	lang = strings.TrimSpace(lang)
	if lang != "" {
		return lang
	}
	if fallback != "" {
		return fallback
	}
	return models.DefaultLanguage
}

func firstSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return path
}
