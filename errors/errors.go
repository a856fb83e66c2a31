package errors

import (
	"fmt"
	"math"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// Kind is the stable error code returned to clients in the "error" field.
type Kind string

const (
	KindMissingVideoID      Kind = "missing_yt"
	KindNoAudioFormat       Kind = "no_audio_format"
	KindAudioFetchFailed    Kind = "audio_fetch_failed"
	KindAudioTooLarge       Kind = "audio_too_large"
	KindDownloadTimeout     Kind = "download_timeout"
	KindMissingCredential   Kind = "missing_open_ai_key"
	KindTranscriptionFailed Kind = "whisper_failed"
	KindRateLimited         Kind = "rate_limited"
	KindMethodNotAllowed    Kind = "method_not_allowed"
	KindServerError         Kind = "server_error"
)

// MaxDetailsLength caps every diagnostic string sent back to clients.
const MaxDetailsLength = 600

type AppError struct {
	Kind    Kind           `json:"error"`
	Code    int            `json:"-"`
	Message string         `json:"-"`
	Op      string         `json:"-"`
	Err     error          `json:"-"`
	Fields  map[string]any `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Body returns the JSON error payload: ok=false, the kind, and any diagnostic fields.
func (e *AppError) Body() map[string]any {
	body := map[string]any{
		"ok":    false,
		"error": string(e.Kind),
	}
	for k, v := range e.Fields {
		body[k] = v
	}
	return body
}

func E(kind Kind, code int, op string, err error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func (e *AppError) with(key string, value any) *AppError {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

func MissingVideoID(op string) *AppError {
	return E(KindMissingVideoID, http.StatusBadRequest, op, nil, "video identifier is required")
}

func NoAudioFormat(op string, err error) *AppError {
	return E(KindNoAudioFormat, http.StatusNotFound, op, err, "no playable audio format")
}

func AudioFetchFailed(op string, status int) *AppError {
	return E(KindAudioFetchFailed, http.StatusBadGateway, op, nil,
		fmt.Sprintf("audio fetch returned HTTP %d", status)).with("status", status)
}

// AudioTooLarge reports the exact limit in limitBytes. limitMB is the same
// limit in MiB rounded to two decimals, so non-whole sizes are not truncated.
func AudioTooLarge(op string, limitBytes int64) *AppError {
	limitMB := math.Round(float64(limitBytes)/(1024*1024)*100) / 100
	return E(KindAudioTooLarge, http.StatusRequestEntityTooLarge, op, nil,
		fmt.Sprintf("audio exceeds %d bytes", limitBytes)).
		with("limitMB", limitMB).
		with("limitBytes", limitBytes)
}

func DownloadTimeout(op string, limit time.Duration) *AppError {
	return E(KindDownloadTimeout, http.StatusGatewayTimeout, op, nil,
		fmt.Sprintf("download exceeded %s", limit))
}

func MissingCredential(op string) *AppError {
	return E(KindMissingCredential, http.StatusInternalServerError, op, nil, "transcription credential is not configured")
}

func TranscriptionFailed(op string, status int, details string) *AppError {
	return E(KindTranscriptionFailed, http.StatusBadGateway, op, nil,
		fmt.Sprintf("transcription returned HTTP %d", status)).
		with("status", status).
		with("details", Truncate(details, MaxDetailsLength))
}

func RateLimited(op string) *AppError {
	return E(KindRateLimited, http.StatusTooManyRequests, op, nil, "rate limit exceeded")
}

func MethodNotAllowed(op, method string) *AppError {
	return E(KindMethodNotAllowed, http.StatusMethodNotAllowed, op, nil,
		fmt.Sprintf("method %s not allowed", method))
}

// Internal wraps an unexpected failure as server_error with a truncated diagnostic.
func Internal(op string, err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return E(KindServerError, http.StatusInternalServerError, op, err, "internal error").
		with("details", Truncate(details, MaxDetailsLength))
}

// From returns err as an *AppError, converting anything else into server_error.
func From(op string, err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr
	}
	return Internal(op, err)
}

func KindOf(err error) Kind {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Kind
	}
	if err == nil {
		return ""
	}
	return KindServerError
}

func CodeOf(err error) int {
	var appErr *AppError
	if pkgerrors.As(err, &appErr) {
		return appErr.Code
	}
	if err == nil {
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
