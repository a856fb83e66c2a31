package utils

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/nijaru/yt-stt/errors"
	"github.com/sirupsen/logrus"
)

const ContentTypeJSON = "application/json; charset=utf-8"

// SetCommonHeaders applies the headers every response carries.
func SetCommonHeaders(h http.Header) {
	h.Set("Content-Type", ContentTypeJSON)
	h.Set("Cache-Control", "no-store")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	h.Set("Access-Control-Allow-Headers", "authorization,content-type")
}

func RespondWithJSON(w http.ResponseWriter, status int, payload any) {
	SetCommonHeaders(w.Header())
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode response")
	}
}

// RespondWithError renders err as {ok:false, error:<kind>, ...}. Errors that
// are not tagged become server_error.
func RespondWithError(w http.ResponseWriter, op string, err error) {
	appErr := apperrors.From(op, err)
	if appErr == nil {
		appErr = apperrors.Internal(op, nil)
	}
	RespondWithJSON(w, appErr.Code, appErr.Body())
}
