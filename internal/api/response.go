package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/logger"
)

const maxBodyBytes = int64(1 << 20)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// writeError answers with {"error": ...} and the status matching the
// error kind. Errors from outside the panel are not echoed.
func writeError(w http.ResponseWriter, err error) {
	var he *apperrors.HTTPError
	if !errors.As(err, &he) {
		logger.Error("unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, apperrors.StatusCode(err), map[string]string{"error": err.Error()})
}

// decodePayload reads a JSON object or a url-encoded form into a key/value
// map. An empty body yields an empty map.
func decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return nil, apperrors.Validation("invalid form body")
		}
		payload := make(map[string]any, len(r.PostForm))
		for key, values := range r.PostForm {
			if len(values) > 0 {
				payload[key] = values[0]
			}
		}
		return payload, nil
	}

	payload := map[string]any{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.Validation("invalid request body")
	}
	return payload, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return nil
}
