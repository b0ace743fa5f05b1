package http

import (
	"net/http"

	"github.com/goccy/go-json"

	"pennywise/internal/api"
	"pennywise/internal/log"
)

// writeEnvelope sends env as JSON with the given status.
func writeEnvelope[T any](w http.ResponseWriter, r *http.Request, status int, env api.Envelope[T]) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

func writeData[T any](w http.ResponseWriter, r *http.Request, status int, data T, message string) {
	writeEnvelope(w, r, status, api.Success(data, message))
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeEnvelope(w, r, status, api.Failure[any](message))
}

// decodeBody reads a JSON request body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func successMessage(message string) api.Envelope[any] {
	return api.Envelope[any]{Status: api.StatusSuccess, Message: message}
}
