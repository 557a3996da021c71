package common

import (
	"errors"
	"net/http"

	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	"go.uber.org/zap"
)

// HttpError carries the status code an error should be answered with.
type HttpError struct {
	Status int
	Err    error
}

func (e *HttpError) Error() string {
	return e.Err.Error()
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func WithStatus(status int, err error) error {
	if err == nil {
		return nil
	}
	return &HttpError{Status: status, Err: err}
}

func StatusOf(err error) int {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr.Status
	}
	return http.StatusInternalServerError
}

// HandlerFunc returns the value to write as JSON, or an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, sessionId string) (any, error)

type errorBody struct {
	Error string `json:"error"`
}

// JsonHandler handles CORS preflight, resolves the session cookie and writes the
// result (or the error) as JSON.
func JsonHandler(logger *zap.Logger, tracker SessionTracker, fn HandlerFunc) http.HandlerFunc {
	logger = OrNop(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		sessionId := HandleSessionCookie(tracker, w, r)

		result, err := fn(w, r, sessionId)
		if err != nil {
			status := StatusOf(err)
			if status >= http.StatusInternalServerError {
				logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
			}
			WriteJson(w, status, errorBody{Error: err.Error()})
			return
		}
		if result == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		WriteJson(w, http.StatusOK, result)
	}
}

func WriteJson(w http.ResponseWriter, status int, v any) {
	data, err := jsoncompat.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	origin := r.Header.Get("Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Age", "0")
	w.WriteHeader(http.StatusAccepted)
}
