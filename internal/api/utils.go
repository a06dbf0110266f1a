package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"mpc-backend/internal/core/types"

	"github.com/gorilla/schema"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

func ParseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.Error("error parsing request body", "error", err)
		return data, CodedErrorf(http.StatusUnprocessableEntity, "unable to parse request body: %v", err)
	}
	return data, nil
}

// Accepted layouts for time query params. Values without a zone are UTC.
var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(value string) reflect.Value {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return reflect.ValueOf(t)
		}
	}
	return reflect.Value{}
}

func newQueryDecoder() *schema.Decoder {
	decoder := schema.NewDecoder()
	decoder.RegisterConverter(time.Time{}, parseTime)
	return decoder
}

func ParseRequestQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.Error("error parsing form", "error", err)
		return data, CodedErrorf(http.StatusUnprocessableEntity, "unable to parse request query params: %v", err)
	}

	err := newQueryDecoder().Decode(&data, r.Form)
	if err != nil {
		slog.Error("error decoding query params", "error", err)
		return data, CodedErrorf(http.StatusUnprocessableEntity, "unable to parse request query params: %v", err)
	}

	return data, nil
}

// errorCode maps the domain error kinds to status codes, anything else is an
// internal error.
func errorCode(err error) int {
	var cerr *codedError
	switch {
	case errors.As(err, &cerr):
		return cerr.code
	case errors.Is(err, types.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrConnectivity):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			code := errorCode(err)
			if code == http.StatusInternalServerError {
				slog.Error("internal server error received in endpoint", "path", r.URL.Path, "error", err)
			}
			http.Error(w, err.Error(), code)
			return
		}

		if res == nil {
			res = struct{}{}
		}

		WriteJsonResponse(w, res)
	}
}

func WriteJsonResponse(w http.ResponseWriter, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("error serializing response body", "error", err)
		http.Error(w, fmt.Sprintf("error serializing response body: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Error("error writing response body", "error", err)
	}
}
