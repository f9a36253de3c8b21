package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dgallion1/mintaro/internal/editor"
	"github.com/dgallion1/mintaro/internal/session"
)

// maxJSONBody bounds request bodies that are not file uploads.
const maxJSONBody = 2 << 20

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// validationErrors are refused edits: the request was understood but the
// document cannot take it.
var validationErrors = []error{
	editor.ErrUnknownCommand,
	editor.ErrInvalidValue,
	editor.ErrPromptCanceled,
	editor.ErrNoCellSelected,
	editor.ErrNoImageSelected,
	editor.ErrPickerClosed,
	editor.ErrLastRow,
	editor.ErrLastColumn,
	editor.ErrNotMerged,
	editor.ErrMergeOverlap,
	editor.ErrInvalidHex,
	editor.ErrEyedropperUnavailable,
	editor.ErrUnsupportedURL,
	editor.ErrInvalidSize,
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, editor.ErrClosed):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidID), errors.Is(err, editor.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrTooManySessions):
		return http.StatusServiceUnavailable
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), statusFor(err))
}

// decode reads a JSON request body into v. An empty body leaves v as is.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}
