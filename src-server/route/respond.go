package route

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"advisordesk/src-server/calendar"
)

// errAnswered tells a handler wrapper the response was already written.
var errAnswered = errors.New("response already written")

type errorRespBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("can't write response", "error", err)
	}
}

// writeError maps calendar error kinds to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var verr *calendar.ValidationError
	var cerr *calendar.CollaboratorError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorRespBody{Error: "Validation failed", Fields: verr.Fields})
	case errors.Is(err, calendar.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorRespBody{Error: "Event not found"})
	case errors.Is(err, calendar.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorRespBody{Error: err.Error()})
	case errors.As(err, &cerr):
		slog.Error("event store failed", "op", cerr.Op, "error", cerr.Err)
		writeJSON(w, http.StatusBadGateway, errorRespBody{Error: "Can't reach the event store"})
	default:
		slog.Error("unexpected error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorRespBody{Error: "Internal server error"})
	}
}

// decodeBody decodes an optional JSON body into v. An empty body leaves
// v untouched. It answers 400 itself and reports false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorRespBody{Error: "Request body too large"})
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorRespBody{Error: "Invalid request body"})
	return false
}
