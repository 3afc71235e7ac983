package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/uniwahl/wahlportal/internal/client"
	"github.com/uniwahl/wahlportal/internal/logging"
)

// errorResponse is the uniform JSON error body.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError sends a JSON error response and logs it with request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	logging.FromContext(r.Context()).Warn("request failed",
		"status", status,
		"path", r.URL.Path,
		"error", msg,
	)
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeAPIError maps errors from the voting API onto HTTP responses. The
// sentinel errors keep their semantics: an expired session stays a 401 so the
// console can prompt for a fresh login rather than retrying on its own.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, client.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Error: "Sitzung abgelaufen, bitte erneut anmelden.",
			Code:  "SESSION_EXPIRED",
		})
	case errors.Is(err, client.ErrAlreadyVoted):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error: "Für diese Wahl wurde bereits eine Stimme abgegeben.",
			Code:  "ALREADY_VOTED",
		})
	case errors.Is(err, client.ErrElectionClosed):
		writeJSON(w, http.StatusGone, errorResponse{
			Error: "Die Wahl ist nicht mehr geöffnet.",
			Code:  "ELECTION_CLOSED",
		})
	default:
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			writeError(w, r, http.StatusBadGateway, apiErr.Message)
			return
		}
		writeError(w, r, http.StatusBadGateway, err.Error())
	}
}

// decodeJSON reads a JSON request body into v with a size cap.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
