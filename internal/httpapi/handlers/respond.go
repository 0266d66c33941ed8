package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/nikbrunner/stash/internal/cache"
	"github.com/nikbrunner/stash/internal/dashboard"
	"github.com/nikbrunner/stash/internal/logger"
	"github.com/nikbrunner/stash/internal/tagarea"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

var errDuplicateURL = errors.New("a bookmark with this url already exists")

// badRequest marks errors caused by the request itself.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and a JSON body.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	notice := dashboard.Classify(err)
	status := statusFor(err, notice.Kind)

	if status < http.StatusInternalServerError && notice.Kind == dashboard.NoticeError {
		notice.Kind = dashboard.NoticeValidation
	}
	if status >= http.StatusInternalServerError {
		log.Warn("request failed", logger.Int("status", status), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: notice.Message, Kind: notice.Kind.String()})
}

func statusFor(err error, kind dashboard.NoticeKind) int {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, cache.ErrNotFound), errors.Is(err, tagarea.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errDuplicateURL), errors.Is(err, tagarea.ErrDuplicateName):
		return http.StatusConflict
	}

	switch kind {
	case dashboard.NoticeValidation:
		return http.StatusBadRequest
	case dashboard.NoticeConnectivity:
		return http.StatusBadGateway
	case dashboard.NoticeSetup:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched when
// optional is set.
func decode(r *http.Request, v any, optional bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && optional {
			return nil
		}
		return invalid("invalid request body: %v", err)
	}
	return nil
}
