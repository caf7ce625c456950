package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/accolade/pkg/api"
	"github.com/rhuss/accolade/pkg/i18n"
)

// now is the clock used for failure-body timestamps.
var now = time.Now

// statusKeys maps statuses to their localized default message.
var statusKeys = map[int]string{
	http.StatusBadRequest:          i18n.KeyInvalidRequest,
	http.StatusUnauthorized:        i18n.KeyUnauthorized,
	http.StatusForbidden:           i18n.KeyForbidden,
	http.StatusNotFound:            i18n.KeyNotFound,
	http.StatusMethodNotAllowed:    i18n.KeyMethodNotAllowed,
	http.StatusConflict:            i18n.KeyUserExists,
	http.StatusTooManyRequests:     i18n.KeyTooManyAttempts,
	http.StatusInternalServerError: i18n.KeyInternal,
	http.StatusServiceUnavailable:  i18n.KeyInternal,
}

// WriteFailure writes body as JSON with the given status.
func WriteFailure(w http.ResponseWriter, status int, body api.FailureBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Debug("writing failure body", "error", err)
	}
}

// WriteStatus writes a failure body whose message is the localized
// default text for status.
func WriteStatus(w http.ResponseWriter, r *http.Request, status int) {
	key, ok := statusKeys[status]
	if !ok {
		key = i18n.KeyInternal
	}
	WriteFailure(w, status, api.NewFailureBody(status, i18n.ForRequest(r, key), r.URL.Path, now()))
}

// WriteAPIError writes a failure body for apiErr, deriving the status
// from its type. Server errors are reported with a generic message so
// internal details do not leak.
func WriteAPIError(w http.ResponseWriter, r *http.Request, apiErr *api.APIError) {
	status := apiErr.Status()
	if status >= http.StatusInternalServerError {
		WriteStatus(w, r, status)
		return
	}
	WriteError(w, r, status, apiErr.Message, apiErr.Param)
}

// WriteError writes a failure body with an explicit message. field names
// the offending request field and may be empty.
func WriteError(w http.ResponseWriter, r *http.Request, status int, message, field string) {
	body := api.NewFailureBody(status, message, r.URL.Path, now())
	body.Field = field
	WriteFailure(w, status, body)
}
