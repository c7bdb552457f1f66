package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/store/sqlite"
)

// Error codes returned in ErrorItem.Code
const (
	CodeBadRequest          = "BAD_REQUEST"
	CodeBodyTooLarge        = "BODY_TOO_LARGE"
	CodeInvalidRange        = "INVALID_RANGE"
	CodeRangeTooLong        = "RANGE_TOO_LONG"
	CodeMalformedDate       = "MALFORMED_DATE"
	CodeUnknownMode         = "UNKNOWN_MODE"
	CodeNotFound            = "NOT_FOUND"
	CodeHistoryOff          = "HISTORY_DISABLED"
	CodeCalendarUnavailable = "CALENDAR_UNAVAILABLE"
	CodeInternal            = "INTERNAL"
)

// ErrHistoryDisabled is returned by run endpoints when no store is configured.
var ErrHistoryDisabled = errors.New("run history is disabled")

// ErrRangeTooLong is returned when a posted period or project exceeds the
// configured length limit.
var ErrRangeTooLong = errors.New("range too long")

// ErrCalendarUnavailable is returned when the national calendar cannot be loaded.
var ErrCalendarUnavailable = errors.New("national calendar unavailable")

// errBadRequest marks request-level problems (bad JSON, bad query).
var errBadRequest = errors.New("bad request")

// ErrorBody wraps the error object of an HTTP response.
type ErrorBody struct {
	Error ErrorItem `json:"error"`
}

// ErrorItem describes an error code and message.
type ErrorItem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain errors to HTTP statuses and a JSON body.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}

	writeJSON(w, status, ErrorBody{
		Error: ErrorItem{Code: code, Message: msg},
	})
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, CodeBodyTooLarge
	case errors.Is(err, ErrRangeTooLong):
		return http.StatusBadRequest, CodeRangeTooLong
	case errors.Is(err, availability.ErrInvalidRange):
		return http.StatusBadRequest, CodeInvalidRange
	case errors.Is(err, availability.ErrMalformedDate):
		return http.StatusBadRequest, CodeMalformedDate
	case errors.Is(err, availability.ErrUnknownMode):
		return http.StatusBadRequest, CodeUnknownMode
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, sqlite.ErrRunNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, ErrHistoryDisabled):
		return http.StatusNotFound, CodeHistoryOff
	case errors.Is(err, ErrCalendarUnavailable):
		return http.StatusServiceUnavailable, CodeCalendarUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
