package availability

import (
	"errors"
	"fmt"
	"time"

	"github.com/workcal/availability/pkg/dateutil"
)

var (
	// ErrInvalidRange is returned when a range starts after it ends.
	ErrInvalidRange = errors.New("invalid range: since after until")

	// ErrMalformedDate is returned when a date-like input cannot be parsed.
	ErrMalformedDate = errors.New("malformed date")

	// ErrNegativeWorkdays marks a record whose overrides exceeded its workdays.
	// It is reported as a diagnostic, never returned from a run.
	ErrNegativeWorkdays = errors.New("negative workdays after overrides")

	// ErrUnknownMode is returned for an unsupported reporting mode.
	ErrUnknownMode = errors.New("unknown reporting mode")
)

// InvalidRangeError carries the offending bounds
type InvalidRangeError struct {
	Since time.Time
	Until time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: since %s is after until %s",
		dateutil.FormatDate(e.Since), dateutil.FormatDate(e.Until))
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// MalformedDateError names the input field that failed to parse
type MalformedDateError struct {
	Field string // e.g. "periods[2].until"
	Value string
	Err   error
}

func (e *MalformedDateError) Error() string {
	return fmt.Sprintf("malformed date in %s: %q", e.Field, e.Value)
}

func (e *MalformedDateError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrMalformedDate}
	}
	return []error{ErrMalformedDate, e.Err}
}

// NegativeWorkdayAnomaly describes a record whose workdays went below zero.
// Records are emitted unclamped; the anomaly is listed on the Report.
type NegativeWorkdayAnomaly struct {
	Range       DateRange `json:"range"`
	PeriodID    *int      `json:"period_id,omitempty"`
	ProjectID   *int      `json:"project_id,omitempty"`
	DeveloperID *int      `json:"developer_id,omitempty"`
	Workdays    int       `json:"workdays"`
}

func (a NegativeWorkdayAnomaly) Error() string {
	return fmt.Sprintf("%s: workdays %d for range %s", ErrNegativeWorkdays, a.Workdays, a.Range)
}

func (a NegativeWorkdayAnomaly) Unwrap() error {
	return ErrNegativeWorkdays
}

// IsClientError returns true if the error is due to invalid input data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrMalformedDate) ||
		errors.Is(err, ErrUnknownMode)
}
