package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/internal/dataset"
	"github.com/workcal/availability/internal/store/sqlite"
	"github.com/workcal/availability/pkg/dateutil"
)

const (
	defaultRunsLimit    = 50
	defaultMaxBodyBytes = 1 << 20
	defaultMaxRangeDays = 3660
)

// RunStore is the run history the handlers persist to.
type RunStore interface {
	SaveRun(ctx context.Context, run *sqlite.Run) error
	GetRun(ctx context.Context, id string) (*sqlite.Run, error)
	ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error)
}

// Options tune how posted datasets are run.
type Options struct {
	DefaultMode       availability.Mode
	SkipInvalidRanges bool
	MaxBodyBytes      int64 // request body limit, default 1 MiB
	MaxRangeDays      int   // longest accepted period or project, default 3660
}

// Handler holds the dependencies of all endpoints.
type Handler struct {
	calendars calendar.Source
	store     RunStore // nil disables history
	opts      Options
	logger    *zap.Logger
}

// NewHandler creates a new handler. The calendar is loaded from calendars on
// every request, so sources with their own cache decide when to refresh.
// store may be nil.
func NewHandler(calendars calendar.Source, store RunStore, opts Options, logger *zap.Logger) *Handler {
	if opts.DefaultMode == "" {
		opts.DefaultMode = availability.ModePeriods
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.MaxRangeDays <= 0 {
		opts.MaxRangeDays = defaultMaxRangeDays
	}
	return &Handler{
		calendars: calendars,
		store:     store,
		opts:      opts,
		logger:    logger,
	}
}

func (h *Handler) national(ctx context.Context) (*calendar.National, error) {
	national, err := h.calendars.Load(ctx)
	if err != nil {
		h.logger.Error("Failed to load calendar",
			zap.String("source", h.calendars.Name()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrCalendarUnavailable, h.calendars.Name(), err)
	}
	return national, nil
}

type healthResponse struct {
	Status string `json:"status"`
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type holidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// ListHolidays returns the national calendar the server was started with.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	national, err := h.national(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	holidays := national.Holidays()
	out := make([]holidayDTO, 0, len(holidays))
	for _, hd := range holidays {
		out = append(out, holidayDTO{Date: dateutil.FormatDate(hd.Date), Name: hd.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

type availabilitiesResponse struct {
	RunID string `json:"run_id,omitempty"`
	*availability.Report
}

// ComputeAvailabilities runs the engine on the posted dataset document.
func (h *Handler) ComputeAvailabilities(w http.ResponseWriter, r *http.Request) {
	mode := h.opts.DefaultMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := availability.ParseMode(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		mode = parsed
	}

	doc, err := dataset.Decode(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	national, err := h.national(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	in, err := doc.Input(national)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := checkRangeLengths(in, h.opts.MaxRangeDays); err != nil {
		writeError(w, err)
		return
	}

	orchestrator := availability.NewOrchestrator(h.logger,
		availability.WithSkipInvalidRanges(h.opts.SkipInvalidRanges))
	report, err := orchestrator.Run(mode, in)
	if err != nil {
		h.logger.Warn("Availability run rejected", zap.Error(err))
		writeError(w, err)
		return
	}

	resp := availabilitiesResponse{Report: report}
	if h.store != nil {
		run := &sqlite.Run{Mode: report.Mode, Records: report.Records}
		if err := h.store.SaveRun(r.Context(), run); err != nil {
			h.logger.Error("Failed to save run", zap.Error(err))
			writeError(w, err)
			return
		}
		resp.RunID = run.ID
	}

	writeJSON(w, http.StatusOK, resp)
}

// ListRuns returns run headers, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, ErrHistoryDisabled)
		return
	}

	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer, got %q", errBadRequest, raw))
			return
		}
		limit = parsed
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list runs", zap.Error(err))
		writeError(w, err)
		return
	}
	if runs == nil {
		runs = []sqlite.Run{}
	}

	writeJSON(w, http.StatusOK, runs)
}

// GetRun returns one run with its records.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, ErrHistoryDisabled)
		return
	}

	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// checkRangeLengths rejects periods and projects longer than maxDays.
// Inverted ranges are left to the orchestrator.
func checkRangeLengths(in availability.Input, maxDays int) error {
	for i, p := range in.Periods {
		if days := p.Range().Days(); days > maxDays {
			return fmt.Errorf("%w: periods[%d] spans %d days, limit is %d", ErrRangeTooLong, i, days, maxDays)
		}
	}
	for i, p := range in.Projects {
		if days := p.Range().Days(); days > maxDays {
			return fmt.Errorf("%w: projects[%d] spans %d days, limit is %d", ErrRangeTooLong, i, days, maxDays)
		}
	}
	return nil
}
