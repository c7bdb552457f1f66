package availability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Mode selects which combinations a run enumerates
type Mode string

const (
	// ModePeriods emits one record per period, national calendar only
	ModePeriods Mode = "periods"
	// ModeProjects emits one record per project with a feasibility verdict
	ModeProjects Mode = "projects"
	// ModeDeveloperPeriods emits one record per (period, developer)
	ModeDeveloperPeriods Mode = "developer-periods"
	// ModeDeveloperPeriodsPreAggregated produces the same records as
	// ModeDeveloperPeriods from a shared per-period base
	ModeDeveloperPeriodsPreAggregated Mode = "developer-periods-preaggregated"
)

// Modes returns every supported mode
func Modes() []Mode {
	return []Mode{ModePeriods, ModeProjects, ModeDeveloperPeriods, ModeDeveloperPeriodsPreAggregated}
}

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	names := make([]string, 0, len(Modes()))
	for _, m := range Modes() {
		names = append(names, string(m))
	}
	return "", fmt.Errorf("%w %q (expected one of: %s)", ErrUnknownMode, s, strings.Join(names, ", "))
}

// SkippedCombination records a combination dropped because of an error
type SkippedCombination struct {
	PeriodID    *int   `json:"period_id,omitempty"`
	ProjectID   *int   `json:"project_id,omitempty"`
	DeveloperID *int   `json:"developer_id,omitempty"`
	Reason      string `json:"reason"`
	Err         error  `json:"-"`
}

// Report is the result of one run
type Report struct {
	Mode      Mode                     `json:"mode"`
	Records   []Record                 `json:"availabilities"`
	Skipped   []SkippedCombination     `json:"skipped,omitempty"`
	Anomalies []NegativeWorkdayAnomaly `json:"anomalies,omitempty"`
	Capacity  []ProjectCapacity        `json:"capacity,omitempty"`
}

// Orchestrator enumerates the combinations of a mode and builds the report
type Orchestrator struct {
	logger      *zap.Logger
	skipInvalid bool
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithSkipInvalidRanges makes the run skip combinations whose range is
// invalid instead of aborting
func WithSkipInvalidRanges(skip bool) Option {
	return func(o *Orchestrator) {
		o.skipInvalid = skip
	}
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run computes all records for the mode. Records follow input order, outer
// entity first. On abort the partial report is discarded.
func (o *Orchestrator) Run(mode Mode, in Input) (*Report, error) {
	o.logger.Info("Starting availability run",
		zap.String("mode", string(mode)),
		zap.Int("periods", len(in.Periods)),
		zap.Int("projects", len(in.Projects)),
		zap.Int("developers", len(in.Developers)),
		zap.Int("local_holidays", len(in.LocalHolidays)),
		zap.Int("national_holidays", in.National.Len()),
		zap.Bool("skip_invalid_ranges", o.skipInvalid))

	report := &Report{Mode: mode, Records: []Record{}}

	var err error
	switch mode {
	case ModePeriods:
		err = o.runPeriods(report, in)
	case ModeProjects:
		err = o.runProjects(report, in)
	case ModeDeveloperPeriods:
		err = o.runDeveloperPeriods(report, in)
	case ModeDeveloperPeriodsPreAggregated:
		err = o.runDeveloperPeriodsPreAggregated(report, in)
	default:
		_, err = ParseMode(string(mode))
	}
	if err != nil {
		return nil, err
	}

	o.logger.Info("Availability run completed",
		zap.String("mode", string(mode)),
		zap.Int("records", len(report.Records)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("anomalies", len(report.Anomalies)))

	return report, nil
}

func (o *Orchestrator) runPeriods(report *Report, in Input) error {
	for _, p := range in.Periods {
		r := p.Range()
		tally, err := Count(r, in.National)
		if err != nil {
			if err := o.skip(report, SkippedCombination{PeriodID: intPtr(p.ID)}, err); err != nil {
				return fmt.Errorf("period %d: %w", p.ID, err)
			}
			continue
		}
		o.emit(report, r, Record{PeriodID: intPtr(p.ID), Tally: tally})
	}
	return nil
}

func (o *Orchestrator) runProjects(report *Report, in Input) error {
	locals := LocalHolidayCandidates(in.LocalHolidays)

	for _, p := range in.Projects {
		r := p.Range()
		base, err := Aggregate(r, in.National, locals)
		if err != nil {
			if err := o.skip(report, SkippedCombination{ProjectID: intPtr(p.ID)}, err); err != nil {
				return fmt.Errorf("project %d: %w", p.ID, err)
			}
			continue
		}

		contributions := DeveloperContributions(base, r, in.National, in.Developers)
		capacity := ProjectCapacity{
			ProjectID:     p.ID,
			Contributions: contributions,
			CapacityDays:  sumInts(contributions),
			EffortDays:    p.EffortDays,
			Feasible:      IsFeasible(contributions, p.EffortDays),
		}
		report.Capacity = append(report.Capacity, capacity)

		o.logger.Debug("Project feasibility evaluated",
			zap.Int("project_id", p.ID),
			zap.Int("capacity_days", capacity.CapacityDays),
			zap.Int("effort_days", capacity.EffortDays),
			zap.Bool("feasible", capacity.Feasible))

		o.emit(report, r, Record{
			ProjectID:   intPtr(p.ID),
			Tally:       base,
			Feasibility: boolPtr(capacity.Feasible),
		})

		// A birthday can push one developer below zero while the shared base is not
		for i, w := range contributions {
			if w < 0 {
				o.anomaly(report, NegativeWorkdayAnomaly{
					Range:       r,
					ProjectID:   intPtr(p.ID),
					DeveloperID: intPtr(in.Developers[i].ID),
					Workdays:    w,
				})
			}
		}
	}
	return nil
}

func (o *Orchestrator) runDeveloperPeriods(report *Report, in Input) error {
	locals := LocalHolidayCandidates(in.LocalHolidays)

	for _, p := range in.Periods {
		r := p.Range()
		for _, d := range in.Developers {
			candidates := make([]Candidate, 0, len(locals)+1)
			candidates = append(candidates, BirthdayCandidate(d))
			candidates = append(candidates, locals...)

			tally, err := Aggregate(r, in.National, candidates)
			if err != nil {
				key := SkippedCombination{PeriodID: intPtr(p.ID), DeveloperID: intPtr(d.ID)}
				if err := o.skip(report, key, err); err != nil {
					return fmt.Errorf("period %d, developer %d: %w", p.ID, d.ID, err)
				}
				continue
			}
			o.emit(report, r, Record{DeveloperID: intPtr(d.ID), PeriodID: intPtr(p.ID), Tally: tally})
		}
	}
	return nil
}

func (o *Orchestrator) runDeveloperPeriodsPreAggregated(report *Report, in Input) error {
	locals := LocalHolidayCandidates(in.LocalHolidays)

	for _, p := range in.Periods {
		r := p.Range()
		base, err := Aggregate(r, in.National, locals)
		if err != nil {
			for _, d := range in.Developers {
				key := SkippedCombination{PeriodID: intPtr(p.ID), DeveloperID: intPtr(d.ID)}
				if err := o.skip(report, key, err); err != nil {
					return fmt.Errorf("period %d, developer %d: %w", p.ID, d.ID, err)
				}
			}
			continue
		}

		for _, d := range in.Developers {
			tally := ApplyOverrides(base, r, in.National, []Candidate{BirthdayCandidate(d)})
			o.emit(report, r, Record{DeveloperID: intPtr(d.ID), PeriodID: intPtr(p.ID), Tally: tally})
		}
	}
	return nil
}

// emit appends the record and reports negative workdays
func (o *Orchestrator) emit(report *Report, r DateRange, rec Record) {
	report.Records = append(report.Records, rec)

	if rec.Workdays >= 0 {
		return
	}
	o.anomaly(report, NegativeWorkdayAnomaly{
		Range:       r,
		PeriodID:    rec.PeriodID,
		ProjectID:   rec.ProjectID,
		DeveloperID: rec.DeveloperID,
		Workdays:    rec.Workdays,
	})
}

func (o *Orchestrator) anomaly(report *Report, a NegativeWorkdayAnomaly) {
	report.Anomalies = append(report.Anomalies, a)
	o.logger.Warn("Overrides exceed workdays",
		zap.Stringer("range", a.Range),
		zap.Int("workdays", a.Workdays),
		zap.Error(a))
}

// skip records a failed combination, or returns err when skipping is off
func (o *Orchestrator) skip(report *Report, key SkippedCombination, err error) error {
	if !o.skipInvalid {
		return err
	}
	key.Reason = err.Error()
	key.Err = err
	report.Skipped = append(report.Skipped, key)
	o.logger.Warn("Skipping combination", zap.Error(err))
	return nil
}
