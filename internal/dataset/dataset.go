// Package dataset reads input documents and writes availability output as
// {"availabilities": [...]} JSON.
package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/workcal/availability/internal/availability"
	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/pkg/dateutil"
)

// Document is the raw input file. Dates are kept as strings until Input().
type Document struct {
	Developers    []Developer    `json:"developers,omitempty"`
	LocalHolidays []LocalHoliday `json:"local_holidays,omitempty"`
	Periods       []Period       `json:"periods,omitempty"`
	Projects      []Project      `json:"projects,omitempty"`
}

// Developer as stored in the input file
type Developer struct {
	ID       int    `json:"id"`
	Name     string `json:"name,omitempty"`
	Birthday string `json:"birthday"`
}

// LocalHoliday as stored in the input file
type LocalHoliday struct {
	Day string `json:"day"`
}

// Period as stored in the input file
type Period struct {
	ID    int    `json:"id"`
	Since string `json:"since"`
	Until string `json:"until"`
}

// Project as stored in the input file
type Project struct {
	ID         int    `json:"id"`
	Since      string `json:"since"`
	Until      string `json:"until"`
	EffortDays int    `json:"effort_days"`
}

// Output is the document written after a run
type Output struct {
	Availabilities []availability.Record `json:"availabilities"`
}

// Load reads a document from file
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return Decode(bytes.NewReader(data))
}

// Decode parses a document
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse input document: %w", err)
	}
	return &doc, nil
}

// Input converts the document into engine input. The first date that fails
// to parse is returned as an *availability.MalformedDateError.
func (d *Document) Input(national *calendar.National) (availability.Input, error) {
	in := availability.Input{
		National:      national,
		Developers:    make([]availability.Developer, 0, len(d.Developers)),
		LocalHolidays: make([]availability.LocalHoliday, 0, len(d.LocalHolidays)),
		Periods:       make([]availability.Period, 0, len(d.Periods)),
		Projects:      make([]availability.Project, 0, len(d.Projects)),
	}

	for i, dev := range d.Developers {
		birthday, err := parseField(fmt.Sprintf("developers[%d].birthday", i), dev.Birthday)
		if err != nil {
			return availability.Input{}, err
		}
		in.Developers = append(in.Developers, availability.Developer{ID: dev.ID, Name: dev.Name, Birthday: birthday})
	}

	for i, h := range d.LocalHolidays {
		date, err := parseField(fmt.Sprintf("local_holidays[%d].day", i), h.Day)
		if err != nil {
			return availability.Input{}, err
		}
		in.LocalHolidays = append(in.LocalHolidays, availability.LocalHoliday{Day: date})
	}

	for i, p := range d.Periods {
		since, until, err := parseBounds(fmt.Sprintf("periods[%d]", i), p.Since, p.Until)
		if err != nil {
			return availability.Input{}, err
		}
		in.Periods = append(in.Periods, availability.Period{ID: p.ID, Since: since, Until: until})
	}

	for i, p := range d.Projects {
		since, until, err := parseBounds(fmt.Sprintf("projects[%d]", i), p.Since, p.Until)
		if err != nil {
			return availability.Input{}, err
		}
		in.Projects = append(in.Projects, availability.Project{ID: p.ID, Since: since, Until: until, EffortDays: p.EffortDays})
	}

	return in, nil
}

func parseBounds(prefix, since, until string) (time.Time, time.Time, error) {
	s, err := parseField(prefix+".since", since)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	u, err := parseField(prefix+".until", until)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, u, nil
}

func parseField(field, value string) (time.Time, error) {
	date, err := dateutil.ParseDate(value)
	if err != nil {
		return time.Time{}, &availability.MalformedDateError{Field: field, Value: value, Err: err}
	}
	return date, nil
}

// Encode writes {"availabilities": [...]} indented with two spaces
func Encode(w io.Writer, records []availability.Record) error {
	if records == nil {
		records = []availability.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Output{Availabilities: records}); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// WriteFile writes the output document to path
func WriteFile(path string, records []availability.Record) error {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
