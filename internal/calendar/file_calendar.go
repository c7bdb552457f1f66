package calendar

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/workcal/availability/pkg/dateutil"
	"go.uber.org/zap"
)

// FileSource loads national holidays from a local text file.
//
// Format: one holiday per line, "YYYY-MM-DD [note]".
// Empty lines and lines starting with '#' are ignored.
type FileSource struct {
	filePath string
	logger   *zap.Logger
}

// NewFileSource creates a new FileSource instance
func NewFileSource(filePath string, logger *zap.Logger) *FileSource {
	return &FileSource{
		filePath: filePath,
		logger:   logger,
	}
}

// Name returns the source name
func (fs *FileSource) Name() string {
	return "file:" + fs.filePath
}

// Load loads calendar data from file
func (fs *FileSource) Load(ctx context.Context) (*National, error) {
	file, err := os.Open(fs.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar file: %w", err)
	}
	defer file.Close()

	national, err := parseHolidayLines(file, fs.logger)
	if err != nil {
		return nil, err
	}

	fs.logger.Info("Calendar file loaded",
		zap.String("file", fs.filePath),
		zap.Int("holidays", national.Len()))

	return national, nil
}

func parseHolidayLines(r io.Reader, logger *zap.Logger) (*National, error) {
	scanner := bufio.NewScanner(r)
	var holidays []Holiday

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Example: 2017-01-06 Epifania
		parts := strings.SplitN(line, " ", 2)
		date, err := dateutil.ParseDate(parts[0])
		if err != nil {
			logger.Warn("Failed to parse date", zap.String("line", line), zap.Error(err))
			continue
		}

		note := ""
		if len(parts) == 2 {
			note = strings.TrimSpace(parts[1])
		}
		holidays = append(holidays, Holiday{Date: date, Name: note})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading calendar file: %w", err)
	}

	return NewNationalFromHolidays(holidays...), nil
}

// StaticSource serves a fixed list of YYYY-MM-DD dates, typically from config
type StaticSource struct {
	dates []string
}

// NewStaticSource creates a source over inline dates
func NewStaticSource(dates []string) *StaticSource {
	return &StaticSource{dates: dates}
}

// Name returns the source name
func (ss *StaticSource) Name() string {
	return "static"
}

// Load parses the inline dates. Unlike the file source, a bad entry is fatal.
func (ss *StaticSource) Load(ctx context.Context) (*National, error) {
	dates := make([]time.Time, 0, len(ss.dates))
	for i, s := range ss.dates {
		d, err := dateutil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("static holiday #%d: %w", i, err)
		}
		dates = append(dates, d)
	}
	return NewNational(dates...), nil
}
