package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/workcal/availability/pkg/dateutil"
	"go.uber.org/zap"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultCacheTTL    = 24 * time.Hour
)

// XMLCalendarSource loads national holidays from xmlcalendar.ru style yearly
// JSON documents. The URL template must contain "{year}". Downloaded years are
// kept for cacheTTL, so a long-running server can call Load per request.
type XMLCalendarSource struct {
	urlTemplate string
	years       []int
	httpClient  *http.Client
	logger      *zap.Logger
	cacheTTL    time.Duration
	cache       map[int]*cachedYear
	cacheMu     sync.RWMutex
}

type cachedYear struct {
	data      *xmlCalendarYear
	fetchedAt time.Time
}

// xmlCalendarYear represents xmlcalendar.ru JSON structure
type xmlCalendarYear struct {
	Year      int                `json:"year"`
	Months    []xmlCalendarMonth `json:"months"`
	Statistic struct {
		Workdays int     `json:"workdays"`
		Holidays int     `json:"holidays"`
		Hours40  float64 `json:"hours40"`
	} `json:"statistic"`
}

type xmlCalendarMonth struct {
	Month int    `json:"month"`
	Days  string `json:"days"` // "1*,2,3+,4,8,9,..." where * = shortened, + = transferred
}

// NewXMLCalendarSource creates a new XMLCalendarSource instance
func NewXMLCalendarSource(urlTemplate string, years []int, cacheTTL time.Duration, logger *zap.Logger) *XMLCalendarSource {
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &XMLCalendarSource{
		urlTemplate: urlTemplate,
		years:       years,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:   logger,
		cacheTTL: cacheTTL,
		cache:    make(map[int]*cachedYear),
	}
}

// Name returns the source name
func (c *XMLCalendarSource) Name() string {
	return "xmlcalendar"
}

// Load downloads (or reuses cached) data for every configured year
func (c *XMLCalendarSource) Load(ctx context.Context) (*National, error) {
	var holidays []Holiday
	for _, year := range c.years {
		yearData, err := c.yearData(ctx, year)
		if err != nil {
			return nil, err
		}
		for i := range yearData.Months {
			month := &yearData.Months[i]
			if month.Month < 1 || month.Month > 12 {
				return nil, fmt.Errorf("year %d: invalid month %d", year, month.Month)
			}
			days, err := c.parseXMLCalendarMonth(year, time.Month(month.Month), month)
			if err != nil {
				return nil, fmt.Errorf("year %d: %w", year, err)
			}
			holidays = append(holidays, days...)
		}
	}
	return NewNationalFromHolidays(holidays...), nil
}

func (c *XMLCalendarSource) yearData(ctx context.Context, year int) (*xmlCalendarYear, error) {
	c.cacheMu.RLock()
	if cached, ok := c.cache[year]; ok {
		if time.Since(cached.fetchedAt) < c.cacheTTL {
			c.cacheMu.RUnlock()
			c.logger.Debug("Using cached calendar year", zap.Int("year", year))
			return cached.data, nil
		}
	}
	c.cacheMu.RUnlock()

	yearData, err := c.downloadYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to download calendar data: %w", err)
	}

	c.cacheMu.Lock()
	c.cache[year] = &cachedYear{
		data:      yearData,
		fetchedAt: time.Now(),
	}
	c.cacheMu.Unlock()

	return yearData, nil
}

// downloadYear downloads entire year from xmlcalendar.ru
func (c *XMLCalendarSource) downloadYear(ctx context.Context, year int) (*xmlCalendarYear, error) {
	url := strings.ReplaceAll(c.urlTemplate, "{year}", strconv.Itoa(year))

	c.logger.Info("Downloading calendar data",
		zap.String("url", url),
		zap.Int("year", year))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar API returned status %d", resp.StatusCode)
	}

	var yearData xmlCalendarYear
	if err := json.NewDecoder(resp.Body).Decode(&yearData); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}

	c.logger.Info("Calendar data downloaded",
		zap.Int("year", year),
		zap.Int("months", len(yearData.Months)))

	return &yearData, nil
}

// parseXMLCalendarMonth parses xmlcalendar.ru compact format
// Format: "1*,2,3+,4,8,9,15,16,22,23,29,30"
// * = shortened (still a working day), + = transferred day off, others = weekends/holidays.
// Only non-working weekdays are returned; weekends are classified by weekday anyway.
func (c *XMLCalendarSource) parseXMLCalendarMonth(year int, month time.Month, xmlMonth *xmlCalendarMonth) ([]Holiday, error) {
	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	var holidays []Holiday
	if xmlMonth.Days == "" {
		return holidays, nil
	}

	for _, part := range strings.Split(xmlMonth.Days, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.HasSuffix(part, "*") {
			continue
		}
		dayStr := strings.TrimSuffix(part, "+")

		day, err := strconv.Atoi(dayStr)
		if err != nil {
			c.logger.Warn("Failed to parse day number",
				zap.String("part", part),
				zap.Error(err))
			continue
		}
		if day < 1 || day > daysInMonth {
			return nil, fmt.Errorf("day %d out of range for %d-%02d", day, year, month)
		}

		date := dateutil.Date(year, month, day)
		if dateutil.IsWeekend(date) {
			continue
		}
		holidays = append(holidays, Holiday{Date: date})
	}

	return holidays, nil
}
