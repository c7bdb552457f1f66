package calendar

import (
	"context"
	"fmt"
	"strings"

	cal "github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/us"
	"go.uber.org/zap"
)

var countryHolidays = map[string][]*cal.Holiday{
	"it": it.Holidays,
	"us": us.Holidays,
	"de": de.Holidays,
}

// SupportedCountries lists the country codes CountrySource understands
func SupportedCountries() []string {
	return []string{"de", "it", "us"}
}

// CountrySource generates the fixed national holidays of a country for the
// requested years. Holidays are taken on their actual date; observed
// substitutes are ignored because weekends are classified first.
type CountrySource struct {
	country string
	years   []int
	logger  *zap.Logger
}

// NewCountrySource creates a new CountrySource
func NewCountrySource(country string, years []int, logger *zap.Logger) *CountrySource {
	return &CountrySource{
		country: strings.ToLower(country),
		years:   years,
		logger:  logger,
	}
}

// Name returns the source name
func (cs *CountrySource) Name() string {
	return "country:" + cs.country
}

// Load computes the holidays
func (cs *CountrySource) Load(ctx context.Context) (*National, error) {
	defs, ok := countryHolidays[cs.country]
	if !ok {
		return nil, fmt.Errorf("unsupported country %q (supported: %s)",
			cs.country, strings.Join(SupportedCountries(), ", "))
	}

	var holidays []Holiday
	for _, year := range cs.years {
		for _, h := range defs {
			actual, _ := h.Calc(year)
			if actual.IsZero() {
				continue
			}
			holidays = append(holidays, Holiday{Date: actual, Name: h.Name})
		}
	}

	cs.logger.Debug("Country holidays generated",
		zap.String("country", cs.country),
		zap.Ints("years", cs.years),
		zap.Int("holidays", len(holidays)))

	return NewNationalFromHolidays(holidays...), nil
}
