package main

import (
	"context"
	"fmt"

	"github.com/workcal/availability/internal/calendar"
	"github.com/workcal/availability/internal/config"
	"go.uber.org/zap"
)

// buildCalendarSource merges every configured calendar source. A local file
// next to xmlcalendar is used as its fallback instead of being merged.
func buildCalendarSource(cfg config.CalendarConfig, logger *zap.Logger) (calendar.Source, error) {
	var sources []calendar.Source

	if len(cfg.Dates) > 0 {
		sources = append(sources, calendar.NewStaticSource(cfg.Dates))
	}

	if cfg.Country != "" {
		logger.Info("Using generated country calendar", zap.String("country", cfg.Country))
		sources = append(sources, calendar.NewCountrySource(cfg.Country, cfg.Years, logger))
	}

	switch {
	case cfg.XMLCalendarURL != "" && cfg.File != "":
		logger.Info("Using xmlcalendar with file fallback", zap.String("file", cfg.File))
		sources = append(sources, calendar.NewCompositeSource(
			calendar.NewXMLCalendarSource(cfg.XMLCalendarURL, cfg.Years, cfg.GetCacheTTL(), logger),
			calendar.NewFileSource(cfg.File, logger),
			logger,
		))
	case cfg.XMLCalendarURL != "":
		logger.Info("Using xmlcalendar")
		sources = append(sources,
			calendar.NewXMLCalendarSource(cfg.XMLCalendarURL, cfg.Years, cfg.GetCacheTTL(), logger))
	case cfg.File != "":
		sources = append(sources, calendar.NewFileSource(cfg.File, logger))
	}

	switch len(sources) {
	case 0:
		return nil, fmt.Errorf("no calendar source configured")
	case 1:
		return sources[0], nil
	default:
		return calendar.NewUnionSource(logger, sources...), nil
	}
}

// loadNational builds and loads the national calendar for a command
func loadNational(ctx context.Context, cfg config.CalendarConfig) (*calendar.National, error) {
	source, err := buildCalendarSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	return loadFrom(ctx, source)
}

func loadFrom(ctx context.Context, source calendar.Source) (*calendar.National, error) {
	national, err := source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar %s: %w", source.Name(), err)
	}

	logger.Info("National calendar loaded",
		zap.String("source", source.Name()),
		zap.Int("holidays", national.Len()))

	return national, nil
}
