package calendar

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// CompositeSource implements Source with fallback strategy
// Primary: usually a remote source (xmlcalendar)
// Fallback: usually a local file
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Name returns the source name
func (cs *CompositeSource) Name() string {
	return cs.primary.Name() + "|" + cs.fallback.Name()
}

// Load tries the primary source first
func (cs *CompositeSource) Load(ctx context.Context) (*National, error) {
	national, err := cs.primary.Load(ctx)
	if err == nil {
		return national, nil
	}

	cs.logger.Warn("Primary calendar failed, falling back",
		zap.String("primary", cs.primary.Name()),
		zap.String("fallback", cs.fallback.Name()),
		zap.Error(err))

	national, fallbackErr := cs.fallback.Load(ctx)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary and fallback both failed: primary=%w, fallback=%v", err, fallbackErr)
	}
	return national, nil
}

// UnionSource merges the calendars of all its sources.
// Every source must load successfully.
type UnionSource struct {
	sources []Source
	logger  *zap.Logger
}

// NewUnionSource creates a new UnionSource
func NewUnionSource(logger *zap.Logger, sources ...Source) *UnionSource {
	return &UnionSource{
		sources: sources,
		logger:  logger,
	}
}

// Name returns the source name
func (us *UnionSource) Name() string {
	names := make([]string, 0, len(us.sources))
	for _, s := range us.sources {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

// Load loads every source and merges the results
func (us *UnionSource) Load(ctx context.Context) (*National, error) {
	calendars := make([]*National, 0, len(us.sources))
	for _, s := range us.sources {
		national, err := s.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("calendar source %s: %w", s.Name(), err)
		}
		us.logger.Debug("Calendar source loaded",
			zap.String("source", s.Name()),
			zap.Int("holidays", national.Len()))
		calendars = append(calendars, national)
	}

	merged := Merge(calendars...)
	us.logger.Info("National calendar ready",
		zap.String("sources", us.Name()),
		zap.Int("holidays", merged.Len()))

	return merged, nil
}
