package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/firstindallas/backend/internal/cms"
	"github.com/firstindallas/backend/internal/models"
)

// EventSource lists events from the CMS.
type EventSource interface {
	ListEvents(ctx context.Context, q cms.EventQuery) ([]models.Event, error)
}

// Service answers directory queries for every presentation surface.
type Service struct {
	source   EventSource
	cache    *Cache
	loc      *time.Location
	pageSize int
	now      func() time.Time
	logger   *zap.Logger
}

// NewService creates a directory service. cache may be nil.
func NewService(source EventSource, cache *Cache, loc *time.Location, pageSize int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{source: source, cache: cache, loc: loc, pageSize: pageSize, now: time.Now, logger: logger}
}

// Location is the wall-clock zone date ranges are computed in.
func (s *Service) Location() *time.Location { return s.loc }

// PageSize is the configured number of events per page.
func (s *Service) PageSize() int { return s.pageSize }

// Now returns the current time in the directory's zone.
func (s *Service) Now() time.Time { return s.now().In(s.loc) }

// RecentLookbackDays bounds how far back the default list reaches so that
// multi-day events which started earlier are still listed while running.
// Past events older than a week are cleaned out of the CMS anyway.
const RecentLookbackDays = 7

// Published returns the published events from the start of the lookback
// window on, from cache when possible. The CMS hides events that already
// started unless include_past is sent, so the list always asks for them and
// leaves the past/running decision to Filters.
func (s *Service) Published(ctx context.Context) ([]models.Event, error) {
	from := startOfDay(s.Now()).AddDate(0, 0, -RecentLookbackDays)
	return s.list(ctx, keyPublished, cms.EventQuery{StartDate: &from})
}

// Archive returns every published event the CMS still holds, past ones included.
func (s *Service) Archive(ctx context.Context) ([]models.Event, error) {
	return s.list(ctx, keyArchive, cms.EventQuery{})
}

func (s *Service) list(ctx context.Context, key string, q cms.EventQuery) ([]models.Event, error) {
	var events []models.Event
	if s.cache != nil {
		ok, err := s.cache.get(ctx, key, &events)
		if err != nil {
			s.logger.Warn("directory cache read failed", zap.Error(err))
		}
		if ok {
			return events, nil
		}
	}
	q.Status = string(models.EventPublished)
	q.IncludePast = true
	q.Limit = cms.MaxListLimit
	events, err := s.source.ListEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list published events: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.set(ctx, key, events); err != nil {
			s.logger.Warn("directory cache write failed", zap.Error(err))
		}
	}
	return events, nil
}

// Events returns the unfiltered list f should be applied to.
func (s *Service) Events(ctx context.Context, f Filters) ([]models.Event, error) {
	if f.IncludePast {
		return s.Archive(ctx)
	}
	return s.Published(ctx)
}

// Query filters the published list and returns the requested page.
func (s *Service) Query(ctx context.Context, f Filters, page, threshold int) (Page, error) {
	events, err := s.Events(ctx, f)
	if err != nil {
		return Page{}, err
	}
	return FilterAndPaginate(events, f, page, s.pageSize, s.Now(), threshold), nil
}

// Upcoming returns at most limit events starting from now, soonest first.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]models.Event, error) {
	events, err := s.Published(ctx)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	out := make([]models.Event, 0, limit)
	for _, e := range (Filters{}).Apply(events, now) {
		if e.StartAt.Before(now) {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Cities returns the distinct cities of published events, sorted.
func (s *Service) Cities(ctx context.Context) ([]string, error) {
	var cities []string
	if s.cache != nil {
		if ok, _ := s.cache.get(ctx, keyCities, &cities); ok {
			return cities, nil
		}
	}
	events, err := s.Published(ctx)
	if err != nil {
		return nil, err
	}
	cities = distinctCities(events)
	if s.cache != nil {
		if err := s.cache.set(ctx, keyCities, cities); err != nil {
			s.logger.Warn("directory cache write failed", zap.Error(err))
		}
	}
	return cities, nil
}

// Invalidate clears cached lists after the CMS data changed.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("directory cache invalidate failed", zap.Error(err))
	}
}

func distinctCities(events []models.Event) []string {
	seen := map[string]string{}
	for _, e := range events {
		c := strings.TrimSpace(e.City)
		if c == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(c)]; !ok {
			seen[strings.ToLower(c)] = c
		}
	}
	out := make([]string, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
