// Package services – AnalyticsService
//
// This file implements the orchestration half of the analytics engine:
// resolve the caller's raw filter inputs, run the aggregate queries against
// the record store, assemble the wire payload, and memoize the default
// (unfiltered) view in a TTL cache.
//
// The aggregate queries are independent, read-only, and depend only on the
// immutable record set and the resolved filter, so they run concurrently in
// an errgroup. A failure of any query fails the whole view: the engine
// returns either a complete, correct payload or an explicit error, never
// partial numbers.
package services

import (
	"context"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/go-llm-usage/internal/analytics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnalyticsRepo is the repository contract required by AnalyticsService.
// Every method is a read-only aggregate over the interactions table; all but
// DistinctUsers are scoped by the resolved filter.
type AnalyticsRepo interface {
	SummaryStats(ctx context.Context, db *gorm.DB, f analytics.Filter) (analytics.Summary, error)
	UsageByModel(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error)
	UsageByProvider(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error)
	UsageByUser(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.UserUsage, error)
	ErrorsByProvider(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error)
	ErrorsByMessage(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error)
	TimeSeries(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.TimeBucket, error)
	DistinctUsers(ctx context.Context, db *gorm.DB) ([]string, error)
}

// AnalyticsService computes the multi-dimensional usage view.
type AnalyticsService struct {
	// DB is the GORM handle used for queries.
	DB *gorm.DB
	// Repo executes the aggregate queries.
	Repo AnalyticsRepo
	// Cache memoizes the assembled default view. Must not be nil; use
	// analytics.NopCache to disable caching.
	Cache analytics.Cache

	// NormalizeError optionally rewrites error messages before grouping,
	// merging buckets whose normalized form collides. Nil keeps exact
	// string-equality bucketing.
	NormalizeError func(string) string
}

// NewAnalyticsService constructs an AnalyticsService. A nil cache disables
// memoization.
func NewAnalyticsService(db *gorm.DB, repo AnalyticsRepo, cache analytics.Cache) *AnalyticsService {
	if cache == nil {
		cache = analytics.NopCache{}
	}
	return &AnalyticsService{DB: db, Repo: repo, Cache: cache}
}

// View resolves the raw filter inputs and returns the analytics payload for
// the matching record subset.
//
// The unfiltered default view is served from the cache when a fresh entry
// exists; any active filter bypasses the cache entirely. Invalid dates fail
// with analytics.ErrInvalidDateFormat before any query executes. Store
// failures propagate unmodified.
func (s *AnalyticsService) View(ctx context.Context, user, startDate, endDate string) (analytics.Payload, error) {
	tr := otel.Tracer("services/AnalyticsService")
	ctx, span := tr.Start(ctx, "View",
		trace.WithAttributes(
			attribute.String("filter.user", user),
			attribute.String("filter.start_date", startDate),
			attribute.String("filter.end_date", endDate),
		),
	)
	defer span.End()

	f, err := analytics.ResolveFilter(user, startDate, endDate)
	if err != nil {
		return analytics.Payload{}, err
	}

	if f.IsDefault() {
		if p, ok := s.Cache.Get(analytics.DefaultCacheKey); ok {
			analyticsCacheHits.Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return p, nil
		}
		analyticsCacheMisses.Inc()
	}

	res, err := s.aggregate(ctx, f)
	if err != nil {
		return analytics.Payload{}, err
	}
	p := analytics.Assemble(res, f)

	if f.IsDefault() {
		// Concurrent recomputation may race here; last writer wins, which is
		// harmless since aggregation is idempotent.
		s.Cache.Add(analytics.DefaultCacheKey, p)
	}
	return p, nil
}

// Users enumerates the distinct user identities across the entire store,
// for populating a filter control without computing the full view.
func (s *AnalyticsService) Users(ctx context.Context) ([]string, error) {
	users, err := s.Repo.DistinctUsers(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}

// aggregate runs the full query set for one filtered view. The queries are
// issued concurrently; the first failure cancels the rest.
func (s *AnalyticsService) aggregate(ctx context.Context, f analytics.Filter) (analytics.Result, error) {
	var res analytics.Result

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		res.Summary, err = s.Repo.SummaryStats(ctx, s.DB, f)
		return
	})
	g.Go(func() (err error) {
		res.ModelUsage, err = s.Repo.UsageByModel(ctx, s.DB, f)
		return
	})
	g.Go(func() (err error) {
		res.ProviderUsage, err = s.Repo.UsageByProvider(ctx, s.DB, f)
		return
	})
	g.Go(func() (err error) {
		res.UserUsage, err = s.Repo.UsageByUser(ctx, s.DB, f)
		return
	})
	g.Go(func() (err error) {
		res.ErrorsByProvider, err = s.Repo.ErrorsByProvider(ctx, s.DB, f)
		return
	})
	g.Go(func() (err error) {
		groups, err := s.Repo.ErrorsByMessage(ctx, s.DB, f)
		if err != nil {
			return err
		}
		res.ErrorsByMessage = analytics.NormalizeGroups(groups, s.NormalizeError)
		return nil
	})
	g.Go(func() (err error) {
		res.TimeSeries, err = s.Repo.TimeSeries(ctx, s.DB, f)
		return
	})
	g.Go(func() (err error) {
		res.Users, err = s.Repo.DistinctUsers(ctx, s.DB)
		return
	})

	if err := g.Wait(); err != nil {
		return analytics.Result{}, err
	}
	return res, nil
}
