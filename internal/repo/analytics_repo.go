// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// analytics engine: summary scalars, single-key groupings, error breakdowns,
// the hourly time series, and the distinct-user enumeration.
//
// Every query is read-only, scoped by the resolved analytics.Filter, and
// total over the empty subset: sums coalesce to 0 and averages to 0, so the
// service layer never has to guard against NULL or division by zero.
//
// NULL-user policy (uniform across all aggregates): records without a user
// identity are grouped under the analytics.AnonymousUser bucket wherever the
// grouping key is the user, and are skipped by COUNT(DISTINCT user_id)
// wherever identities are counted.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-llm-usage/internal/analytics"
	"github.com/tbourn/go-llm-usage/internal/domain"
)

// hourFormat is the SQLite strftime pattern that truncates a timestamp to
// its hour, producing an RFC 3339 string in UTC.
const hourFormat = "%Y-%m-%dT%H:00:00Z"

// filterScope translates the resolved filter into SQL conditions. The
// semantics mirror analytics.Filter.Matches exactly.
func filterScope(f analytics.Filter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Username != "" {
			q = q.Where("user_id = ?", f.Username)
		}
		if f.Start != nil {
			q = q.Where("timestamp >= ?", *f.Start)
		}
		if f.End != nil {
			q = q.Where("timestamp <= ?", *f.End)
		}
		return q
	}
}

func interactions(ctx context.Context, db *gorm.DB, f analytics.Filter) *gorm.DB {
	return db.WithContext(ctx).Model(&domain.Interaction{}).Scopes(filterScope(f))
}

// SummaryStats computes the scalar aggregates over the filtered subset in a
// single query.
func SummaryStats(ctx context.Context, db *gorm.DB, f analytics.Filter) (analytics.Summary, error) {
	var row struct {
		TotalRequests int64
		ErrorCount    int64
		TotalTokens   int64
		TotalCost     float64
		AvgLatency    float64
		UniqueUsers   int64
	}
	err := interactions(ctx, db, f).
		Select(`COUNT(*) AS total_requests,
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0) AS error_count,
			COALESCE(SUM(tokens_used), 0) AS total_tokens,
			COALESCE(SUM(cost), 0) AS total_cost,
			COALESCE(AVG(latency), 0) AS avg_latency,
			COUNT(DISTINCT user_id) AS unique_users`).
		Scan(&row).Error
	if err != nil {
		return analytics.Summary{}, err
	}
	return analytics.Summary{
		TotalRequests: row.TotalRequests,
		ErrorCount:    row.ErrorCount,
		TotalTokens:   row.TotalTokens,
		TotalCost:     row.TotalCost,
		AvgLatency:    row.AvgLatency,
		UniqueUsers:   row.UniqueUsers,
	}, err
}

// UsageByModel returns request counts grouped by model name, count
// descending; ties order by key so the result is reproducible for a fixed
// snapshot.
func UsageByModel(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	var rows []analytics.GroupCount
	err := interactions(ctx, db, f).
		Select(`model_name AS key, COUNT(*) AS requests`).
		Group("model_name").
		Order("requests DESC, model_name ASC").
		Scan(&rows).Error
	return rows, err
}

// UsageByProvider returns request counts grouped by provider, count
// descending.
func UsageByProvider(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	var rows []analytics.GroupCount
	err := interactions(ctx, db, f).
		Select(`provider AS key, COUNT(*) AS requests`).
		Group("provider").
		Order("requests DESC, provider ASC").
		Scan(&rows).Error
	return rows, err
}

// UsageByUser returns request counts and summed cost grouped by user
// identity. Grouping is on the raw user_id column so NULL forms its own
// group, surfaced under the anonymous sentinel; no record is ever dropped.
func UsageByUser(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.UserUsage, error) {
	var rows []analytics.UserUsage
	err := interactions(ctx, db, f).
		Select(`COALESCE(user_id, ?) AS user, COUNT(*) AS requests, COALESCE(SUM(cost), 0) AS cost`,
			analytics.AnonymousUser).
		Group("user_id").
		Order("requests DESC, user ASC").
		Scan(&rows).Error
	return rows, err
}

// ErrorsByProvider returns error counts grouped by provider over the
// filtered subset.
func ErrorsByProvider(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	var rows []analytics.GroupCount
	err := interactions(ctx, db, f).
		Where("status = ?", domain.StatusError).
		Select(`provider AS key, COUNT(*) AS requests`).
		Group("provider").
		Order("requests DESC, provider ASC").
		Scan(&rows).Error
	return rows, err
}

// ErrorsByMessage returns error counts grouped by the literal error message
// text. Bucketing is exact string equality; any normalization policy is
// applied by the service layer on top of these raw buckets.
func ErrorsByMessage(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.GroupCount, error) {
	var rows []analytics.GroupCount
	err := interactions(ctx, db, f).
		Where("status = ?", domain.StatusError).
		Select(`COALESCE(error_message, '') AS key, COUNT(*) AS requests`).
		Group("error_message").
		Order("requests DESC, key ASC").
		Scan(&rows).Error
	return rows, err
}

// TimeSeries buckets the filtered subset into hourly buckets keyed by the
// hour-truncated timestamp. Only hours containing at least one record are
// returned, in chronological order.
func TimeSeries(ctx context.Context, db *gorm.DB, f analytics.Filter) ([]analytics.TimeBucket, error) {
	var rows []struct {
		Hour        string
		Requests    int64
		Errors      int64
		Tokens      int64
		Cost        float64
		AvgLatency  float64
		UniqueUsers int64
	}
	err := interactions(ctx, db, f).
		Select(`strftime(?, timestamp) AS hour,
			COUNT(*) AS requests,
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0) AS errors,
			COALESCE(SUM(tokens_used), 0) AS tokens,
			COALESCE(SUM(cost), 0) AS cost,
			COALESCE(AVG(latency), 0) AS avg_latency,
			COUNT(DISTINCT user_id) AS unique_users`, hourFormat).
		Group("hour").
		Order("hour ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]analytics.TimeBucket, 0, len(rows))
	for _, r := range rows {
		hour, perr := time.Parse(time.RFC3339, r.Hour)
		if perr != nil {
			return nil, perr
		}
		out = append(out, analytics.TimeBucket{
			Hour:        hour,
			Requests:    r.Requests,
			Errors:      r.Errors,
			Tokens:      r.Tokens,
			Cost:        r.Cost,
			AvgLatency:  r.AvgLatency,
			UniqueUsers: r.UniqueUsers,
		})
	}
	return out, nil
}

// DistinctUsers enumerates every user identity across the entire store,
// ignoring any filter, so callers can populate a filter control. Anonymous
// records contribute no identity here.
func DistinctUsers(ctx context.Context, db *gorm.DB) ([]string, error) {
	users := make([]string, 0)
	err := db.WithContext(ctx).
		Model(&domain.Interaction{}).
		Where("user_id IS NOT NULL").
		Distinct().
		Order("user_id ASC").
		Pluck("user_id", &users).Error
	return users, err
}
