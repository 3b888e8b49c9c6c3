// Package analytics contains the core types of the usage-analytics engine:
// the resolved record filter, the aggregate result and payload shapes, the
// assembler that applies presentation rounding, and the TTL cache for the
// default (unfiltered) view.
//
// The package is deliberately free of I/O. Query execution against the record
// store lives in the repo layer; orchestration lives in services. Everything
// here is pure data and pure functions, which keeps the engine deterministic
// and trivially testable.
package analytics

import (
	"errors"
	"time"

	"github.com/tbourn/go-llm-usage/internal/domain"
)

// ErrInvalidDateFormat is returned by ResolveFilter when a supplied date does
// not parse as YYYY-MM-DD. It is a request-level validation failure and is
// surfaced before any store query executes.
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// dateLayout is the accepted calendar-date form for filter inputs.
const dateLayout = "2006-01-02"

// Filter is the validated, composable predicate over interaction records.
// Zero-value Filter matches every record (the "default view"). Present
// constraints combine with logical AND:
//
//   - Username restricts to records whose user identity matches exactly
//     (case-sensitive). Anonymous records never match a username filter.
//   - Start includes records with Timestamp >= start-of-day.
//   - End includes records with Timestamp <= 23:59:59 of the given date
//     (next-day-start minus one second, not truncation).
type Filter struct {
	Username string
	Start    *time.Time
	End      *time.Time

	// Raw date strings, echoed back in the assembled payload.
	StartDate string
	EndDate   string
}

// ResolveFilter parses raw filter inputs into a Filter. Empty inputs impose
// no restriction. Dates must be YYYY-MM-DD; anything else fails with
// ErrInvalidDateFormat. The resolver performs no I/O.
func ResolveFilter(username, startDate, endDate string) (Filter, error) {
	f := Filter{Username: username, StartDate: startDate, EndDate: endDate}

	if startDate != "" {
		d, err := time.Parse(dateLayout, startDate)
		if err != nil {
			return Filter{}, ErrInvalidDateFormat
		}
		start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		f.Start = &start
	}
	if endDate != "" {
		d, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return Filter{}, ErrInvalidDateFormat
		}
		// Inclusive through the last second of the day.
		end := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).
			AddDate(0, 0, 1).Add(-time.Second)
		f.End = &end
	}
	return f, nil
}

// IsDefault reports whether the filter matches every record. Only the
// default view is eligible for caching.
func (f Filter) IsDefault() bool {
	return f.Username == "" && f.Start == nil && f.End == nil
}

// Matches reports whether a single record satisfies the filter. The repo
// layer translates the same semantics into SQL; Matches is the reference
// predicate and is what tests assert against.
func (f Filter) Matches(rec domain.Interaction) bool {
	if f.Username != "" {
		if rec.UserID == nil || *rec.UserID != f.Username {
			return false
		}
	}
	if f.Start != nil && rec.Timestamp.Before(*f.Start) {
		return false
	}
	if f.End != nil && rec.Timestamp.After(*f.End) {
		return false
	}
	return true
}
