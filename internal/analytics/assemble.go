package analytics

import (
	"math"
	"time"
)

// SummaryPayload is the serializer-friendly form of Summary. ErrorRate is
// the percentage of requests that errored, rounded to 2 decimal places
// (0 when the subset is empty).
type SummaryPayload struct {
	TotalRequests int64   `json:"total_requests"`
	Errors        int64   `json:"errors"`
	ErrorRate     float64 `json:"error_rate"`
	TotalTokens   int64   `json:"total_tokens"`
	TotalCost     float64 `json:"total_cost"`
	AvgLatency    float64 `json:"avg_latency"`
	UniqueUsers   int64   `json:"unique_users"`
}

// FiltersPayload echoes the applied filter inputs and carries the distinct
// user identities of the whole store, so a caller can populate a selection
// control independent of the current filter.
type FiltersPayload struct {
	User      string   `json:"user"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Users     []string `json:"users"`
}

// ModelUsageEntry is one row of the per-model grouping.
type ModelUsageEntry struct {
	ModelName string `json:"model_name"`
	Requests  int64  `json:"requests"`
}

// ProviderUsageEntry is one row of the per-provider grouping.
type ProviderUsageEntry struct {
	Provider string `json:"provider"`
	Requests int64  `json:"requests"`
}

// UserUsageEntry is one row of the per-user grouping. Anonymous records
// appear under the "anonymous" user.
type UserUsageEntry struct {
	User     string  `json:"user"`
	Requests int64   `json:"requests"`
	Cost     float64 `json:"cost"`
}

// ErrorProviderEntry is one row of the errors-by-provider breakdown.
type ErrorProviderEntry struct {
	Provider string `json:"provider"`
	Errors   int64  `json:"errors"`
}

// ErrorMessageEntry is one row of the errors-by-message breakdown. Messages
// bucket by exact string equality unless a normalizer was configured, so
// messages differing only in incidental detail count separately. That is a
// documented limitation, not a bug.
type ErrorMessageEntry struct {
	Message string `json:"message"`
	Errors  int64  `json:"errors"`
}

// TimeSeriesEntry is one hourly bucket, RFC 3339-keyed and chronological.
type TimeSeriesEntry struct {
	Hour        string  `json:"hour"`
	Requests    int64   `json:"requests"`
	Errors      int64   `json:"errors"`
	Tokens      int64   `json:"tokens"`
	Cost        float64 `json:"cost"`
	AvgLatency  float64 `json:"avg_latency"`
	UniqueUsers int64   `json:"unique_users"`
}

// Payload is the complete, JSON-ready analytics view. All presentation
// rounding happens exactly once, in Assemble: cost at 4 decimal places,
// latency and rates at 2. Collection fields are never nil so the payload
// serializes to empty arrays rather than null.
type Payload struct {
	Summary          SummaryPayload       `json:"summary"`
	Filters          FiltersPayload       `json:"filters"`
	ModelUsage       []ModelUsageEntry    `json:"model_usage"`
	ProviderUsage    []ProviderUsageEntry `json:"provider_usage"`
	UserUsage        []UserUsageEntry     `json:"user_usage"`
	ErrorsByProvider []ErrorProviderEntry `json:"errors_by_provider"`
	ErrorsByMessage  []ErrorMessageEntry  `json:"errors_by_message"`
	TimeSeries       []TimeSeriesEntry    `json:"time_series"`
}

// Assemble packages an aggregate Result into the wire Payload, applying the
// rounding rules and echoing back the filter that produced the view. It is a
// pure transformation and loses no information beyond the fixed rounding.
func Assemble(res Result, f Filter) Payload {
	p := Payload{
		Summary: SummaryPayload{
			TotalRequests: res.Summary.TotalRequests,
			Errors:        res.Summary.ErrorCount,
			ErrorRate:     round2(errorRate(res.Summary.ErrorCount, res.Summary.TotalRequests)),
			TotalTokens:   res.Summary.TotalTokens,
			TotalCost:     round4(res.Summary.TotalCost),
			AvgLatency:    round2(res.Summary.AvgLatency),
			UniqueUsers:   res.Summary.UniqueUsers,
		},
		Filters: FiltersPayload{
			User:      f.Username,
			StartDate: f.StartDate,
			EndDate:   f.EndDate,
			Users:     res.Users,
		},
		ModelUsage:       make([]ModelUsageEntry, 0, len(res.ModelUsage)),
		ProviderUsage:    make([]ProviderUsageEntry, 0, len(res.ProviderUsage)),
		UserUsage:        make([]UserUsageEntry, 0, len(res.UserUsage)),
		ErrorsByProvider: make([]ErrorProviderEntry, 0, len(res.ErrorsByProvider)),
		ErrorsByMessage:  make([]ErrorMessageEntry, 0, len(res.ErrorsByMessage)),
		TimeSeries:       make([]TimeSeriesEntry, 0, len(res.TimeSeries)),
	}
	if p.Filters.Users == nil {
		p.Filters.Users = []string{}
	}

	for _, g := range res.ModelUsage {
		p.ModelUsage = append(p.ModelUsage, ModelUsageEntry{ModelName: g.Key, Requests: g.Requests})
	}
	for _, g := range res.ProviderUsage {
		p.ProviderUsage = append(p.ProviderUsage, ProviderUsageEntry{Provider: g.Key, Requests: g.Requests})
	}
	for _, u := range res.UserUsage {
		p.UserUsage = append(p.UserUsage, UserUsageEntry{User: u.User, Requests: u.Requests, Cost: round4(u.Cost)})
	}
	for _, g := range res.ErrorsByProvider {
		p.ErrorsByProvider = append(p.ErrorsByProvider, ErrorProviderEntry{Provider: g.Key, Errors: g.Requests})
	}
	for _, g := range res.ErrorsByMessage {
		p.ErrorsByMessage = append(p.ErrorsByMessage, ErrorMessageEntry{Message: g.Key, Errors: g.Requests})
	}
	for _, b := range res.TimeSeries {
		p.TimeSeries = append(p.TimeSeries, TimeSeriesEntry{
			Hour:        b.Hour.UTC().Format(time.RFC3339),
			Requests:    b.Requests,
			Errors:      b.Errors,
			Tokens:      b.Tokens,
			Cost:        round4(b.Cost),
			AvgLatency:  round2(b.AvgLatency),
			UniqueUsers: b.UniqueUsers,
		})
	}
	return p
}

func errorRate(errs, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(errs) / float64(total) * 100
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
