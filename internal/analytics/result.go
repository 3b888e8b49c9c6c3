package analytics

import (
	"sort"
	"time"
)

// AnonymousUser is the sentinel bucket under which records without a user
// identity appear in the per-user grouping. Anonymous records are never
// dropped from any aggregate; they are excluded only from distinct-user
// counts, which count identities (see Summary.UniqueUsers).
const AnonymousUser = "anonymous"

// Summary holds the scalar aggregates over a filtered record subset. All
// values are defined for the empty subset: sums and counts are 0 and
// AvgLatency is 0, never NaN.
type Summary struct {
	TotalRequests int64
	ErrorCount    int64
	TotalTokens   int64
	TotalCost     float64
	AvgLatency    float64
	UniqueUsers   int64
}

// GroupCount is one bucket of a single-key grouping: requests per model,
// per provider, or errors per provider / per message. Groupings are ordered
// by count descending; ties keep their encounter order, which is stable for
// a fixed snapshot.
type GroupCount struct {
	Key      string
	Requests int64
}

// UserUsage is one bucket of the per-user grouping, pairing the request
// count with the summed cost attributable to that user.
type UserUsage struct {
	User     string
	Requests int64
	Cost     float64
}

// TimeBucket is one hourly bucket of the time series, keyed by the
// truncated-to-hour timestamp. Buckets exist only for hours containing at
// least one record.
type TimeBucket struct {
	Hour        time.Time
	Requests    int64
	Errors      int64
	Tokens      int64
	Cost        float64
	AvgLatency  float64
	UniqueUsers int64
}

// Result is the complete output of the aggregator for one filtered view of
// the store, before presentation rounding. Users is the distinct identity
// set across the entire unfiltered store, exposed so callers can populate a
// filter control independent of the current filter.
type Result struct {
	Summary          Summary
	ModelUsage       []GroupCount
	ProviderUsage    []GroupCount
	UserUsage        []UserUsage
	ErrorsByProvider []GroupCount
	ErrorsByMessage  []GroupCount
	TimeSeries       []TimeBucket
	Users            []string
}

// NormalizeGroups re-buckets group counts through the given key-normalization
// function, merging buckets whose normalized keys collide, and re-sorts by
// count descending (stable on ties). A nil normalize function returns the
// input unchanged.
//
// This is the hook behind configurable error-message grouping: by default
// messages group by exact string equality, which conflates nothing but also
// deduplicates nothing; deployments that want to strip dynamic substrings
// supply a normalizer instead of forking the aggregator.
func NormalizeGroups(groups []GroupCount, normalize func(string) string) []GroupCount {
	if normalize == nil {
		return groups
	}
	idx := make(map[string]int, len(groups))
	out := make([]GroupCount, 0, len(groups))
	for _, g := range groups {
		key := normalize(g.Key)
		if i, ok := idx[key]; ok {
			out[i].Requests += g.Requests
			continue
		}
		idx[key] = len(out)
		out = append(out, GroupCount{Key: key, Requests: g.Requests})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Requests > out[j].Requests })
	return out
}
