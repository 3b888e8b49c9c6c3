package analytics

import (
	"strings"
	"testing"
)

func TestNormalizeGroups_NilNormalizerPassesThrough(t *testing.T) {
	in := []GroupCount{{Key: "a", Requests: 2}, {Key: "b", Requests: 1}}
	out := NormalizeGroups(in, nil)
	if len(out) != 2 || out[0].Key != "a" || out[1].Key != "b" {
		t.Fatalf("nil normalizer should return input unchanged: %+v", out)
	}
}

func TestNormalizeGroups_MergesAndResorts(t *testing.T) {
	in := []GroupCount{
		{Key: "timeout calling upstream", Requests: 3},
		{Key: "rate limited", Requests: 4},
		{Key: "TIMEOUT calling upstream", Requests: 2},
	}
	out := NormalizeGroups(in, strings.ToLower)

	if len(out) != 2 {
		t.Fatalf("expected 2 merged buckets, got %d: %+v", len(out), out)
	}
	// timeout buckets merge to 5 and overtake "rate limited".
	if out[0].Key != "timeout calling upstream" || out[0].Requests != 5 {
		t.Fatalf("merged bucket wrong: %+v", out[0])
	}
	if out[1].Key != "rate limited" || out[1].Requests != 4 {
		t.Fatalf("second bucket wrong: %+v", out[1])
	}
}

func TestNormalizeGroups_StableOnTies(t *testing.T) {
	in := []GroupCount{{Key: "x", Requests: 2}, {Key: "y", Requests: 2}}
	out := NormalizeGroups(in, func(s string) string { return s })
	if out[0].Key != "x" || out[1].Key != "y" {
		t.Fatalf("tied buckets must keep encounter order: %+v", out)
	}
}
