package report

import (
	"sort"
	"strconv"
	"strings"
)

// DetectorOutput is one detector's issue slice, tagged with its fixed
// position in the detector run order.
type DetectorOutput struct {
	Detector string
	Issues   []Issue
}

// Aggregate merges detector outputs into a single stable issues list:
// detector order first, then file, then line within a detector. Exact
// duplicates are removed, so feeding the same outputs twice is
// idempotent.
func Aggregate(outputs ...DetectorOutput) []Issue {
	var merged []Issue
	seen := make(map[Issue]bool)

	for _, out := range outputs {
		issues := make([]Issue, len(out.Issues))
		copy(issues, out.Issues)
		sort.SliceStable(issues, func(i, j int) bool {
			fi, li := splitLocation(issues[i].Location)
			fj, lj := splitLocation(issues[j].Location)
			if fi != fj {
				return fi < fj
			}
			return li < lj
		})
		for _, is := range issues {
			if seen[is] {
				continue
			}
			seen[is] = true
			merged = append(merged, is)
		}
	}
	return merged
}

// splitLocation splits a "file:line" location. Locations without a line
// component sort by file alone.
func splitLocation(loc string) (string, int) {
	i := strings.LastIndex(loc, ":")
	if i < 0 {
		return loc, 0
	}
	line, err := strconv.Atoi(loc[i+1:])
	if err != nil {
		return loc, 0
	}
	return loc[:i], line
}

// Score computes a severity-weighted 0-100 score:
// clamp(100 - sum(weight(severity))).
func Score(issues []Issue) int {
	deduction := 0
	for _, is := range issues {
		deduction += is.Severity.Weight()
	}
	return Clamp(100 - deduction)
}

// Clamp bounds a score to [0, 100].
func Clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// FilterByTypes returns the issues whose type is in the given set,
// preserving order.
func FilterByTypes(issues []Issue, types ...IssueType) []Issue {
	want := make(map[IssueType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	var out []Issue
	for _, is := range issues {
		if want[is.Type] {
			out = append(out, is)
		}
	}
	return out
}
