// Package query computes the visible subset and order of parts for a list
// request. It is read-only and stateless: callers hand it a snapshot and a
// filter and receive a new, ordered slice.
package query

import (
	"sort"
	"strings"
	"time"

	"partdepot/internal/model"
)

// SortKey selects the list ordering.
type SortKey string

const (
	SortByName            SortKey = "name"
	SortByYear            SortKey = "year"
	SortByLastEvent       SortKey = "lastEvent"
	SortByLocationHistory SortKey = "locationHistory"
)

// noEventProxyDays is the "very old" stand-in age for parts that have never
// had a maintenance event: they satisfy a last-event range only when its
// upper bound reaches this value.
const noEventProxyDays = 365

// Filter holds the filter and sort inputs for one list request.
// Zero values mean "no restriction"; an empty Filter returns the whole
// snapshot sorted by name ascending.
type Filter struct {
	Search       string
	PartTypes    []model.PartType
	Locations    []string
	YearMin      *int
	YearMax      *int
	LastEventMin *int
	LastEventMax *int
	SortBy       SortKey
}

// Apply filters and orders a snapshot of parts:
//
//  1. search, partTypes, locations and the year range are applied as one
//     conjunctive pre-filter,
//  2. the result is ordered by SortBy,
//  3. the last-event range is applied as a post-filter, preserving order.
func Apply(parts []model.Part, f Filter, now time.Time) []model.Part {
	out := make([]model.Part, 0, len(parts))
	for _, p := range parts {
		if matches(&p, f) {
			out = append(out, p)
		}
	}

	sortParts(out, f.SortBy)

	if f.LastEventMin == nil && f.LastEventMax == nil {
		return out
	}
	filtered := out[:0]
	for _, p := range out {
		if matchesLastEvent(&p, f, now) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

func matches(p *model.Part, f Filter) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
		return false
	}
	if len(f.PartTypes) > 0 && !containsType(f.PartTypes, p.PartType) {
		return false
	}
	if len(f.Locations) > 0 && !containsString(f.Locations, p.Location) {
		return false
	}
	// Parts with no recorded year pass any year range.
	if p.Year != nil {
		if f.YearMin != nil && *p.Year < *f.YearMin {
			return false
		}
		if f.YearMax != nil && *p.Year > *f.YearMax {
			return false
		}
	}
	return true
}

// DaysSinceLastEvent returns the whole-day age of the most recent maintenance
// event, floor-truncated. ok is false for parts with no events.
func DaysSinceLastEvent(p *model.Part, now time.Time) (int, bool) {
	last, ok := p.LastEventDate()
	if !ok {
		return 0, false
	}
	return int(now.Sub(last) / (24 * time.Hour)), true
}

func matchesLastEvent(p *model.Part, f Filter, now time.Time) bool {
	days, ok := DaysSinceLastEvent(p, now)
	if !ok {
		// No events: only ranges reaching the "very old" proxy match.
		return f.LastEventMax == nil || *f.LastEventMax >= noEventProxyDays
	}
	if f.LastEventMin != nil && days < *f.LastEventMin {
		return false
	}
	if f.LastEventMax != nil && days > *f.LastEventMax {
		return false
	}
	return true
}

// sortParts orders the filtered set in place. The lastEvent and
// locationHistory keys intentionally fall back to name / location ordering
// rather than recency or history depth — this preserves the behavior the UI
// has always shown.
func sortParts(parts []model.Part, key SortKey) {
	switch key {
	case SortByYear:
		sort.SliceStable(parts, func(i, j int) bool {
			yi, yj := parts[i].Year, parts[j].Year
			switch {
			case yi == nil && yj == nil:
				return nameLess(&parts[i], &parts[j])
			case yi == nil:
				return false // unknown years sort last
			case yj == nil:
				return true
			case *yi != *yj:
				return *yi > *yj // descending
			default:
				return nameLess(&parts[i], &parts[j])
			}
		})
	case SortByLocationHistory:
		sort.SliceStable(parts, func(i, j int) bool {
			if parts[i].Location != parts[j].Location {
				return parts[i].Location < parts[j].Location
			}
			return nameLess(&parts[i], &parts[j])
		})
	default: // SortByName, SortByLastEvent, and anything unrecognized
		sort.SliceStable(parts, func(i, j int) bool {
			return nameLess(&parts[i], &parts[j])
		})
	}
}

// nameLess compares case-insensitively, breaking ties by part number so the
// ordering is total.
func nameLess(a, b *model.Part) bool {
	an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
	if an != bn {
		return an < bn
	}
	return a.PartNumber < b.PartNumber
}

func containsType(set []model.PartType, t model.PartType) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
