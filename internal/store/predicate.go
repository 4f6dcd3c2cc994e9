package store

import (
	"fmt"
	"strconv"
	"strings"
)

// Filter carries the user's selector choices for a search. Empty string
// fields mean "all" and do not constrain the result. Year is the display
// string from the year selector and is parsed to an integer when set.
// MatchAny selects OR combination instead of the default AND.
type Filter struct {
	Region     string
	Site       string
	Year       string
	Month      int
	CameraType string
	Inspector  string
	MatchAny   bool
}

// Condition is a single field equality test
type Condition struct {
	Field string
	Value any
}

// Predicate is the filter expression applied to a select: a conjunction
// (MatchAny=false) or disjunction (MatchAny=true) of equality conditions.
// An empty condition list is an unconditional fetch, which for a disjunction
// with no set fields is the documented degenerate case, not an error.
type Predicate struct {
	Conditions []Condition
	MatchAny   bool
}

// Empty reports whether the predicate constrains nothing
func (p Predicate) Empty() bool {
	return len(p.Conditions) == 0
}

// BuildPredicate translates a filter selection into a predicate. Exactly one
// condition is produced per set field, in a fixed field order; AND and OR are
// never mixed within one predicate.
func BuildPredicate(f Filter) (Predicate, error) {
	p := Predicate{MatchAny: f.MatchAny}

	if v := strings.TrimSpace(f.Region); v != "" {
		p.Conditions = append(p.Conditions, Condition{Field: "region", Value: v})
	}
	if v := strings.TrimSpace(f.Site); v != "" {
		p.Conditions = append(p.Conditions, Condition{Field: "site_name", Value: v})
	}
	if v := strings.TrimSpace(f.Year); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return Predicate{}, &ValidationError{Field: "year", Reason: fmt.Sprintf("not a number: %q", f.Year)}
		}
		p.Conditions = append(p.Conditions, Condition{Field: "repair_year", Value: year})
	}
	if f.Month != 0 {
		if f.Month < 1 || f.Month > 12 {
			return Predicate{}, &ValidationError{Field: "month", Reason: "must be between 1 and 12"}
		}
		// Month is always a numeric equality test, in either mode
		p.Conditions = append(p.Conditions, Condition{Field: "repair_month", Value: f.Month})
	}
	if v := strings.TrimSpace(f.CameraType); v != "" {
		p.Conditions = append(p.Conditions, Condition{Field: "camera_type", Value: v})
	}
	if v := strings.TrimSpace(f.Inspector); v != "" {
		p.Conditions = append(p.Conditions, Condition{Field: "inspector", Value: v})
	}

	return p, nil
}
