// Package rating aggregates comment ratings into an average and a star bar.
package rating

import (
	"fmt"
	"math"
	"strings"

	"github.com/mantonx/catalog/internal/modules/catalogmodule/models"
)

// Glyphs used by Stars
const (
	FullStar  = "★"
	HalfStar  = "⯪"
	EmptyStar = "☆"
)

// StarCount is the fixed width of a star bar
const StarCount = 5

// UnratedPolicy decides how comments without a rating count
type UnratedPolicy string

const (
	// UnratedExclude leaves unrated comments out of the average, which
	// keeps any average in [1,5] since ratings are 1-5.
	UnratedExclude UnratedPolicy = "exclude"
	// UnratedZero counts unrated comments as 0, so an average can fall
	// below 1 (one rating of 1 and one unrated comment average 0.5).
	UnratedZero UnratedPolicy = "zero"
)

// ParsePolicy maps a config value to a policy. Empty means exclude.
func ParsePolicy(s string) (UnratedPolicy, error) {
	switch UnratedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", UnratedExclude:
		return UnratedExclude, nil
	case UnratedZero:
		return UnratedZero, nil
	default:
		return "", fmt.Errorf("unknown unrated policy %q", s)
	}
}

// Summary is the aggregate shown next to an item
type Summary struct {
	Average  float64 `json:"average"`
	HasValue bool    `json:"hasValue"`
	Stars    string  `json:"stars"`
	Count    int     `json:"count"`
	Rated    int     `json:"rated"`
}

// Average returns the mean rating. ok is false when no comment contributes.
func Average(comments []*models.Comment, policy UnratedPolicy) (avg float64, ok bool) {
	sum, n := 0, 0
	for _, c := range comments {
		if c == nil {
			continue
		}
		switch {
		case c.Rating != nil:
			sum += *c.Rating
			n++
		case policy == UnratedZero:
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return float64(sum) / float64(n), true
}

// Stars renders avg as exactly StarCount glyphs: the whole part as full
// stars, a half star when the fraction is at least 0.5, empty stars after.
func Stars(avg float64) string {
	if math.IsNaN(avg) || avg < 0 {
		avg = 0
	}
	if avg > StarCount {
		avg = StarCount
	}

	full := int(math.Floor(avg))
	half := 0
	if full < StarCount && avg-float64(full) >= 0.5 {
		half = 1
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(FullStar, full))
	b.WriteString(strings.Repeat(HalfStar, half))
	b.WriteString(strings.Repeat(EmptyStar, StarCount-full-half))
	return b.String()
}

// Summarize builds the full rating summary for a comment list
func Summarize(comments []*models.Comment, policy UnratedPolicy) Summary {
	avg, ok := Average(comments, policy)

	rated := 0
	for _, c := range comments {
		if c != nil && c.Rating != nil {
			rated++
		}
	}

	return Summary{
		Average:  avg,
		HasValue: ok,
		Stars:    Stars(avg),
		Count:    len(comments),
		Rated:    rated,
	}
}
