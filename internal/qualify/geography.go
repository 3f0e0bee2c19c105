package qualify

import (
	"regexp"
	"strings"
	"time"
)

var countyPattern = regexp.MustCompile(`\b([a-z]+)\s*county\b`)

// Geography is the location analysis for a lead.
type Geography struct {
	County      string
	IsTriCounty bool
	IsInState   bool
}

// analyzeGeography extracts the county from a free-text accident location
// and determines in-state and preferred-region eligibility.
func (e *Engine) analyzeGeography(location string) Geography {
	if location == "" {
		return Geography{}
	}

	loc := strings.ToLower(location)

	var county string
	if m := countyPattern.FindStringSubmatch(loc); m != nil {
		county = m[1]
	}

	// No explicit county: match known cities in table order.
	if county == "" {
		for _, metro := range e.state.MajorMetros {
			if strings.Contains(loc, metro.City) {
				county = metro.County
				break
			}
		}
	}

	geo := Geography{County: county}

	if county != "" && e.accepted[county] {
		geo.IsInState = true
	} else {
		for _, marker := range e.state.Markers {
			if strings.Contains(loc, marker) {
				geo.IsInState = true
				break
			}
		}
	}

	// Preferred-region standing is independent of the in-state check.
	if county != "" {
		geo.IsTriCounty = e.preferred[county]
	}

	return geo
}

// monthsUntilSOL returns whole months remaining before the statute of
// limitations expires, or nil when the accident date is unknown.
func monthsUntilSOL(accidentDate *time.Time, solYears int, now time.Time) *int {
	if accidentDate == nil {
		return nil
	}

	expiration := accidentDate.AddDate(0, 0, solYears*365)
	if !now.Before(expiration) {
		zero := 0
		return &zero
	}

	months := (expiration.Year()-now.Year())*12 + int(expiration.Month()) - int(now.Month())
	if months < 0 {
		months = 0
	}
	return &months
}
