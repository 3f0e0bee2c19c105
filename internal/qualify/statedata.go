package qualify

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// StateData holds per-state geography and limitations rules. The firm
// practices in South Carolina; other states are kept for expansion.
type StateData struct {
	Name              string
	Abbreviation      string
	SOLYears          int
	SOLNotes          string
	Counties          []string
	MajorMetros       []Metro
	PreferredCounties []string
	Markers           []string // location substrings indicating the state
}

// Metro maps a city name to its county. Matching walks the table in
// declared order, so a location naming several cities always resolves
// to the earliest entry.
type Metro struct {
	City   string
	County string
}

var states = map[string]StateData{
	"SC": {
		Name:         "South Carolina",
		Abbreviation: "SC",
		SOLYears:     3,
		SOLNotes:     "Three years from date of injury for negligence claims (S.C. Code § 15-3-530).",
		Counties: []string{
			"abbeville", "aiken", "allendale", "anderson", "bamberg", "barnwell",
			"beaufort", "berkeley", "calhoun", "charleston", "cherokee", "chester",
			"chesterfield", "clarendon", "colleton", "darlington", "dillon",
			"dorchester", "edgefield", "fairfield", "florence", "georgetown",
			"greenville", "greenwood", "hampton", "horry", "jasper", "kershaw",
			"lancaster", "laurens", "lee", "lexington", "marion", "marlboro",
			"mccormick", "newberry", "oconee", "orangeburg", "pickens", "richland",
			"saluda", "spartanburg", "sumter", "union", "williamsburg", "york",
		},
		MajorMetros: []Metro{
			{"charleston", "charleston"},
			{"north charleston", "charleston"},
			{"mount pleasant", "charleston"},
			{"mt pleasant", "charleston"},
			{"summerville", "dorchester"},
			{"goose creek", "berkeley"},
			{"moncks corner", "berkeley"},
			{"columbia", "richland"},
			{"greenville", "greenville"},
			{"spartanburg", "spartanburg"},
			{"myrtle beach", "horry"},
			{"florence", "florence"},
			{"rock hill", "york"},
			{"anderson", "anderson"},
			{"hilton head", "beaufort"},
		},
		PreferredCounties: []string{"charleston", "berkeley", "dorchester"},
		Markers:           []string{", sc", "south carolina", ", s.c."},
	},
}

// LoadState returns the data for a two-letter state code.
func LoadState(abbreviation string) (StateData, error) {
	state, ok := states[strings.ToUpper(abbreviation)]
	if !ok {
		return StateData{}, eris.Errorf("qualify: state data not found: %s", abbreviation)
	}
	return state, nil
}

// AvailableStates lists the state codes with data, sorted.
func AvailableStates() []string {
	out := make([]string, 0, len(states))
	for abbr := range states {
		out = append(out, abbr)
	}
	sort.Strings(out)
	return out
}
