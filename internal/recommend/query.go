package recommend

import (
	"sort"

	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/geo"
)

// Result is the visible subset of a catalogue plus the menus built from it.
type Result struct {
	Visible []catalogue.Program `json:"visible"`
	// Cities and Categories come from the programs that pass every filter
	// except city and categories, so selecting one never empties its menu.
	Cities     []string `json:"cities"`
	Categories []string `json:"categories"`
}

// Query filters programs in two stages and returns copies carrying distance
// when the user location is known.
func Query(programs []catalogue.Program, f Filter, user *geo.Point) Result {
	res := Result{
		Visible:    []catalogue.Program{},
		Cities:     []string{},
		Categories: []string{},
	}
	cities := make(map[string]struct{})
	categories := make(map[string]struct{})

	for _, p := range programs {
		p = withDistance(p, user)
		if !matchesBase(p, f, p.DistanceMiles) {
			continue
		}
		if p.City != "" {
			cities[p.City] = struct{}{}
		}
		for _, c := range p.Categories {
			categories[c] = struct{}{}
		}
		if matchesCity(p, f) && matchesCategories(p, f) {
			res.Visible = append(res.Visible, p)
		}
	}

	res.Cities = sortedKeys(cities)
	res.Categories = sortedKeys(categories)
	return res
}

// Recommend scores and ranks every program passing the filter.
func Recommend(programs []catalogue.Program, f Filter, user *geo.Point) []Recommendation {
	recs := []Recommendation{}
	for _, p := range programs {
		p = withDistance(p, user)
		if !Matches(p, f, p.DistanceMiles) {
			continue
		}
		recs = append(recs, Score(p, f, p.DistanceMiles))
	}
	Rank(recs)
	return recs
}

// withDistance returns a copy of p with transient distance fields set.
func withDistance(p catalogue.Program, user *geo.Point) catalogue.Program {
	p.DistanceKm, p.DistanceMiles = nil, nil
	if user == nil {
		return p
	}
	km := geo.DistanceKm(*user, geo.Point{Lat: p.Latitude, Lon: p.Longitude})
	mi := geo.KmToMiles(km)
	p.DistanceKm = &km
	p.DistanceMiles = &mi
	return p
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
