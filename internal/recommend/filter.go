// Package recommend filters, scores and ranks catalogue programs against a
// user's preferences and location.
package recommend

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/calmroute/calmroute/internal/catalogue"
	"github.com/calmroute/calmroute/internal/geo"
)

// AllCities is the city sentinel that matches every program.
const AllCities = "All"

// ErrInvalidFilter indicates an unknown mode or unit, or a negative distance.
var ErrInvalidFilter = errors.New("invalid filter")

// CategoryMode selects how multiple categories combine.
type CategoryMode string

const (
	// CategoryAny matches programs listing at least one selected category.
	CategoryAny CategoryMode = "any"
	// CategoryAll matches programs listing every selected category.
	CategoryAll CategoryMode = "all"
)

// DistanceUnit is the unit MaxDistance is expressed in.
type DistanceUnit string

const (
	Miles      DistanceUnit = "miles"
	Kilometres DistanceUnit = "km"
)

// Filter holds the hard filters and preferences for a query.
//
// Nil toggles are unset. Empty lists impose nothing.
type Filter struct {
	Search       string       `json:"search,omitempty"`
	City         string       `json:"city,omitempty"`
	Categories   []string     `json:"categories,omitempty"`
	CategoryMode CategoryMode `json:"categoryMode,omitempty"`

	MaxDistance  *float64     `json:"maxDistance,omitempty"`
	DistanceUnit DistanceUnit `json:"distanceUnit,omitempty"`

	ClinicTypes    []catalogue.ClinicType     `json:"clinicTypes,omitempty"`
	TreatmentFocus []catalogue.TreatmentFocus `json:"treatmentFocus,omitempty"`
	PrivacyLevels  []catalogue.PrivacyLevel   `json:"privacyLevels,omitempty"`
	Languages      []string                   `json:"languages,omitempty"`
	Insurance      []string                   `json:"insurance,omitempty"`

	Telehealth          *bool `json:"telehealth,omitempty"`
	AllowsAnonymous     *bool `json:"allowsAnonymous,omitempty"`
	GuardianNotRequired *bool `json:"guardianNotRequired,omitempty"`
}

// Validate checks the enumerations and distance.
func (f Filter) Validate() error {
	switch f.CategoryMode {
	case "", CategoryAny, CategoryAll:
	default:
		return fmt.Errorf("%w: category mode %q", ErrInvalidFilter, f.CategoryMode)
	}
	switch f.DistanceUnit {
	case "", Miles, Kilometres:
	default:
		return fmt.Errorf("%w: distance unit %q", ErrInvalidFilter, f.DistanceUnit)
	}
	if f.MaxDistance != nil && (math.IsNaN(*f.MaxDistance) || *f.MaxDistance < 0) {
		return fmt.Errorf("%w: max distance %v", ErrInvalidFilter, *f.MaxDistance)
	}
	return nil
}

// maxDistanceMiles returns the distance limit converted to miles.
func (f Filter) maxDistanceMiles() (float64, bool) {
	if f.MaxDistance == nil {
		return 0, false
	}
	if f.DistanceUnit == Kilometres {
		return geo.KmToMiles(*f.MaxDistance), true
	}
	return *f.MaxDistance, true
}

// Matches reports whether the program passes every hard filter. distanceMiles
// is nil when the user's location is unknown, which skips the distance check.
func Matches(p catalogue.Program, f Filter, distanceMiles *float64) bool {
	return matchesBase(p, f, distanceMiles) && matchesCity(p, f) && matchesCategories(p, f)
}

// matchesBase applies every filter except city and categories.
func matchesBase(p catalogue.Program, f Filter, distanceMiles *float64) bool {
	return matchesSearch(p, f.Search) &&
		matchesDistance(f, distanceMiles) &&
		matchesCapabilities(p.Capabilities, f)
}

func matchesSearch(p catalogue.Program, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	text := p.Name + " " + p.City + " "
	if p.Description != nil {
		text += *p.Description
	}
	fold := cases.Fold()
	return strings.Contains(fold.String(text), fold.String(query))
}

func matchesCity(p catalogue.Program, f Filter) bool {
	return f.City == "" || f.City == AllCities || p.City == f.City
}

func matchesCategories(p catalogue.Program, f Filter) bool {
	if len(f.Categories) == 0 {
		return true
	}
	if f.CategoryMode == CategoryAll {
		for _, c := range f.Categories {
			if !p.HasCategory(c) {
				return false
			}
		}
		return true
	}
	for _, c := range f.Categories {
		if p.HasCategory(c) {
			return true
		}
	}
	return false
}

func matchesDistance(f Filter, distanceMiles *float64) bool {
	limit, ok := f.maxDistanceMiles()
	if !ok || distanceMiles == nil {
		return true
	}
	return *distanceMiles <= limit
}

func matchesCapabilities(c catalogue.Capabilities, f Filter) bool {
	if len(f.ClinicTypes) > 0 && !slices.Contains(f.ClinicTypes, c.Type) {
		return false
	}
	if len(f.TreatmentFocus) > 0 && len(intersect(f.TreatmentFocus, c.TreatmentFocus)) == 0 {
		return false
	}
	if len(f.PrivacyLevels) > 0 && !slices.Contains(f.PrivacyLevels, c.PrivacyLevel) {
		return false
	}
	if len(f.Languages) > 0 && len(intersect(f.Languages, c.Languages)) == 0 {
		return false
	}
	if len(f.Insurance) > 0 && len(intersect(f.Insurance, c.Insurance)) == 0 {
		return false
	}
	return toggleOK(f.Telehealth, c.Telehealth) &&
		toggleOK(f.AllowsAnonymous, c.AllowsAnonymous) &&
		toggleOK(f.GuardianNotRequired, c.GuardianNotRequired)
}

func toggleOK(want *bool, have bool) bool {
	return want == nil || *want == have
}

// intersect returns the elements of have that some wanted value matches under
// case folding, in wanted's order and spelled as in have.
func intersect[T ~string](wanted, have []T) []T {
	fold := cases.Fold()
	var out []T
	for _, w := range wanted {
		key := fold.String(string(w))
		for _, h := range have {
			if fold.String(string(h)) == key && !slices.Contains(out, h) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}
