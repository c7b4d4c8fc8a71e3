package recommend

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/calmroute/calmroute/internal/catalogue"
)

// Level buckets a recommendation score.
type Level string

const (
	LevelExcellent Level = "excellent"
	LevelGood      Level = "good"
	LevelFair      Level = "fair"
	LevelBasic     Level = "basic"
)

// LevelFor returns the level for a score.
func LevelFor(score float64) Level {
	switch {
	case score >= 60:
		return LevelExcellent
	case score >= 40:
		return LevelGood
	case score >= 20:
		return LevelFair
	default:
		return LevelBasic
	}
}

// Points awarded per component.
const (
	maxDistancePoints    = 30.0
	pointsPerMile        = 2.0
	clinicTypePoints     = 10.0
	treatmentFocusPoints = 15.0
	privacyLevelPoints   = 10.0
	languagePoints       = 8.0
	insurancePoints      = 12.0
	anonymousPoints      = 10.0
	telehealthPoints     = 8.0
	walkInPoints         = 5.0
	allHoursPoints       = 5.0
)

// MatchDetails records which components contributed.
type MatchDetails struct {
	DistanceMiles   *float64 `json:"distanceMiles,omitempty"`
	DistanceScore   float64  `json:"distanceScore"`
	TypeMatch       bool     `json:"typeMatch"`
	TreatmentMatch  bool     `json:"treatmentMatch"`
	PrivacyMatch    bool     `json:"privacyMatch"`
	LanguageMatch   bool     `json:"languageMatch"`
	InsuranceMatch  bool     `json:"insuranceMatch"`
	AnonymousMatch  *bool    `json:"anonymousMatch,omitempty"`
	TelehealthMatch *bool    `json:"telehealthMatch,omitempty"`
}

// Recommendation is a scored program.
type Recommendation struct {
	Program catalogue.Program `json:"program"`
	Score   float64           `json:"score"`
	Reasons []string          `json:"reasons"`
	Level   Level             `json:"recommendationLevel"`
	Details MatchDetails      `json:"matchDetails"`
}

// Score sums the additive components for a program. distanceMiles is nil
// when the user's location is unknown, in which case distance earns nothing.
// Reasons follow the component order.
func Score(p catalogue.Program, f Filter, distanceMiles *float64) Recommendation {
	c := p.Capabilities
	rec := Recommendation{
		Program: p,
		Reasons: []string{},
		Details: MatchDetails{DistanceMiles: distanceMiles},
	}
	add := func(points float64, reason string) {
		rec.Score += points
		if reason != "" {
			rec.Reasons = append(rec.Reasons, reason)
		}
	}

	if distanceMiles != nil {
		d := *distanceMiles
		rec.Details.DistanceScore = math.Max(0, maxDistancePoints-d*pointsPerMile)
		switch {
		case d < 2:
			add(rec.Details.DistanceScore, "Very close to you")
		case d < 5:
			add(rec.Details.DistanceScore, "Close location")
		default:
			add(rec.Details.DistanceScore, "")
		}
	}

	if len(f.ClinicTypes) > 0 && slices.Contains(f.ClinicTypes, c.Type) {
		rec.Details.TypeMatch = true
		add(clinicTypePoints, fmt.Sprintf("%s type match", c.Type))
	}

	if focus := intersect(f.TreatmentFocus, c.TreatmentFocus); len(focus) > 0 {
		rec.Details.TreatmentMatch = true
		names := make([]string, len(focus))
		for i, tf := range focus {
			names[i] = string(tf)
		}
		add(treatmentFocusPoints*float64(len(focus)), "Offers: "+strings.Join(names, ", "))
	}

	if len(f.PrivacyLevels) > 0 && slices.Contains(f.PrivacyLevels, c.PrivacyLevel) {
		rec.Details.PrivacyMatch = true
		add(privacyLevelPoints, "Privacy level match")
	}

	if langs := intersect(f.Languages, c.Languages); len(langs) > 0 {
		rec.Details.LanguageMatch = true
		add(languagePoints*float64(len(langs)), "Speaks: "+strings.Join(langs, ", "))
	}

	if ins := intersect(f.Insurance, c.Insurance); len(ins) > 0 {
		rec.Details.InsuranceMatch = true
		add(insurancePoints*float64(len(ins)), "Accepts: "+strings.Join(ins, ", "))
	}

	if f.AllowsAnonymous != nil {
		ok := *f.AllowsAnonymous == c.AllowsAnonymous
		rec.Details.AnonymousMatch = &ok
		if ok {
			if c.AllowsAnonymous {
				add(anonymousPoints, "Allows anonymous visits")
			} else {
				add(anonymousPoints, "Matches anonymous-visit preference")
			}
		}
	}

	if f.Telehealth != nil {
		ok := *f.Telehealth == c.Telehealth
		rec.Details.TelehealthMatch = &ok
		if ok {
			if c.Telehealth {
				add(telehealthPoints, "Telehealth available")
			} else {
				add(telehealthPoints, "Matches in-person preference")
			}
		}
	}

	if c.WalkIn {
		add(walkInPoints, "Walk-in available")
	}
	if c.Open24x7 {
		add(allHoursPoints, "Open 24/7")
	}

	rec.Level = LevelFor(rec.Score)
	return rec
}
