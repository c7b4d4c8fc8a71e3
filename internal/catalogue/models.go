// Package catalogue turns ArcGIS-style feature collections into an immutable
// catalogue of mental-health programs.
package catalogue

import "errors"

// Sentinel errors for catalogue operations.
var (
	// ErrBadCatalogueFormat indicates the input is structurally wrong at the top level.
	ErrBadCatalogueFormat = errors.New("bad catalogue format")
	// ErrDuplicateProgramID indicates two programs share an id.
	ErrDuplicateProgramID = errors.New("duplicate program id")
)

// UnnamedProgram is the placeholder name used when a record carries no name.
const UnnamedProgram = "Unnamed Program"

// DefaultState is applied when a record has no state.
const DefaultState = "CA"

// ClinicType classifies the setting a program is delivered in.
type ClinicType string

const (
	ClinicTypeHospital    ClinicType = "hospital"
	ClinicTypeOutpatient  ClinicType = "outpatient"
	ClinicTypeSpecialized ClinicType = "specialized"
	ClinicTypeUrgent      ClinicType = "urgent"
)

// TreatmentFocus is a therapy modality offered by a program.
type TreatmentFocus string

const (
	FocusCBT                TreatmentFocus = "CBT"
	FocusMedication         TreatmentFocus = "medication"
	FocusTrauma             TreatmentFocus = "trauma"
	FocusFamilyTherapy      TreatmentFocus = "family therapy"
	FocusGroupTherapy       TreatmentFocus = "group therapy"
	FocusSubstanceAbuse     TreatmentFocus = "substance abuse"
	FocusCrisisIntervention TreatmentFocus = "crisis intervention"
)

// PrivacyLevel describes how much identifying information a visit requires.
type PrivacyLevel string

const (
	PrivacyAnonymous           PrivacyLevel = "anonymous"
	PrivacyGuardianNotRequired PrivacyLevel = "guardian-not-required"
	PrivacyStandard            PrivacyLevel = "standard"
)

// Capabilities are the service attributes the recommender filters and scores on.
type Capabilities struct {
	Type                ClinicType       `json:"type"`
	TreatmentFocus      []TreatmentFocus `json:"treatmentFocus"`
	PrivacyLevel        PrivacyLevel     `json:"privacyLevel"`
	Languages           []string         `json:"languages"`
	Insurance           []string         `json:"insurance"`
	AllowsAnonymous     bool             `json:"allowsAnonymous"`
	Telehealth          bool             `json:"telehealth"`
	GuardianNotRequired bool             `json:"guardianNotRequired"`
	WalkIn              bool             `json:"walkIn"`
	Open24x7            bool             `json:"open24x7"`
}

// Program is a normalised directory entry.
//
// DistanceKm, DistanceMiles and LoadAtArrival are transient: they are only
// set on copies returned from queries and never on catalogue entries.
type Program struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	OrgName     *string `json:"orgName,omitempty"`
	ProgramName *string `json:"programName,omitempty"`

	Address1 string  `json:"address1"`
	Address2 *string `json:"address2,omitempty"`
	City     string  `json:"city"`
	State    string  `json:"state"`
	Zip      *string `json:"zip,omitempty"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	Phones *string `json:"phones,omitempty"`
	Email  *string `json:"email,omitempty"`
	URL    *string `json:"url,omitempty"`
	Hours  *string `json:"hours,omitempty"`

	Description *string `json:"description,omitempty"`
	Info1       *string `json:"info1,omitempty"`
	Info2       *string `json:"info2,omitempty"`

	Category1  *string  `json:"category1,omitempty"`
	Category2  *string  `json:"category2,omitempty"`
	Category3  *string  `json:"category3,omitempty"`
	Categories []string `json:"categories"`

	Capabilities Capabilities `json:"capabilities"`

	DistanceKm    *float64 `json:"distanceKm,omitempty"`
	DistanceMiles *float64 `json:"distanceMiles,omitempty"`
	LoadAtArrival *float64 `json:"loadAtArrival,omitempty"`
}

// HasCategory reports whether the program lists the category exactly.
func (p Program) HasCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// LoadReport summarises a catalogue load.
type LoadReport struct {
	// Total is the number of records in the input.
	Total int `json:"total"`
	// Loaded is the number of programs in the resulting catalogue.
	Loaded int `json:"loaded"`
	// Dropped counts records without usable coordinates.
	Dropped int `json:"dropped"`
	// Duplicates counts records whose id was already taken by an earlier record.
	Duplicates int `json:"duplicates"`
}
