package catalogue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calmroute/calmroute/internal/catalogue"
)

func TestInferCapabilities(t *testing.T) {
	desc := "Walk-in crisis support with CBT groups. Se habla Español. Accepts Medi-Cal. Telehealth visits available."
	p := catalogue.Program{
		Name:        "Eastside Crisis Center",
		Description: &desc,
		Categories:  []string{"Youth", "Substance Abuse"},
	}

	caps := catalogue.InferCapabilities(p, nil, nil)

	assert.Equal(t, catalogue.ClinicTypeUrgent, caps.Type)
	assert.Equal(t, []string{"English", "Spanish"}, caps.Languages)
	assert.Equal(t, []string{"Medicaid"}, caps.Insurance)
	assert.True(t, caps.WalkIn)
	assert.True(t, caps.Telehealth)
	assert.False(t, caps.AllowsAnonymous)
	assert.Equal(t, catalogue.PrivacyStandard, caps.PrivacyLevel)
	assert.Contains(t, caps.TreatmentFocus, catalogue.FocusCBT)
	assert.Contains(t, caps.TreatmentFocus, catalogue.FocusSubstanceAbuse)
	assert.Contains(t, caps.TreatmentFocus, catalogue.FocusCrisisIntervention)
}

func TestInferCapabilities_ExplicitListsMerged(t *testing.T) {
	caps := catalogue.InferCapabilities(
		catalogue.Program{Name: "Plain Clinic"},
		[]string{"Korean", "english"},
		[]string{"Medicare"},
	)

	assert.Equal(t, []string{"English", "Korean"}, caps.Languages)
	assert.Equal(t, []string{"Medicare"}, caps.Insurance)
	assert.Equal(t, catalogue.ClinicTypeOutpatient, caps.Type)
}

func TestInferCapabilities_PrivacyLevel(t *testing.T) {
	tests := []struct {
		name     string
		info     string
		expected catalogue.PrivacyLevel
	}{
		{name: "anonymous", info: "Anonymous drop-in sessions", expected: catalogue.PrivacyAnonymous},
		{name: "minor consent", info: "Teens may be seen with minor consent", expected: catalogue.PrivacyGuardianNotRequired},
		{name: "standard", info: "Appointments by referral", expected: catalogue.PrivacyStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.info
			caps := catalogue.InferCapabilities(catalogue.Program{Name: "x", Info1: &info}, nil, nil)
			assert.Equal(t, tt.expected, caps.PrivacyLevel)
		})
	}
}

func TestInferCapabilities_Deterministic(t *testing.T) {
	desc := "Hospital inpatient psychiatry, Korean and Vietnamese speaking staff"
	p := catalogue.Program{Name: "General", Description: &desc}

	assert.Equal(t, catalogue.InferCapabilities(p, nil, nil), catalogue.InferCapabilities(p, nil, nil))
	assert.Equal(t, catalogue.ClinicTypeHospital, catalogue.InferCapabilities(p, nil, nil).Type)
}
