package catalogue

import (
	"strings"

	"golang.org/x/text/cases"
)

type keywordRule[T any] struct {
	value    T
	keywords []string
}

var languageRules = []keywordRule[string]{
	{"Spanish", []string{"spanish", "español", "espanol", "bilingual"}},
	{"Chinese", []string{"chinese", "mandarin", "cantonese"}},
	{"Korean", []string{"korean"}},
	{"Vietnamese", []string{"vietnamese"}},
	{"Tagalog", []string{"tagalog", "filipino"}},
	{"Armenian", []string{"armenian"}},
	{"Japanese", []string{"japanese"}},
	{"Russian", []string{"russian"}},
	{"Farsi", []string{"farsi", "persian"}},
	{"Arabic", []string{"arabic"}},
	{"ASL", []string{"sign language", "deaf"}},
}

var insuranceRules = []keywordRule[string]{
	{"Medicaid", []string{"medicaid", "medi-cal", "medi cal", "medical insurance"}},
	{"Medicare", []string{"medicare"}},
	{"Private", []string{"private insurance", "commercial insurance"}},
	{"Sliding Scale", []string{"sliding scale", "sliding fee"}},
	{"Free", []string{"no cost", "free of charge", "free services", "free mental"}},
}

var focusRules = []keywordRule[TreatmentFocus]{
	{FocusCBT, []string{"cbt", "cognitive behavioral", "cognitive-behavioral"}},
	{FocusMedication, []string{"medication", "psychiatr"}},
	{FocusTrauma, []string{"trauma", "ptsd", "abuse survivor"}},
	{FocusFamilyTherapy, []string{"family"}},
	{FocusGroupTherapy, []string{"group therapy", "support group", "groups"}},
	{FocusSubstanceAbuse, []string{"substance", "alcohol", "addiction", "drug"}},
	{FocusCrisisIntervention, []string{"crisis", "hotline", "suicide"}},
}

var (
	telehealthKeywords = []string{"telehealth", "telemedicine", "telepsychiatry", "virtual", "video visit", "online therapy"}
	anonymousKeywords  = []string{"anonymous"}
	guardianKeywords   = []string{"without parent", "no parental consent", "minor consent", "guardian not required", "without guardian", "teens can self-refer"}
	walkInKeywords     = []string{"walk-in", "walk in", "drop-in", "drop in"}
	allHoursKeywords   = []string{"24/7", "24 hours", "24-hour", "24 hour"}
	hospitalKeywords   = []string{"hospital", "inpatient", "medical center"}
	urgentKeywords     = []string{"urgent", "emergency", "crisis"}
	specialKeywords    = []string{"specialized", "specialty", "eating disorder", "substance", "addiction", "trauma"}
)

// InferCapabilities derives service attributes from a program's descriptive
// text. Explicit language and insurance lists are merged ahead of inferred ones.
func InferCapabilities(p Program, languages, insurance []string) Capabilities {
	text := searchableText(p)

	caps := Capabilities{
		Languages:           mergeUnique([]string{"English"}, languages, matchRules(text, languageRules)),
		Insurance:           mergeUnique(insurance, matchRules(text, insuranceRules)),
		TreatmentFocus:      matchRules(text, focusRules),
		Telehealth:          containsAny(text, telehealthKeywords),
		AllowsAnonymous:     containsAny(text, anonymousKeywords),
		GuardianNotRequired: containsAny(text, guardianKeywords),
		WalkIn:              containsAny(text, walkInKeywords),
		Open24x7:            containsAny(text, allHoursKeywords),
	}

	switch {
	case containsAny(text, hospitalKeywords):
		caps.Type = ClinicTypeHospital
	case containsAny(text, urgentKeywords):
		caps.Type = ClinicTypeUrgent
	case containsAny(text, specialKeywords):
		caps.Type = ClinicTypeSpecialized
	default:
		caps.Type = ClinicTypeOutpatient
	}

	switch {
	case caps.AllowsAnonymous:
		caps.PrivacyLevel = PrivacyAnonymous
	case caps.GuardianNotRequired:
		caps.PrivacyLevel = PrivacyGuardianNotRequired
	default:
		caps.PrivacyLevel = PrivacyStandard
	}

	return caps
}

func searchableText(p Program) string {
	parts := []string{p.Name}
	for _, s := range []*string{p.ProgramName, p.Description, p.Info1, p.Info2, p.Hours} {
		if s != nil {
			parts = append(parts, *s)
		}
	}
	parts = append(parts, p.Categories...)
	return cases.Fold().String(strings.Join(parts, " \n "))
}

func matchRules[T any](text string, rules []keywordRule[T]) []T {
	var out []T
	for _, r := range rules {
		if containsAny(text, r.keywords) {
			out = append(out, r.value)
		}
	}
	return out
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func mergeUnique(lists ...[]string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, l := range lists {
		for _, v := range l {
			key := cases.Fold().String(v)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
