// Package domain contains core business entities and types for preventive-care
// screening recommendations modeled on USPSTF (United States Preventive
// Services Task Force) guideline summaries.
//
// The recommendations produced here are patient-education material, not a
// clinical diagnostic: each catalog rule encodes a simplified summary of a
// published screening guideline.
package domain

import (
	"fmt"
)

// Sex represents the patient's sex as used by the screening guidelines.
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// SmokingStatus represents the patient's smoking-history category.
type SmokingStatus string

const (
	NEVER_SMOKER   SmokingStatus = "never"
	CURRENT_SMOKER SmokingStatus = "current"
	FORMER_SMOKER  SmokingStatus = "former"
)

// Grade represents a USPSTF evidence grade attached to a recommendation.
// Grades follow the published USPSTF definitions: A and B are recommended
// services, C is selectively offered, D is recommended against, and I marks
// insufficient evidence.
type Grade string

const (
	GRADE_A Grade = "A"
	GRADE_B Grade = "B"
	GRADE_C Grade = "C"
	GRADE_D Grade = "D"
	GRADE_I Grade = "I"
)

// RiskFactor represents a reported risk-factor tag from the fixed vocabulary.
// Tags outside this vocabulary are silently ignored by the engine so the
// catalog can grow without breaking older clients.
type RiskFactor string

const (
	FAMILY_HISTORY_AAA RiskFactor = "family-history-aaa"
	FAMILY_HISTORY_CRC RiskFactor = "family-history-crc"
	OSTEOPOROSIS_RISK  RiskFactor = "osteoporosis-risk"
	OVERWEIGHT         RiskFactor = "overweight"
	HIV_RISK           RiskFactor = "hiv-risk"
	HCV_RISK           RiskFactor = "hcv-risk"
	STI_RISK           RiskFactor = "sti-risk"
	TB_RISK            RiskFactor = "tb-risk"
)

// AgeUnknown marks a profile whose age was absent or unparseable at the
// intake boundary. Every age comparison treats an unknown age as outside the
// range, for lower and upper bounds alike, so age-gated rules never match
// such profiles. See PatientProfile.AgeKnown and the Age* helpers.
const AgeUnknown = -1

// IsValid validates the sex value against the guideline vocabulary.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sex value.
func (s Sex) String() string {
	return string(s)
}

// IsValid validates the smoking status against the guideline vocabulary.
func (ss SmokingStatus) IsValid() bool {
	switch ss {
	case NEVER_SMOKER, CURRENT_SMOKER, FORMER_SMOKER:
		return true
	default:
		return false
	}
}

// String returns the string representation of the smoking status.
func (ss SmokingStatus) String() string {
	return string(ss)
}

// IsValid validates that the grade belongs to the closed USPSTF set.
// Recommendations with grades outside this set must never reach a patient.
func (g Grade) IsValid() bool {
	switch g {
	case GRADE_A, GRADE_B, GRADE_C, GRADE_D, GRADE_I:
		return true
	default:
		return false
	}
}

// String returns the string representation of the grade.
func (g Grade) String() string {
	return string(g)
}

// Description returns a human-readable summary of the grade for patient
// communication and rendered reports.
func (g Grade) Description() string {
	switch g {
	case GRADE_A:
		return "Strongly recommended - high certainty of substantial net benefit"
	case GRADE_B:
		return "Recommended - high certainty of moderate to substantial net benefit"
	case GRADE_C:
		return "Selectively offered - small net benefit for most people"
	case GRADE_D:
		return "Recommended against - no net benefit or harms outweigh benefits"
	case GRADE_I:
		return "Insufficient evidence to assess the balance of benefits and harms"
	default:
		return "Unknown grade"
	}
}

// IsValid validates the risk-factor tag against the fixed vocabulary.
// Unknown tags are not errors elsewhere in the system; this check exists for
// callers that want to distinguish recognized tags from ignored ones.
func (rf RiskFactor) IsValid() bool {
	switch rf {
	case FAMILY_HISTORY_AAA, FAMILY_HISTORY_CRC, OSTEOPOROSIS_RISK, OVERWEIGHT,
		HIV_RISK, HCV_RISK, STI_RISK, TB_RISK:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk-factor tag.
func (rf RiskFactor) String() string {
	return string(rf)
}

// PatientProfile is the input snapshot a single evaluation runs against.
// It is immutable for the duration of one evaluation; the engine never
// mutates it and never reads anything beyond it.
type PatientProfile struct {
	// Demographics. Age is in whole years; AgeUnknown (or any negative
	// value) means the age was not reported.
	Age      int  `json:"age"`
	Sex      Sex  `json:"sex"`
	Pregnant bool `json:"pregnant"`

	// Smoking history. The numeric fields default to 0 when not reported;
	// YearsSinceQuit is meaningful only for former smokers.
	SmokingStatus    SmokingStatus `json:"smoking_status"`
	CigarettesPerDay float64       `json:"cigarettes_per_day"`
	YearsSmoked      float64       `json:"years_smoked"`
	YearsSinceQuit   float64       `json:"years_since_quit"`

	// Reported risk-factor tags. Order is not significant; tags outside the
	// RiskFactor vocabulary are carried but never matched.
	Conditions []RiskFactor `json:"conditions,omitempty"`
}

// AgeKnown reports whether the profile carries a usable age.
func (p PatientProfile) AgeKnown() bool {
	return p.Age >= 0
}

// AgeBetween reports whether the age is known and inside [lo, hi], both
// bounds inclusive.
func (p PatientProfile) AgeBetween(lo, hi int) bool {
	return p.AgeKnown() && p.Age >= lo && p.Age <= hi
}

// AgeAtLeast reports whether the age is known and at least n.
func (p PatientProfile) AgeAtLeast(n int) bool {
	return p.AgeKnown() && p.Age >= n
}

// AgeAbove reports whether the age is known and strictly greater than n.
func (p PatientProfile) AgeAbove(n int) bool {
	return p.AgeKnown() && p.Age > n
}

// AgeBelow reports whether the age is known and strictly less than n.
// An unknown age is not below any bound; "age < 65" style branches must not
// match profiles with no reported age.
func (p PatientProfile) AgeBelow(n int) bool {
	return p.AgeKnown() && p.Age < n
}

// EverSmoked reports whether the patient is a current or former smoker.
func (p PatientProfile) EverSmoked() bool {
	return p.SmokingStatus == CURRENT_SMOKER || p.SmokingStatus == FORMER_SMOKER
}

// IsCurrentSmoker reports whether the patient currently smokes.
func (p PatientProfile) IsCurrentSmoker() bool {
	return p.SmokingStatus == CURRENT_SMOKER
}

// IsFormerSmoker reports whether the patient smoked and quit.
func (p PatientProfile) IsFormerSmoker() bool {
	return p.SmokingStatus == FORMER_SMOKER
}

// HasCondition reports whether the given risk-factor tag was reported.
func (p PatientProfile) HasCondition(tag RiskFactor) bool {
	for _, c := range p.Conditions {
		if c == tag {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the profile, including the conditions slice.
func (p PatientProfile) Clone() PatientProfile {
	out := p
	if p.Conditions != nil {
		out.Conditions = append([]RiskFactor(nil), p.Conditions...)
	}
	return out
}

// Validate ensures the profile's enumerated fields hold vocabulary values.
// Numeric fields are not validated here: the derivation step normalizes
// negative or non-finite numbers, and an unknown age is a legal state.
func (p *PatientProfile) Validate() error {
	if !p.Sex.IsValid() {
		return fmt.Errorf("patient profile validation: %w", ErrInvalidSex)
	}

	if !p.SmokingStatus.IsValid() {
		return fmt.Errorf("patient profile validation: %w", ErrInvalidSmokingStatus)
	}

	return nil
}

// LogFields returns structured logging fields summarizing the profile for
// audit trails. Only categorical and count data is logged, never free text.
func (p *PatientProfile) LogFields() map[string]any {
	return map[string]any{
		"age":             p.Age,
		"age_known":       p.AgeKnown(),
		"sex":             string(p.Sex),
		"pregnant":        p.Pregnant,
		"smoking_status":  string(p.SmokingStatus),
		"condition_count": len(p.Conditions),
	}
}

// DerivedProfile is a PatientProfile enriched with the quantities the rule
// catalog compares against. It is derived once per evaluation and discarded
// afterwards; all PatientProfile fields pass through with invalid smoking
// numerics normalized to 0.
type DerivedProfile struct {
	PatientProfile

	// PackYears is (cigarettes per day / 20) * years smoked, unrounded.
	// 0 when either input is 0 or was not reported.
	PackYears float64 `json:"pack_years"`
}

// Recommendation is one matched screening guideline, annotated for display.
type Recommendation struct {
	Name     string `json:"name"`
	Test     string `json:"test"`
	Interval string `json:"interval,omitempty"`
	Grade    Grade  `json:"grade"`
	Notes    string `json:"notes"`
}

// Validate ensures the recommendation is complete enough to render.
func (r *Recommendation) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("recommendation validation: name is required")
	}

	if r.Test == "" {
		return fmt.Errorf("recommendation validation: test is required")
	}

	if !r.Grade.IsValid() {
		return fmt.Errorf("recommendation validation: %w", ErrInvalidGrade)
	}

	return nil
}

// LogFields returns structured logging fields for one recommendation.
func (r *Recommendation) LogFields() map[string]any {
	return map[string]any{
		"name":         r.Name,
		"grade":        string(r.Grade),
		"has_interval": r.Interval != "",
	}
}
