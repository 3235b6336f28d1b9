// Package intake parses raw form-style field text into typed patient
// profiles. It owns the boundary rules the engine relies on: enum
// vocabularies are enforced, missing or malformed numerics default to safe
// values, and unknown risk-factor tags are dropped rather than rejected.
package intake

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// Field names accepted by Parse. Unknown fields are ignored.
const (
	FieldAge              = "age"
	FieldSex              = "sex"
	FieldPregnant         = "pregnant"
	FieldSmokingStatus    = "smoking_status"
	FieldCigarettesPerDay = "cigarettes_per_day"
	FieldYearsSmoked      = "years_smoked"
	FieldYearsSinceQuit   = "years_since_quit"
	FieldConditions       = "conditions"
)

var (
	sexValues = map[string]domain.Sex{
		"male":   domain.MALE,
		"female": domain.FEMALE,
	}

	smokingValues = map[string]domain.SmokingStatus{
		"never":   domain.NEVER_SMOKER,
		"current": domain.CURRENT_SMOKER,
		"former":  domain.FORMER_SMOKER,
	}

	boolValues = map[string]bool{
		"yes":   true,
		"no":    false,
		"true":  true,
		"false": false,
		"1":     true,
		"0":     false,
		"on":    true,
		"off":   false,
	}
)

// Parser implements the domain.ProfileParser interface over raw string
// fields.
type Parser struct{}

// NewParser creates a new intake parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse builds a typed profile from raw field text. Sex is the only
// required field; an empty smoking status defaults to never, a missing or
// malformed age becomes the unknown-age marker, and malformed numerics
// become 0.
func (p *Parser) Parse(fields map[string]string) (domain.PatientProfile, error) {
	sex, err := parseSex(fields[FieldSex])
	if err != nil {
		return domain.PatientProfile{}, err
	}

	status, err := parseSmokingStatus(fields[FieldSmokingStatus])
	if err != nil {
		return domain.PatientProfile{}, err
	}

	return domain.PatientProfile{
		Age:              parseAge(fields[FieldAge]),
		Sex:              sex,
		Pregnant:         parseBool(fields[FieldPregnant]),
		SmokingStatus:    status,
		CigarettesPerDay: parseNonNegative(fields[FieldCigarettesPerDay]),
		YearsSmoked:      parseNonNegative(fields[FieldYearsSmoked]),
		YearsSinceQuit:   parseNonNegative(fields[FieldYearsSinceQuit]),
		Conditions:       parseConditions(fields[FieldConditions]),
	}, nil
}

func parseSex(raw string) (domain.Sex, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return "", fmt.Errorf("parsing profile: %w",
			domain.NewValidationError(FieldSex, "value is required", raw))
	}

	sex, ok := sexValues[value]
	if !ok {
		return "", fmt.Errorf("parsing profile: %w",
			domain.NewValidationError(FieldSex, "must be 'male' or 'female'", raw))
	}

	return sex, nil
}

func parseSmokingStatus(raw string) (domain.SmokingStatus, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return domain.NEVER_SMOKER, nil
	}

	status, ok := smokingValues[value]
	if !ok {
		return "", fmt.Errorf("parsing profile: %w",
			domain.NewValidationError(FieldSmokingStatus, "must be 'never', 'current' or 'former'", raw))
	}

	return status, nil
}

// parseAge maps absent, non-numeric, and negative text to the unknown-age
// marker. Fractional ages truncate toward zero.
func parseAge(raw string) int {
	value := strings.TrimSpace(raw)
	if value == "" {
		return domain.AgeUnknown
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return domain.AgeUnknown
	}

	return int(f)
}

func parseBool(raw string) bool {
	return boolValues[strings.ToLower(strings.TrimSpace(raw))]
}

// parseNonNegative maps absent, non-numeric, non-finite, and negative text
// to 0.
func parseNonNegative(raw string) float64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}

	return f
}

// parseConditions splits comma or whitespace separated tags, drops
// unrecognized ones, and deduplicates while preserving first-seen order.
func parseConditions(raw string) []domain.RiskFactor {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return nil
	}

	seen := make(map[domain.RiskFactor]bool, len(parts))
	conditions := make([]domain.RiskFactor, 0, len(parts))
	for _, part := range parts {
		tag := domain.RiskFactor(strings.ToLower(part))
		if !tag.IsValid() || seen[tag] {
			continue
		}
		seen[tag] = true
		conditions = append(conditions, tag)
	}

	if len(conditions) == 0 {
		return nil
	}

	return conditions
}
