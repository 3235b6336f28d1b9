package service

import (
	"math"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// Derive computes the derived screening metrics for one evaluation. It never
// fails: negative or non-finite smoking numerics are normalized to 0 before
// any rule can compare against them, and every other profile field passes
// through unchanged. Pure function, no side effects.
func Derive(profile domain.PatientProfile) domain.DerivedProfile {
	derived := domain.DerivedProfile{PatientProfile: profile}

	derived.CigarettesPerDay = nonNegative(profile.CigarettesPerDay)
	derived.YearsSmoked = nonNegative(profile.YearsSmoked)
	derived.YearsSinceQuit = nonNegative(profile.YearsSinceQuit)

	// One pack is 20 cigarettes. The raw quotient feeds threshold
	// comparisons downstream, so no rounding.
	derived.PackYears = (derived.CigarettesPerDay / 20) * derived.YearsSmoked

	return derived
}

// nonNegative normalizes invalid numeric input to 0. Negative, NaN, and
// infinite values all read as "not reported".
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
