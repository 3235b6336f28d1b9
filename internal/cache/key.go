// Package cache provides the evaluation result cache: a deterministic
// engine makes results reusable across identical profiles, keyed by a hash
// of the profile's canonical form. The memory tier serves hot lookups, the
// optional Redis tier shares results across instances.
package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/prushi369-byte/uspstf-screening/internal/domain"
)

// canonicalProfile is the stable key shape for a profile. Conditions are
// sorted and deduplicated so tag order at the boundary does not split cache
// entries.
type canonicalProfile struct {
	Age              int      `json:"age"`
	Sex              string   `json:"sex"`
	Pregnant         bool     `json:"pregnant"`
	SmokingStatus    string   `json:"smoking_status"`
	CigarettesPerDay float64  `json:"cigarettes_per_day"`
	YearsSmoked      float64  `json:"years_smoked"`
	YearsSinceQuit   float64  `json:"years_since_quit"`
	Conditions       []string `json:"conditions"`
}

// ProfileKey creates the cache key for a profile: a sha256 hash over its
// canonical JSON form. Callers should pass profiles with already-normalized
// numerics so equivalent inputs share a key.
func ProfileKey(profile domain.PatientProfile) string {
	conditions := make([]string, 0, len(profile.Conditions))
	seen := make(map[string]bool, len(profile.Conditions))
	for _, tag := range profile.Conditions {
		if !seen[string(tag)] {
			seen[string(tag)] = true
			conditions = append(conditions, string(tag))
		}
	}
	sort.Strings(conditions)

	canonical := canonicalProfile{
		Age:              profile.Age,
		Sex:              string(profile.Sex),
		Pregnant:         profile.Pregnant,
		SmokingStatus:    string(profile.SmokingStatus),
		CigarettesPerDay: profile.CigarettesPerDay,
		YearsSmoked:      profile.YearsSmoked,
		YearsSinceQuit:   profile.YearsSinceQuit,
		Conditions:       conditions,
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		// Non-finite numerics cannot marshal; the formatted struct is
		// still a deterministic key source.
		data = []byte(fmt.Sprintf("%+v", canonical))
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("screening:result:%x", hash[:16])
}
