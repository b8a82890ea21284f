package matching

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/huddle-api/internal/domain"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// idN returns a deterministic member id whose order follows n.
func idN(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

// newMember returns an eligible, complete member.
func newMember(n int, gender domain.Gender) domain.Member {
	return domain.Member{
		ID:                  idN(n),
		Specialty:           "cardiology",
		Interests:           []string{"hiking", "jazz", "chess"},
		City:                "Lisbon",
		Gender:              gender,
		AvailabilitySlots:   []string{"sat-am", "sun-pm"},
		Verified:            true,
		Paid:                true,
		OnboardingComplete:  true,
		SpecialtyPreference: domain.NoSpecialtyPreference,
	}
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

// alternating returns n members with genders alternating male/female.
func alternating(n int) []domain.Member {
	out := make([]domain.Member, n)
	for i := 0; i < n; i++ {
		g := domain.GenderMale
		if i%2 == 1 {
			g = domain.GenderFemale
		}
		out[i] = newMember(i+1, g)
	}
	return out
}
