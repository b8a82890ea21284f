package domain

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Gender is the self-reported gender used for group balancing.
type Gender string

// Supported genders.
const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// SpecialtyPreference states whom a member wants to be grouped with.
type SpecialtyPreference string

// Supported specialty preferences.
const (
	PreferSameSpecialty      SpecialtyPreference = "same"
	PreferDifferentSpecialty SpecialtyPreference = "different"
	NoSpecialtyPreference    SpecialtyPreference = "no_preference"
)

// noPreferenceHyphenated is the spelling some profile sources use for
// NoSpecialtyPreference.
const noPreferenceHyphenated SpecialtyPreference = "no-preference"

// Member is a point-in-time snapshot of a profile as seen by the matching
// engine. The profile subsystem owns it; the engine only ever writes
// LastMatchedAt, and only inside a batch commit.
type Member struct {
	ID                  uuid.UUID           `json:"id"`
	Specialty           string              `json:"specialty"`
	Interests           []string            `json:"interests"`
	City                string              `json:"city"`
	Gender              Gender              `json:"gender"`
	AvailabilitySlots   []string            `json:"availability_slots"`
	Verified            bool                `json:"verified"`
	Paid                bool                `json:"paid"`
	OnboardingComplete  bool                `json:"onboarding_complete"`
	LastMatchedAt       *time.Time          `json:"last_matched_at,omitempty"`
	SpecialtyPreference SpecialtyPreference `json:"specialty_preference"`
}

// Preference returns the member's specialty preference in canonical form.
// An unset value means no preference.
func (m *Member) Preference() SpecialtyPreference {
	return m.SpecialtyPreference.Normalize()
}

// MissingAttribute returns the name of the first attribute that prevents the
// member from being matched, or "" when the profile is complete.
func (m *Member) MissingAttribute() string {
	switch {
	case m.ID == uuid.Nil:
		return "id"
	case m.Specialty == "":
		return "specialty"
	case m.City == "":
		return "city"
	case !m.Gender.IsValid():
		return "gender"
	case !m.Preference().IsValid():
		return "specialty_preference"
	default:
		return ""
	}
}

// AcceptsSpecialty reports whether m's preference allows a group mate with
// the given specialty.
func (m *Member) AcceptsSpecialty(specialty string) bool {
	switch m.Preference() {
	case PreferSameSpecialty:
		return m.Specialty == specialty
	case PreferDifferentSpecialty:
		return m.Specialty != specialty
	default:
		return true
	}
}

// CanGroupWith reports whether both members' specialty preferences allow
// them to share a group.
func (m *Member) CanGroupWith(other *Member) bool {
	return m.AcceptsSpecialty(other.Specialty) && other.AcceptsSpecialty(m.Specialty)
}

// IsValid reports whether g is a supported gender.
func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

// Normalize maps the empty value and "no-preference" to
// NoSpecialtyPreference and returns every other value unchanged.
func (p SpecialtyPreference) Normalize() SpecialtyPreference {
	switch p {
	case "", noPreferenceHyphenated:
		return NoSpecialtyPreference
	default:
		return p
	}
}

// IsValid reports whether p is a supported specialty preference.
func (p SpecialtyPreference) IsValid() bool {
	switch p {
	case PreferSameSpecialty, PreferDifferentSpecialty, NoSpecialtyPreference:
		return true
	default:
		return false
	}
}

// LessID orders member ids by their byte representation, which matches the
// lexical order of their canonical string form.
func LessID(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
