package domain

import "github.com/google/uuid"

// ScoreBreakdown holds the normalized [0,1] value of each weighted component.
type ScoreBreakdown struct {
	Specialty    float64 `json:"specialty"`
	Interests    float64 `json:"interests"`
	City         float64 `json:"city"`
	Availability float64 `json:"availability"`
}

// CompatibilityScore is the symmetric fit between two members. MemberA is
// always the lower id so that score(a,b) and score(b,a) are equal values.
type CompatibilityScore struct {
	MemberA   uuid.UUID      `json:"member_a"`
	MemberB   uuid.UUID      `json:"member_b"`
	Value     float64        `json:"value"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}
