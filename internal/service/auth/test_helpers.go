package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestSecret is an HMAC secret long enough for NewTokenValidator.
const TestSecret = "test-jwt-secret-that-is-32-chars-long"

// SignTestToken creates an HS256 token of tokenType for memberID, issued at
// issuedAt and valid for ttl, the way the identity service signs them.
func SignTestToken(
	t testing.TB,
	secret string,
	memberID uuid.UUID,
	tokenType string,
	issuedAt time.Time,
	ttl time.Duration,
) string {
	t.Helper()

	claims := TokenClaims{
		MemberID:  memberID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

// AuthHeaderForTesting returns a Bearer header carrying a fresh access token
// for memberID signed with TestSecret.
func AuthHeaderForTesting(t testing.TB, memberID uuid.UUID) string {
	t.Helper()
	return "Bearer " + SignTestToken(t, TestSecret, memberID, AccessTokenType, time.Now(), time.Hour)
}
