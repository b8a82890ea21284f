package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// AdminKeyVerifier checks the key presented on admin endpoints.
type AdminKeyVerifier interface {
	// Verify returns nil when key matches, ErrInvalidAdminKey when it does
	// not, and ErrAdminDisabled when no key is configured.
	Verify(key string) error
}

// BcryptAdminKeyVerifier implements AdminKeyVerifier using bcrypt.
type BcryptAdminKeyVerifier struct {
	hash []byte
}

var _ AdminKeyVerifier = (*BcryptAdminKeyVerifier)(nil)

// NewBcryptAdminKeyVerifier creates a verifier for hash. An empty hash
// disables admin access. A malformed hash is rejected.
func NewBcryptAdminKeyVerifier(hash string) (*BcryptAdminKeyVerifier, error) {
	if hash != "" {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid admin key hash: %w", err)
		}
	}
	return &BcryptAdminKeyVerifier{hash: []byte(hash)}, nil
}

// Verify implements AdminKeyVerifier.
func (v *BcryptAdminKeyVerifier) Verify(key string) error {
	if len(v.hash) == 0 {
		return ErrAdminDisabled
	}
	if key == "" {
		return ErrInvalidAdminKey
	}

	err := bcrypt.CompareHashAndPassword(v.hash, []byte(key))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidAdminKey
	}
	return err
}
