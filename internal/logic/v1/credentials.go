package v1

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier compares a plaintext password against a stored hash.
type CredentialVerifier interface {
	Verify(plain, hash string) bool
}

// BcryptVerifier verifies and produces bcrypt hashes.
type BcryptVerifier struct {
	Cost int
}

// NewBcryptVerifier returns a verifier hashing at bcrypt.DefaultCost.
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{Cost: bcrypt.DefaultCost}
}

// Verify reports whether plain matches hash. Malformed hashes never match.
func (v *BcryptVerifier) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Hash returns the bcrypt hash of plain.
func (v *BcryptVerifier) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("password is empty")
	}
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
