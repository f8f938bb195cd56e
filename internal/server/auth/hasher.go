// Package auth holds the cryptographic primitives behind administrator login:
// bcrypt password hashing and HS256 token issuance/verification.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor used when none is configured.
const DefaultBcryptCost = 12

// maxPasswordBytes is bcrypt's input limit.
const maxPasswordBytes = 72

// ErrInvalidInput is returned for input the hasher cannot process. It marks
// a caller contract violation, not a failed login.
var ErrInvalidInput = errors.New("invalid hasher input")

// PasswordHasher is a salted one-way password transform.
type PasswordHasher interface {
	// Hash returns a self-describing hash with the salt embedded.
	Hash(plaintext string) (string, error)

	// Verify reports whether plaintext matches hashed. Malformed hashes
	// simply do not match.
	Verify(plaintext, hashed string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher with the given work factor.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]", ErrInvalidInput, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost returns the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: empty password", ErrInvalidInput)
	}
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

// Verify never accepts a plaintext longer than bcrypt's input limit, since
// bcrypt ignores everything past it. The comparison still runs on the prefix
// so rejection takes the same time.
func (h *BcryptHasher) Verify(plaintext, hashed string) bool {
	p := []byte(plaintext)
	tooLong := len(p) > maxPasswordBytes
	if tooLong {
		p = p[:maxPasswordBytes]
	}
	ok := bcrypt.CompareHashAndPassword([]byte(hashed), p) == nil
	return ok && !tooLong
}
