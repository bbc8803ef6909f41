// Package identity provides the credential and token primitives: bcrypt
// digests for passwords and single-use tokens, and the expiry rule for
// password reset tokens. Only digests ever reach the database; the
// plaintext tokens are handed to the client once and then discarded.
package identity

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ResetTokenValidity is how long a password reset token stays usable.
const ResetTokenValidity = 2 * time.Hour

// tokenBytes yields 256 bits of entropy per token.
const tokenBytes = 32

var (
	costOnce sync.Once
	cost     int
)

// hashCost resolves the bcrypt cost once. Tests run with the minimum
// cost so that suites stay fast; the digests remain verifiable by the
// same compare primitive regardless of the cost they were created with.
func hashCost() int {
	costOnce.Do(func() {
		if os.Getenv("ENVIRONMENT") == "test" {
			cost = bcrypt.MinCost
		} else {
			cost = bcrypt.DefaultCost
		}
	})
	return cost
}

// Hash returns the bcrypt digest of the given secret.
func Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), hashCost())
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// NewToken returns a fresh URL-safe random token.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Compare reports whether candidate matches the stored digest. A
// missing digest never matches and never errors, so callers can treat
// "no token issued" and "wrong token" uniformly as a denial.
func Compare(digest, candidate string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
}

// ResetExpired reports whether a reset token issued at sentAt is no
// longer usable at the given time.
func ResetExpired(sentAt, now time.Time) bool {
	return now.After(sentAt.Add(ResetTokenValidity))
}
