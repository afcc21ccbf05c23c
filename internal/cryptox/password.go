// Package cryptox wraps the password-credential primitives: one-way hashing
// of user passwords and constant-time verification of presented secrets.
// Callers never see bcrypt details; the digest is an opaque string.
package cryptox

import "golang.org/x/crypto/bcrypt"

// HashPassword derives a one-way digest of password suitable for storage.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether candidate matches the stored digest.
// Always false for a malformed digest; no error detail leaks to callers.
func CheckPassword(digest, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(candidate)) == nil
}
