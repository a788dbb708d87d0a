package crowd

import "math/rand/v2"

const (
	// GeneratedPasswordLength is the length of passwords created by CreateUser.
	GeneratedPasswordLength = 8

	passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GeneratePassword returns a temporary password of uppercase letters and digits.
// The source is not cryptographically secure; the account is expected to be
// flagged for a password change at next login.
func GeneratePassword() string {
	buf := make([]byte, GeneratedPasswordLength)
	for i := range buf {
		buf[i] = passwordAlphabet[rand.IntN(len(passwordAlphabet))] //nolint:gosec // temporary password
	}
	return string(buf)
}
