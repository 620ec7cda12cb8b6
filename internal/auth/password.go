package auth

import "github.com/alexedwards/argon2id"

// HashPassword derives a salted argon2id hash in the standard
// encoded form, ready to be stored as-is.
func HashPassword(plaintext string) (string, error) {
	return argon2id.CreateHash(plaintext, argon2id.DefaultParams)
}

// VerifyPassword reports whether plaintext matches the stored hash.
// Anything that does not parse as an argon2id hash, legacy plaintext
// rows included, verifies as false rather than erroring out.
func VerifyPassword(plaintext, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(plaintext, hash)
	if err != nil {
		return false
	}
	return match
}
