package security

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// dummyHash is compared against when the account does not exist so a failed login costs the
// same whether or not the email is known.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("orgdir-timing-equalizer"), bcrypt.DefaultCost)

// VerifyLogin checks a password against hash, burning an equivalent comparison when hash is
// empty. It returns false for any mismatch.
func VerifyLogin(hash, plain string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
		return false
	}

	return CheckPassword(hash, plain) == nil
}
