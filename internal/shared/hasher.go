package shared

import "golang.org/x/crypto/bcrypt"

// CredentialHasher abstracts password hashing so services can be tested
// with a fast deterministic implementation.
type CredentialHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// BcryptHasher hashes credentials with bcrypt.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher constructs a BcryptHasher with the default cost.
func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: bcrypt.DefaultCost}
}

// Hash derives a bcrypt hash from the plaintext credential.
func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plain matches hash. bcrypt's comparison is
// constant time over the derived key.
func (h BcryptHasher) Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
