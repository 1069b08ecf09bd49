package auth

import (
	"fmt"
	"sync"

	"github.com/dmitrijs2005/workly/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(cost int) *PasswordHasher {
	return &PasswordHasher{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, MaxPasswordBytes)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether plaintext matches hash. The comparison is constant
// time; a malformed hash never matches.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

// VerifyDummy spends the same work as Verify against a throwaway hash.
// Login calls it for unknown emails so the response time does not reveal
// whether an account exists.
func (h *PasswordHasher) VerifyDummy(plaintext string) {
	h.dummyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			secret = "workly-dummy-password"
		}
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plaintext))
}
