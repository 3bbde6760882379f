package utils

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently
// truncate.
var ErrPasswordTooLong = errors.New("password longer than 72 bytes")

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
// Cost 15 takes seconds per hash on commodity hardware; every login and
// registration pays it, so lower it when throughput matters more.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's bounds.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Cost is the work factor new hashes are generated with.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns the bcrypt digest of plain with a fresh salt.
func (h *Hasher) Hash(plain string) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest.  A malformed digest is a
// mismatch, not an error.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// VerifyDummy spends the same time as a real Verify against a digest of
// the configured cost and always fails.  Used when the account does not
// exist so response timing does not reveal it.
func (h *Hasher) VerifyDummy(plain string) bool {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("shelter-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
	return false
}
