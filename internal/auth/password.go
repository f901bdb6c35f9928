package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies administrator passwords with bcrypt.
type Hasher struct {
	cost int

	mu    sync.RWMutex
	dummy []byte
}

// NewHasher creates a Hasher with the given bcrypt work factor. It also
// prepares a throwaway hash used by DummyVerify.
func NewHasher(cost int) (*Hasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	dummy, err := newDummyHash(cost)
	if err != nil {
		return nil, err
	}
	return &Hasher{cost: cost, dummy: dummy}, nil
}

func newDummyHash(cost int) ([]byte, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(b)), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return dummy, nil
}

// Hash returns a salted bcrypt hash of plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a mismatch.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// DummyVerify spends the same time as a real Verify. Login calls it when the
// username is unknown so response latency does not reveal which usernames exist.
func (h *Hasher) DummyVerify(plaintext string) {
	h.mu.RLock()
	dummy := h.dummy
	h.mu.RUnlock()
	_ = bcrypt.CompareHashAndPassword(dummy, []byte(plaintext))
}

// DummyCost returns the work factor of the dummy hash.
func (h *Hasher) DummyCost() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cost, _ := bcrypt.Cost(h.dummy)
	return cost
}

// CalibrateDummy rebuilds the dummy hash at the work factor of the stored
// hashes, which may differ from the configured cost. With mixed costs the
// highest one is used and a warning is logged, since timing then only matches
// the admins at that cost. Malformed hashes are skipped.
func (h *Hasher) CalibrateDummy(hashes []string) error {
	counts := make(map[int]int)
	for _, hash := range hashes {
		cost, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			continue
		}
		counts[cost]++
	}
	if len(counts) == 0 {
		return nil
	}

	costs := make([]int, 0, len(counts))
	for cost := range counts {
		costs = append(costs, cost)
	}
	sort.Ints(costs)
	target := costs[len(costs)-1]
	if len(costs) > 1 {
		log.Warn().Ints("costs", costs).Int("dummy_cost", target).
			Msg("Admin password hashes use mixed bcrypt costs; rehash them at one cost to keep login timing uniform")
	}

	if target == h.DummyCost() {
		return nil
	}
	dummy, err := newDummyHash(target)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.dummy = dummy
	h.mu.Unlock()
	if target != h.cost {
		log.Info().Int("configured_cost", h.cost).Int("stored_cost", target).Msg("Dummy password hash matched to stored admin hashes")
	}
	return nil
}
