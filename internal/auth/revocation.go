package auth

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// RevocationRegistry records tokens invalidated before their natural expiry.
type RevocationRegistry interface {
	// Revoke marks token as revoked. expiresAt bounds how long the entry must be kept.
	// Revoking the same token twice is a no-op.
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RevocationEntry is what the memory registry keeps per revoked token.
type RevocationEntry struct {
	RevokedAt time.Time
	ExpiresAt time.Time
}

// MemoryRevocationRegistry is a process-local registry.
// Revocations are not visible to other instances and do not survive restarts.
type MemoryRevocationRegistry struct {
	entries *xsync.MapOf[string, RevocationEntry]
	now     Clock
}

// NewMemoryRevocationRegistry creates an empty registry. A nil clock uses time.Now.
func NewMemoryRevocationRegistry(now Clock) *MemoryRevocationRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocationRegistry{
		entries: xsync.NewMapOf[string, RevocationEntry](),
		now:     now,
	}
}

// Revoke adds token to the set. The first revocation wins.
func (r *MemoryRevocationRegistry) Revoke(_ context.Context, token string, expiresAt time.Time) error {
	r.entries.LoadOrStore(token, RevocationEntry{RevokedAt: r.now(), ExpiresAt: expiresAt})
	return nil
}

// IsRevoked reports set membership.
func (r *MemoryRevocationRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	_, ok := r.entries.Load(token)
	return ok, nil
}

// Entry returns the stored entry for token.
func (r *MemoryRevocationRegistry) Entry(token string) (RevocationEntry, bool) {
	return r.entries.Load(token)
}

// Sweep forgets entries whose token has already expired naturally and
// returns how many were removed. Entries with a zero expiry are kept.
func (r *MemoryRevocationRegistry) Sweep(now time.Time) int {
	removed := 0
	r.entries.Range(func(token string, entry RevocationEntry) bool {
		if !entry.ExpiresAt.IsZero() && !now.Before(entry.ExpiresAt) {
			r.entries.Delete(token)
			removed++
		}
		return true
	})
	return removed
}

// Len returns the number of tracked tokens.
func (r *MemoryRevocationRegistry) Len() int {
	return r.entries.Size()
}
