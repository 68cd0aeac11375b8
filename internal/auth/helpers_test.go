package auth

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-mesh/internal/domain"
)

var testKey = []byte(strings.Repeat("s", 32))

const testUserID = "7f8d2f4e-9a43-4c3b-8d7e-0a1b2c3d4e5f"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCodec(t *testing.T, clock *fakeClock, ttl time.Duration) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testKey, ttl, clock.Now)
	require.NoError(t, err)
	return codec
}

func issueTestToken(t *testing.T, codec *TokenCodec, roles ...domain.Role) string {
	t.Helper()
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleUser}
	}
	token, _, err := codec.Issue(TokenClaims{Subject: "ada@example.com", UserID: testUserID, Roles: roles})
	require.NoError(t, err)
	return token
}
