package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-mesh/internal/auth"
)

func TestStartRevocationSweeper_RemovesExpired(t *testing.T) {
	reg := auth.NewMemoryRevocationRegistry(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, reg.Revoke(ctx, "gone", time.Now().Add(-time.Second)))
	require.NoError(t, reg.Revoke(ctx, "kept", time.Now().Add(time.Hour)))

	done := StartRevocationSweeper(ctx, reg, 10*time.Millisecond, nil)
	assert.Eventually(t, func() bool { return reg.Len() == 1 }, time.Second, 5*time.Millisecond)

	revoked, err := reg.IsRevoked(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, revoked)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestStartRevocationSweeper_Disabled(t *testing.T) {
	done := StartRevocationSweeper(context.Background(), nil, time.Second, nil)
	_, open := <-done
	assert.False(t, open)
}
