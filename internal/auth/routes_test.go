package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicRouteSet(t *testing.T) {
	set, err := NewPublicRouteSet("/auth/login", "/eureka/**", "/docs/*/index", " ", "/v1.0/status")
	require.NoError(t, err)

	tests := []struct {
		path   string
		public bool
	}{
		{"/auth/login", true},
		{"/auth/login/extra", false},
		{"/auth/logout", false},
		{"/eureka/apps", true},
		{"/eureka/apps/nested/deep", true},
		{"/eureka", false},
		{"/docs/api/index", true},
		{"/docs/api/v2/index", false},
		{"/v1.0/status", true},
		{"/v1x0/status", false},
		{"/support-tickets/all", false},
		{"/docs//index", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.public, set.IsPublic(tt.path))
		})
	}
}

func TestPublicRouteSet_RejectsBadPattern(t *testing.T) {
	_, err := NewPublicRouteSet("/docs/[unclosed")
	require.Error(t, err)
}

func TestPublicRouteSet_NilAndEmpty(t *testing.T) {
	var set *PublicRouteSet
	assert.False(t, set.IsPublic("/auth/login"))

	empty, err := NewPublicRouteSet()
	require.NoError(t, err)
	assert.False(t, empty.IsPublic("/"))
}
