package auth

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// PublicRouteSet holds the path patterns exempt from authentication.
// "**" matches across segments, "*" matches within one path segment.
// Patterns match the whole path.
type PublicRouteSet struct {
	patterns []glob.Glob
}

// NewPublicRouteSet compiles patterns once at startup.
func NewPublicRouteSet(patterns ...string) (*PublicRouteSet, error) {
	set := &PublicRouteSet{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("public route %q: %w", p, err)
		}
		set.patterns = append(set.patterns, g)
	}
	return set, nil
}

// IsPublic reports whether path matches any pattern.
func (s *PublicRouteSet) IsPublic(path string) bool {
	if s == nil {
		return false
	}
	for _, g := range s.patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}
