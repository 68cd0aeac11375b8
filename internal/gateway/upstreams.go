package gateway

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/proxy"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/support-mesh/pkg/util"
)

// Upstream maps a path prefix to the base URL of the service behind it.
type Upstream struct {
	Prefix string
	Target string
}

// Router forwards requests to the upstream owning the longest matching prefix.
type Router struct {
	upstreams []Upstream
	timeout   time.Duration
	logger    *zap.Logger
}

// NewRouter validates table and builds a router. A zero timeout disables the
// per-request upstream deadline.
func NewRouter(table map[string]string, timeout time.Duration, logger *zap.Logger) (*Router, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	upstreams := make([]Upstream, 0, len(table))
	for prefix, target := range table {
		if !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("upstream prefix %q must start with /", prefix)
		}
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("upstream %q: invalid target %q", prefix, target)
		}
		upstreams = append(upstreams, Upstream{
			Prefix: strings.TrimRight(prefix, "/"),
			Target: strings.TrimRight(target, "/"),
		})
	}
	sort.Slice(upstreams, func(i, j int) bool {
		if len(upstreams[i].Prefix) != len(upstreams[j].Prefix) {
			return len(upstreams[i].Prefix) > len(upstreams[j].Prefix)
		}
		return upstreams[i].Prefix < upstreams[j].Prefix
	})
	return &Router{upstreams: upstreams, timeout: timeout, logger: logger}, nil
}

// Match returns the upstream for path. Prefixes match on segment boundaries,
// so /auth does not own /authz.
func (r *Router) Match(path string) (Upstream, bool) {
	for _, up := range r.upstreams {
		if up.Prefix == "" || path == up.Prefix || strings.HasPrefix(path, up.Prefix+"/") {
			return up, true
		}
	}
	return Upstream{}, false
}

// Upstreams returns the routing table, longest prefix first.
func (r *Router) Upstreams() []Upstream {
	return append([]Upstream(nil), r.upstreams...)
}

// Handle proxies the request, including the original path and query string.
func (r *Router) Handle(c *fiber.Ctx) error {
	up, ok := r.Match(c.Path())
	if !ok {
		return apperrors.NewNotFound("route", map[string]any{"path": c.Path()})
	}

	target := up.Target + c.OriginalURL()
	var err error
	if r.timeout > 0 {
		err = proxy.DoTimeout(c, target, r.timeout)
	} else {
		err = proxy.Do(c, target)
	}
	if err != nil {
		r.logger.Error("upstream request failed",
			zap.String("upstream", up.Target),
			zap.String("path", c.Path()),
			zap.Error(err))
		return fiber.NewError(fiber.StatusBadGateway, "upstream unavailable")
	}
	return nil
}
