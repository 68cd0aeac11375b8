package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-mesh/internal/domain"
)

const (
	ticketKeyPrefix = "support:ticket:"
	// AllTicketsKey holds the cached staff listing.
	AllTicketsKey = "support:tickets:all"
	AllTicketsTTL = 3 * time.Hour
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	if encMode, err = encOptions.EncMode(); err != nil {
		panic("cache: cbor encoder: " + err.Error())
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("cache: cbor decoder: " + err.Error())
	}
}

// TTLFor returns how long a ticket in status stays cached. Open work is
// read often; finished tickets age out quickly.
func TTLFor(status domain.TicketStatus) time.Duration {
	switch status {
	case domain.TicketStatusPending, domain.TicketStatusInProgress:
		return 6 * time.Hour
	case domain.TicketStatusResolved, domain.TicketStatusClosed:
		return 30 * time.Minute
	default:
		return time.Hour
	}
}

// TicketCache stores ticket snapshots in Redis. Failures are logged and
// reported as misses; callers fall back to the repository.
type TicketCache struct {
	client redis.Cmdable
	logger *zap.Logger
}

// NewTicketCache wraps client. A nil client yields a cache that always misses.
func NewTicketCache(client redis.Cmdable, logger *zap.Logger) *TicketCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketCache{client: client, logger: logger}
}

// Get returns the cached ticket for id.
func (c *TicketCache) Get(ctx context.Context, id string) (*domain.SupportTicket, bool) {
	var ticket domain.SupportTicket
	if !c.load(ctx, ticketKeyPrefix+id, &ticket) {
		return nil, false
	}
	return &ticket, true
}

// Set caches ticket with its status TTL.
func (c *TicketCache) Set(ctx context.Context, ticket *domain.SupportTicket) {
	if ticket == nil || ticket.ID == "" {
		return
	}
	c.store(ctx, ticketKeyPrefix+ticket.ID, ticket, TTLFor(ticket.Status))
}

// Delete evicts the cached ticket for id.
func (c *TicketCache) Delete(ctx context.Context, id string) {
	c.del(ctx, ticketKeyPrefix+id)
}

// GetAll returns the cached full listing.
func (c *TicketCache) GetAll(ctx context.Context) ([]domain.SupportTicket, bool) {
	var tickets []domain.SupportTicket
	if !c.load(ctx, AllTicketsKey, &tickets) {
		return nil, false
	}
	return tickets, true
}

// SetAll caches the full listing.
func (c *TicketCache) SetAll(ctx context.Context, tickets []domain.SupportTicket) {
	if tickets == nil {
		tickets = []domain.SupportTicket{}
	}
	c.store(ctx, AllTicketsKey, tickets, AllTicketsTTL)
}

// InvalidateAll drops the cached full listing.
func (c *TicketCache) InvalidateAll(ctx context.Context) {
	c.del(ctx, AllTicketsKey)
}

func (c *TicketCache) load(ctx context.Context, key string, dst any) bool {
	if c == nil || c.client == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("ticket cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := decMode.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("ticket cache entry unreadable", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *TicketCache) store(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := encMode.Marshal(v)
	if err != nil {
		c.logger.Warn("ticket cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Warn("ticket cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *TicketCache) del(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("ticket cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
