package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/pollvote/internal/core/ports"
)

const defaultTTL = 7 * 24 * time.Hour

// VoterCache keeps one Redis set of voter ids per poll.
type VoterCache struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ ports.VoterCache = (*VoterCache)(nil)

func NewVoterCache(ctx context.Context, addr string, ttl time.Duration) (*VoterCache, error) {
	opts, err := goredis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("error parsing redis URL: %w", err)
	}

	c := goredis.NewClient(opts)

	if err := c.Ping(ctx).Err(); err != nil {
		c.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return NewVoterCacheFromClient(c, ttl), nil
}

func NewVoterCacheFromClient(c *goredis.Client, ttl time.Duration) *VoterCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &VoterCache{client: c, ttl: ttl}
}

func votersKey(pollID uuid.UUID) string {
	return fmt.Sprintf("poll:%s:voters", pollID)
}

func (vc *VoterCache) HasVoted(ctx context.Context, pollID uuid.UUID, voterID string) (bool, error) {
	ok, err := vc.client.SIsMember(ctx, votersKey(pollID), voterID).Result()
	if err != nil {
		return false, fmt.Errorf("error checking voter in redis: %w", err)
	}
	return ok, nil
}

func (vc *VoterCache) MarkVoted(ctx context.Context, pollID uuid.UUID, voterID string) error {
	key := votersKey(pollID)

	pipe := vc.client.Pipeline()
	pipe.SAdd(ctx, key, voterID)
	pipe.Expire(ctx, key, vc.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error executing redis pipeline: %w", err)
	}
	return nil
}

func (vc *VoterCache) Close() error {
	if err := vc.client.Close(); err != nil {
		return fmt.Errorf("error closing redis client: %w", err)
	}
	return nil
}
