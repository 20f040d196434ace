package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when a key is not present in the cache.
var ErrCacheMiss = errors.New("cache miss")

// Client wraps a Redis connection for permission-document caching.
type Client struct {
	rdb *goredis.Client
}

// NewClient creates a Redis client from a URL and verifies the connection.
func NewClient(redisURL string) (*Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Ping checks the Redis connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// rateLimitScript atomically increments a counter, sets its TTL on first use,
// and returns the count together with the remaining window in milliseconds.
var rateLimitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
    redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// CheckRateLimit implements a fixed-window counter. It returns whether the
// request is allowed, the current count, and the milliseconds remaining in the
// window.
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, int64, int64, error) {
	res, err := rateLimitScript.Run(ctx, c.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("checking rate limit: %w", err)
	}
	if len(res) != 2 {
		return false, 0, 0, fmt.Errorf("unexpected rate limit script result")
	}
	count, ttlMs := res[0], res[1]
	return count <= int64(limit), count, ttlMs, nil
}

const (
	guildDocPrefix   = "permdoc:guild:"
	channelDocPrefix = "permdoc:channel:"

	// Documents are invalidated on every write; the TTL only bounds staleness
	// when another process writes the same document.
	docTTL = 5 * time.Minute
)

// GetGuildDoc returns the cached JSON for a guild permission document.
func (c *Client) GetGuildDoc(ctx context.Context, guildID string) ([]byte, error) {
	raw, err := c.rdb.Get(ctx, guildDocPrefix+guildID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached guild doc: %w", err)
	}
	return raw, nil
}

// SetGuildDoc caches the JSON for a guild permission document.
func (c *Client) SetGuildDoc(ctx context.Context, guildID string, raw []byte) error {
	return c.rdb.Set(ctx, guildDocPrefix+guildID, raw, docTTL).Err()
}

// DeleteGuildDoc invalidates the cached guild permission document.
func (c *Client) DeleteGuildDoc(ctx context.Context, guildID string) error {
	return c.rdb.Del(ctx, guildDocPrefix+guildID).Err()
}

// GetChannelDoc returns the cached JSON for a channel permission document.
func (c *Client) GetChannelDoc(ctx context.Context, channelID string) ([]byte, error) {
	raw, err := c.rdb.Get(ctx, channelDocPrefix+channelID).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("getting cached channel doc: %w", err)
	}
	return raw, nil
}

// SetChannelDoc caches the JSON for a channel permission document.
func (c *Client) SetChannelDoc(ctx context.Context, channelID string, raw []byte) error {
	return c.rdb.Set(ctx, channelDocPrefix+channelID, raw, docTTL).Err()
}

// DeleteChannelDoc invalidates the cached channel permission document.
func (c *Client) DeleteChannelDoc(ctx context.Context, channelID string) error {
	return c.rdb.Del(ctx, channelDocPrefix+channelID).Err()
}
