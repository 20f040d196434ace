package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// DefaultTTL is how long a session stays open without any interaction. The
// platform's interaction tokens themselves expire shortly after this, so the
// cache cannot usefully keep sessions alive longer.
const DefaultTTL = 10 * time.Minute

type record struct {
	id        string // internal ID, for logs only
	token     string
	target    Target
	createdAt time.Time
	deadline  time.Time
	timer     *clock.Timer
}

// Cache is the in-process registry of open management sessions. All state is
// owned by the cache and mutated only under its lock; nothing survives a
// process restart.
type Cache struct {
	mu       sync.Mutex
	sessions map[Key]*record
	index    map[Target]map[Key]struct{}

	transport PushTransport
	renderer  Renderer
	clock     clock.Clock
	ttl       time.Duration
}

// NewCache creates a session cache. Pass clock.New() outside of tests.
func NewCache(transport PushTransport, renderer Renderer, clk clock.Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		sessions:  make(map[Key]*record),
		index:     make(map[Target]map[Key]struct{}),
		transport: transport,
		renderer:  renderer,
		clock:     clk,
		ttl:       ttl,
	}
}

// Register opens a session for a management UI message, or refreshes the
// inactivity timer of an existing one. Re-registering under a different
// target moves the session in the secondary index.
func (c *Cache) Register(messageID, guildID, targetID, channelID, sessionToken string) {
	key := Key{MessageID: messageID, GuildID: guildID}
	target := Target{TargetID: targetID, ChannelID: channelID, GuildID: guildID}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if rec, ok := c.sessions[key]; ok {
		rec.token = sessionToken
		rec.deadline = now.Add(c.ttl)
		rec.timer.Reset(c.ttl)
		if rec.target != target {
			c.unindex(rec.target, key)
			rec.target = target
			c.addIndex(target, key)
		}
		return
	}

	rec := &record{
		id:        uuid.NewString(),
		token:     sessionToken,
		target:    target,
		createdAt: now,
		deadline:  now.Add(c.ttl),
	}
	rec.timer = c.clock.AfterFunc(c.ttl, func() { c.expire(key) })
	c.sessions[key] = rec
	c.addIndex(target, key)
}

// TriggerUpdate re-renders the target's state and pushes it to every open
// session for the target except excludeMessageID (the session that caused the
// change, which renders its own response). Pushes run concurrently; sessions
// whose surface is gone are pruned, rate-limited pushes are dropped, and any
// other push error is returned joined. The triggering mutation has already
// committed, so these errors are reportable but never fatal to it.
func (c *Cache) TriggerUpdate(ctx context.Context, target Target, excludeMessageID string) error {
	c.mu.Lock()
	type push struct {
		key   Key
		token string
	}
	var pushes []push
	for key := range c.index[target] {
		if key.MessageID == excludeMessageID {
			continue
		}
		if rec, ok := c.sessions[key]; ok {
			pushes = append(pushes, push{key: key, token: rec.token})
		}
	}
	c.mu.Unlock()

	if len(pushes) == 0 {
		return nil
	}

	content, err := c.renderer.Render(ctx, target)
	if err != nil {
		return err
	}

	errs := make([]error, len(pushes))
	var wg sync.WaitGroup
	for i, p := range pushes {
		wg.Add(1)
		go func(i int, p push) {
			defer wg.Done()
			err := c.transport.EditOriginalResponse(ctx, p.token, content)
			switch {
			case err == nil:
			case errors.Is(err, ErrPushNotFound):
				c.remove(p.key)
			case errors.Is(err, ErrPushRateLimited):
				// Dropped; the session catches the next update or expires.
			default:
				errs[i] = err
			}
		}(i, p)
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Len returns the number of open sessions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Close stops every session timer without pushing anything. Used on shutdown.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, rec := range c.sessions {
		rec.timer.Stop()
		c.unindex(rec.target, key)
		delete(c.sessions, key)
	}
}

// expire fires when a session's inactivity timer elapses. A Register racing
// with the timer may have pushed the deadline forward; in that case the timer
// is re-armed instead of expiring the session.
func (c *Cache) expire(key Key) {
	c.mu.Lock()
	rec, ok := c.sessions[key]
	if !ok {
		c.mu.Unlock()
		return
	}
	if remaining := rec.deadline.Sub(c.clock.Now()); remaining > 0 {
		rec.timer.Reset(remaining)
		c.mu.Unlock()
		return
	}
	c.unindex(rec.target, key)
	delete(c.sessions, key)
	c.mu.Unlock()

	// Best-effort terminal edit so the UI doesn't look live after its
	// controls stop working.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := c.transport.EditOriginalResponse(ctx, rec.token, c.renderer.RenderExpired())
	switch {
	case err == nil:
	case errors.Is(err, ErrPushNotFound), errors.Is(err, ErrPushRateLimited):
	default:
		slog.Error("session expiry edit failed",
			"session", rec.id, "messageID", key.MessageID, "guildID", key.GuildID, "error", err)
	}
}

// remove deletes a session whose surface is gone. Stale-detection close: no
// terminal edit is pushed.
func (c *Cache) remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.sessions[key]
	if !ok {
		return
	}
	rec.timer.Stop()
	c.unindex(rec.target, key)
	delete(c.sessions, key)
}

func (c *Cache) addIndex(target Target, key Key) {
	if c.index[target] == nil {
		c.index[target] = make(map[Key]struct{})
	}
	c.index[target][key] = struct{}{}
}

func (c *Cache) unindex(target Target, key Key) {
	if keys, ok := c.index[target]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.index, target)
		}
	}
}
