// Package session tracks open, time-limited permission management UIs and
// pushes re-rendered state to every open session for a target whenever that
// target's permissions change.
package session

import (
	"context"
	"errors"
)

var (
	// ErrPushNotFound means the external surface for a session no longer
	// exists; the session is treated as gone and pruned.
	ErrPushNotFound = errors.New("push target not found")

	// ErrPushRateLimited means the transport refused this single update; the
	// session stays registered and catches the next one.
	ErrPushRateLimited = errors.New("push rate limited")
)

// Key identifies one open management UI surface.
type Key struct {
	MessageID string
	GuildID   string
}

// Target identifies the permission entity a session displays. ChannelID is
// empty for guild-scope targets.
type Target struct {
	TargetID  string
	ChannelID string
	GuildID   string
}

// PushTransport edits the external surface backing a session. Errors must be
// (or wrap) ErrPushNotFound / ErrPushRateLimited where those conditions apply.
type PushTransport interface {
	EditOriginalResponse(ctx context.Context, sessionToken, content string) error
}

// Renderer produces the content pushed to open sessions. It is owned by the
// UI layer; the cache only calls it.
type Renderer interface {
	// Render returns the current representation of a target's permission
	// state.
	Render(ctx context.Context, target Target) (string, error)

	// RenderExpired returns the terminal content pushed when a session times
	// out.
	RenderExpired() string
}
