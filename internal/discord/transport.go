package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/message-manager-discord/backend/internal/session"
)

// Transport pushes session updates by editing the original interaction
// response behind a session's interaction token.
type Transport struct {
	session *discordgo.Session
	appID   string
}

// NewTransport creates a Transport for the given application ID.
func NewTransport(s *discordgo.Session, appID string) *Transport {
	return &Transport{session: s, appID: appID}
}

var _ session.PushTransport = (*Transport)(nil)

// EditOriginalResponse rewrites the message behind an interaction token.
// Discord answers 404 once the token is invalidated or the message deleted,
// and 429 when the webhook bucket is exhausted; both are mapped onto the
// session package's sentinels.
func (t *Transport) EditOriginalResponse(ctx context.Context, sessionToken, content string) error {
	_, err := t.session.WebhookMessageEdit(t.appID, sessionToken, "@original",
		&discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx))
	if err == nil {
		return nil
	}

	var rateErr *discordgo.RateLimitError
	if errors.As(err, &rateErr) {
		return fmt.Errorf("%w: %v", session.ErrPushRateLimited, err)
	}
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil {
		switch restErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", session.ErrPushNotFound, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", session.ErrPushRateLimited, err)
		}
	}
	return fmt.Errorf("editing interaction response: %w", err)
}
