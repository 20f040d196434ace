package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/message-manager-discord/backend/internal/database"
	"github.com/message-manager-discord/backend/internal/permissions"
	"github.com/message-manager-discord/backend/internal/session"
)

// PermissionRenderer renders a target's current permission state as the text
// pushed into open management sessions.
type PermissionRenderer struct {
	store database.PermissionStore
}

// NewPermissionRenderer creates a PermissionRenderer.
func NewPermissionRenderer(store database.PermissionStore) *PermissionRenderer {
	return &PermissionRenderer{store: store}
}

var _ session.Renderer = (*PermissionRenderer)(nil)

func (r *PermissionRenderer) Render(ctx context.Context, target session.Target) (string, error) {
	if target.ChannelID != "" {
		return r.renderChannel(ctx, target)
	}
	return r.renderGuild(ctx, target)
}

func (r *PermissionRenderer) renderGuild(ctx context.Context, target session.Target) (string, error) {
	doc, err := r.store.GetGuildDoc(ctx, target.GuildID)
	if err != nil {
		return "", fmt.Errorf("rendering guild permissions: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Permissions for <@&%s> / <@%s>**\n", target.TargetID, target.TargetID)
	if doc == nil {
		b.WriteString("No permissions set; everything is inherited.")
		return b.String(), nil
	}

	found := false
	if mask, ok := doc.Roles[target.TargetID]; ok {
		found = true
		fmt.Fprintf(&b, "Role base: `%s`\n", permissions.Capability(mask))
	}
	if o, ok := doc.Users[target.TargetID]; ok {
		found = true
		fmt.Fprintf(&b, "Allowed: `%s`\nDenied: `%s`\n",
			permissions.Capability(o.Allow), permissions.Capability(o.Deny))
	}
	if !found {
		b.WriteString("No permissions set; everything is inherited.")
	}
	return b.String(), nil
}

func (r *PermissionRenderer) renderChannel(ctx context.Context, target session.Target) (string, error) {
	doc, err := r.store.GetChannelDoc(ctx, target.ChannelID)
	if err != nil {
		return "", fmt.Errorf("rendering channel permissions: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Permissions for <@&%s> / <@%s> in <#%s>**\n",
		target.TargetID, target.TargetID, target.ChannelID)
	if doc == nil {
		b.WriteString("No channel overrides; guild permissions apply.")
		return b.String(), nil
	}

	found := false
	if o, ok := doc.Roles[target.TargetID]; ok {
		found = true
		fmt.Fprintf(&b, "Role override allowed: `%s`, denied: `%s`\n",
			permissions.Capability(o.Allow), permissions.Capability(o.Deny))
	}
	if o, ok := doc.Users[target.TargetID]; ok {
		found = true
		fmt.Fprintf(&b, "User override allowed: `%s`, denied: `%s`\n",
			permissions.Capability(o.Allow), permissions.Capability(o.Deny))
	}
	if !found {
		b.WriteString("No channel overrides; guild permissions apply.")
	}
	return b.String(), nil
}

// RenderExpired is the terminal content pushed when a session times out.
func (r *PermissionRenderer) RenderExpired() string {
	return "This permission menu timed out. Run the command again to keep editing."
}
