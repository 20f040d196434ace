package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/message-manager-discord/backend/internal/auth"
	"github.com/message-manager-discord/backend/internal/permissions"
	"github.com/message-manager-discord/backend/internal/service"
)

// PermissionHandler exposes the permission manager over the dashboard API.
// All logic lives in the service layer; handlers only translate HTTP.
type PermissionHandler struct {
	manager *service.Manager
	checker *service.PermissionChecker
}

// NewPermissionHandler creates a PermissionHandler.
func NewPermissionHandler(manager *service.Manager, checker *service.PermissionChecker) *PermissionHandler {
	return &PermissionHandler{manager: manager, checker: checker}
}

// mutationRequest is the body for all mutation routes. Permissions are
// capability names; unknown names are rejected.
type mutationRequest struct {
	Permissions []string `json:"permissions"`
}

func (r *mutationRequest) mask() (permissions.Capability, bool) {
	var mask permissions.Capability
	for _, name := range r.Permissions {
		bit := permissions.Parse(name)
		if bit == 0 {
			return 0, false
		}
		mask = mask.Add(bit)
	}
	return mask, true
}

// overrideResponse is the resulting allow/deny pair after a mutation.
type overrideResponse struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

func newOverrideResponse(allow, deny uint64) overrideResponse {
	resp := overrideResponse{
		Allow: permissions.Capability(allow).Names(),
		Deny:  permissions.Capability(deny).Names(),
	}
	if resp.Allow == nil {
		resp.Allow = []string{}
	}
	if resp.Deny == nil {
		resp.Deny = []string{}
	}
	return resp
}

// GetResolved handles GET /guilds/:id/permissions/resolved. It returns the
// authenticated user's effective capabilities, optionally narrowed with
// ?channel_id=.
func (h *PermissionHandler) GetResolved(c echo.Context) error {
	userID := auth.GetUserID(c)
	guildID := c.Param("id")
	channelID := c.QueryParam("channel_id")

	resolved, err := h.checker.ResolveFor(c.Request().Context(), guildID, channelID, userID)
	if err != nil {
		return serviceError(c, err)
	}

	names := resolved.Names()
	if names == nil {
		names = []string{}
	}
	return successJSON(c, http.StatusOK, map[string]any{"permissions": names})
}

// SetRolePermissions handles PUT /guilds/:id/permissions/roles/:roleID,
// replacing the role's base capability mask at guild scope.
func (h *PermissionHandler) SetRolePermissions(c echo.Context) error {
	var req mutationRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	mask, ok := req.mask()
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PERMISSION", "unknown permission name")
	}

	result, err := h.manager.GuildRoleSet(c.Request().Context(),
		c.Param("id"), auth.GetUserID(c), c.Param("roleID"), mask, "")
	if err != nil {
		return serviceError(c, err)
	}

	names := result.Names()
	if names == nil {
		names = []string{}
	}
	return successJSON(c, http.StatusOK, map[string]any{"permissions": names})
}

// guildUserOp dispatches an allow/deny/reset action against a guild user
// entry. The action comes from the route parameter.
func (h *PermissionHandler) guildUserOp(c echo.Context, action string) error {
	var req mutationRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	bits, ok := req.mask()
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PERMISSION", "unknown permission name")
	}

	ctx := c.Request().Context()
	guildID, actorID, userID := c.Param("id"), auth.GetUserID(c), c.Param("userID")

	var mutate func() (uint64, uint64, error)
	switch action {
	case "allow":
		mutate = func() (uint64, uint64, error) {
			o, err := h.manager.GuildUserAllow(ctx, guildID, actorID, userID, bits, "")
			return o.Allow, o.Deny, err
		}
	case "deny":
		mutate = func() (uint64, uint64, error) {
			o, err := h.manager.GuildUserDeny(ctx, guildID, actorID, userID, bits, "")
			return o.Allow, o.Deny, err
		}
	case "reset":
		mutate = func() (uint64, uint64, error) {
			o, err := h.manager.GuildUserReset(ctx, guildID, actorID, userID, bits, "")
			return o.Allow, o.Deny, err
		}
	default:
		return errorJSON(c, http.StatusBadRequest, "INVALID_ACTION", "action must be allow, deny, or reset")
	}

	allow, deny, err := mutate()
	if err != nil {
		return serviceError(c, err)
	}
	return successJSON(c, http.StatusOK, newOverrideResponse(allow, deny))
}

// UserAction handles POST /guilds/:id/permissions/users/:userID/:action.
func (h *PermissionHandler) UserAction(c echo.Context) error {
	return h.guildUserOp(c, c.Param("action"))
}

// channelOp dispatches an allow/deny/reset action against a channel role or
// user entry.
func (h *PermissionHandler) channelOp(c echo.Context, isRole bool) error {
	var req mutationRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
	}
	bits, ok := req.mask()
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PERMISSION", "unknown permission name")
	}

	ctx := c.Request().Context()
	guildID := c.Param("id")
	channelID := c.Param("channelID")
	actorID := auth.GetUserID(c)

	type mutation func() (uint64, uint64, error)
	var mutate mutation
	if isRole {
		roleID := c.Param("roleID")
		switch c.Param("action") {
		case "allow":
			mutate = func() (uint64, uint64, error) {
				o, err := h.manager.ChannelRoleAllow(ctx, guildID, channelID, actorID, roleID, bits, "")
				return o.Allow, o.Deny, err
			}
		case "deny":
			mutate = func() (uint64, uint64, error) {
				o, err := h.manager.ChannelRoleDeny(ctx, guildID, channelID, actorID, roleID, bits, "")
				return o.Allow, o.Deny, err
			}
		case "reset":
			mutate = func() (uint64, uint64, error) {
				o, err := h.manager.ChannelRoleReset(ctx, guildID, channelID, actorID, roleID, bits, "")
				return o.Allow, o.Deny, err
			}
		}
	} else {
		userID := c.Param("userID")
		switch c.Param("action") {
		case "allow":
			mutate = func() (uint64, uint64, error) {
				o, err := h.manager.ChannelUserAllow(ctx, guildID, channelID, actorID, userID, bits, "")
				return o.Allow, o.Deny, err
			}
		case "deny":
			mutate = func() (uint64, uint64, error) {
				o, err := h.manager.ChannelUserDeny(ctx, guildID, channelID, actorID, userID, bits, "")
				return o.Allow, o.Deny, err
			}
		case "reset":
			mutate = func() (uint64, uint64, error) {
				o, err := h.manager.ChannelUserReset(ctx, guildID, channelID, actorID, userID, bits, "")
				return o.Allow, o.Deny, err
			}
		}
	}
	if mutate == nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ACTION", "action must be allow, deny, or reset")
	}

	allow, deny, err := mutate()
	if err != nil {
		return serviceError(c, err)
	}
	return successJSON(c, http.StatusOK, newOverrideResponse(allow, deny))
}

// ChannelRoleAction handles
// POST /guilds/:id/channels/:channelID/permissions/roles/:roleID/:action.
func (h *PermissionHandler) ChannelRoleAction(c echo.Context) error {
	return h.channelOp(c, true)
}

// ChannelUserAction handles
// POST /guilds/:id/channels/:channelID/permissions/users/:userID/:action.
func (h *PermissionHandler) ChannelUserAction(c echo.Context) error {
	return h.channelOp(c, false)
}
