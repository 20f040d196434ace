package api

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/message-manager-discord/backend/internal/auth"
	"github.com/message-manager-discord/backend/internal/redis"
)

// Dependencies holds all handler instances and middleware for route wiring.
type Dependencies struct {
	Permissions *PermissionHandler

	TokenService *auth.TokenService
	Redis        *redis.Client
}

// SetupRouter registers all API routes on the Echo instance.
func SetupRouter(e *echo.Echo, deps *Dependencies) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	v1 := e.Group("/api/v1")

	// Protected routes require JWT auth and a general rate limit
	authMw := deps.TokenService.Middleware()
	protected := v1.Group("", authMw,
		RateLimitMiddleware(deps.Redis, 50, time.Minute),
	)

	// Resolved permissions
	protected.GET("/guilds/:id/permissions/resolved", deps.Permissions.GetResolved)

	// Guild-scope overrides
	protected.PUT("/guilds/:id/permissions/roles/:roleID", deps.Permissions.SetRolePermissions)
	protected.POST("/guilds/:id/permissions/users/:userID/:action", deps.Permissions.UserAction)

	// Channel-scope overrides
	protected.POST("/guilds/:id/channels/:channelID/permissions/roles/:roleID/:action", deps.Permissions.ChannelRoleAction)
	protected.POST("/guilds/:id/channels/:channelID/permissions/users/:userID/:action", deps.Permissions.ChannelUserAction)
}
