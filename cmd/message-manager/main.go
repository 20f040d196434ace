package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/bwmarrin/discordgo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/message-manager-discord/backend/internal/api"
	"github.com/message-manager-discord/backend/internal/auth"
	"github.com/message-manager-discord/backend/internal/cache"
	"github.com/message-manager-discord/backend/internal/config"
	"github.com/message-manager-discord/backend/internal/database"
	"github.com/message-manager-discord/backend/internal/discord"
	redisclient "github.com/message-manager-discord/backend/internal/redis"
	"github.com/message-manager-discord/backend/internal/service"
	"github.com/message-manager-discord/backend/internal/session"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))
	ctx := context.Background()

	// --- Infrastructure ---

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatalf("discord: %v", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	if err := dg.Open(); err != nil {
		log.Fatalf("discord gateway: %v", err)
	}
	defer dg.Close()

	tokenSvc := auth.NewTokenService(cfg.JWTSecret)

	// --- Permission core ---

	store := cache.NewCachedStore(database.NewPermissionStore(pool), rdb)
	state := discord.NewStateProvider(dg)

	renderer := api.NewPermissionRenderer(store)
	transport := discord.NewTransport(dg, dg.State.User.ID)
	sessions := session.NewCache(transport, renderer, clock.New(), cfg.SessionTTL)
	defer sessions.Close()

	checker := service.NewPermissionChecker(store, state)
	manager := service.NewManager(store, state, checker, sessions, cfg.MaxPermissionEntries)

	// --- Handlers ---

	deps := &api.Dependencies{
		Permissions:  api.NewPermissionHandler(manager, checker),
		TokenService: tokenSvc,
		Redis:        rdb,
	}

	// --- Echo ---

	e := echo.New()
	e.HidePort = true
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.SetupRouter(e, deps)

	// --- Start ---

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("message-manager starting on %s", cfg.ServerAddr)
		if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("shutting down...")
	if err := e.Shutdown(context.Background()); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
