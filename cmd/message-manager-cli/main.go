package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/message-manager-discord/backend/internal/database"
	"github.com/message-manager-discord/backend/internal/models"
	"github.com/message-manager-discord/backend/internal/permissions"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: message-manager-cli migrate")
			fmt.Println()
			fmt.Println("Run database migrations from the migrations/ directory.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runMigrate())
	case "seed":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: message-manager-cli seed <guild_id> <role_id>")
			fmt.Println()
			fmt.Println("Write a starter permission document for a guild, granting the")
			fmt.Println("given role the message capabilities.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runSeed())
	case "health":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: message-manager-cli health")
			fmt.Println()
			fmt.Println("Check if the message-manager server is running.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  SERVER_URL  Server base URL (default: http://localhost:8080)")
			return
		}
		os.Exit(runHealth())
	case "version":
		fmt.Printf("message-manager-cli %s\n", version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: message-manager-cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Run database migrations")
	fmt.Println("  seed     Write a starter permission document for a guild")
	fmt.Println("  health   Check if the server is running")
	fmt.Println("  version  Print version info")
	fmt.Println()
	fmt.Println("Run 'message-manager-cli <command> --help' for details on a command.")
}

func hasFlag(flag string, args []string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --- migrate ---

func runMigrate() int {
	dbURL := requireEnv("DATABASE_URL")

	fmt.Println("connecting to database...")
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: migration init failed: %v\n", err)
		return 1
	}
	defer m.Close()

	fmt.Println("running migrations...")
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		fmt.Fprintf(os.Stderr, "error: migration failed: %v\n", err)
		return 1
	}

	v, dirty, _ := m.Version()
	if err == migrate.ErrNoChange {
		fmt.Printf("no new migrations (current version: %d)\n", v)
	} else {
		fmt.Printf("migrations applied (version: %d, dirty: %v)\n", v, dirty)
	}
	return 0
}

// --- seed ---

func runSeed() int {
	if len(os.Args) < 4 {
		fmt.Fprintln(os.Stderr, "error: guild_id and role_id arguments are required")
		return 1
	}
	guildID, roleID := os.Args[2], os.Args[3]
	dbURL := requireEnv("DATABASE_URL")
	ctx := context.Background()

	fmt.Println("connecting to database...")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: database connection failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: database ping failed: %v\n", err)
		return 1
	}

	store := database.NewPermissionStore(pool)

	doc, err := store.GetGuildDoc(ctx, guildID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: loading permission document: %v\n", err)
		return 1
	}
	if doc == nil {
		doc = models.NewGuildPermissionDoc()
	}
	doc.Roles[roleID] = uint64(permissions.CapAllMessages)

	if err := store.PutGuildDoc(ctx, guildID, doc); err != nil {
		fmt.Fprintf(os.Stderr, "error: writing permission document: %v\n", err)
		return 1
	}

	fmt.Println()
	fmt.Println("seed complete:")
	fmt.Printf("  guild: %s\n", guildID)
	fmt.Printf("  role:  %s granted %s\n", roleID, permissions.CapAllMessages.String())
	return 0
}

// --- health ---

func runHealth() int {
	serverURL := envOr("SERVER_URL", "http://localhost:8080")
	url := serverURL + "/health"

	fmt.Printf("checking %s ...\n", url)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("status: %d\n", resp.StatusCode)
	if len(body) > 0 {
		fmt.Printf("body:   %s\n", string(body))
	}

	if resp.StatusCode == http.StatusOK {
		fmt.Println("server is healthy")
		return 0
	}
	fmt.Fprintln(os.Stderr, "server returned non-200 status")
	return 1
}
