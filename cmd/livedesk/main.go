package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/slack-go/slack"
	"gorm.io/gorm/logger"

	"github.com/livedesk/livedesk/internal/config"
	"github.com/livedesk/livedesk/internal/database"
	"github.com/livedesk/livedesk/internal/events"
	"github.com/livedesk/livedesk/internal/handlers"
	"github.com/livedesk/livedesk/internal/hub"
	"github.com/livedesk/livedesk/internal/middleware"
	"github.com/livedesk/livedesk/internal/notify"
)

const heartbeatInterval = 30 * time.Second

// broadcaster fans events out to connected clients and, when Slack is
// configured, to the notifier.
type broadcaster struct {
	hub      *hub.Hub
	notifier *notify.Notifier
}

func (b *broadcaster) Broadcast(ev events.Event) {
	b.hub.Broadcast(ev)
	if b.notifier != nil {
		go b.notifier.HandleEvent(ev)
	}
}

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting LiveDesk server...")

	// Initialize JWT authentication middleware
	if cfg.AdminPassword == "" {
		log.Fatalf("ADMIN_PASSWORD is not set")
	}

	// Hash the admin password
	passwordHash, err := middleware.HashPassword(cfg.AdminPassword)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	jwtAuthMiddleware := middleware.NewJWTAuthMiddleware(&middleware.JWTAuthConfig{
		Enabled:           true,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: passwordHash,
		AdminUUID:         cfg.AdminUUID,
		JWTSecret:         cfg.JWTSecret,
		JWTExpiryHours:    cfg.JWTExpiryHours,
		SkipPaths: []string{
			"/health",
			"/auth/login",
		},
	})
	log.Printf("JWT authentication enabled for user: %s", cfg.AdminUsername)

	// Initialize database connection
	if err := database.Connect(cfg.DatabaseURL, dbLogLevel(cfg.DBLogLevel)); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Printf("Database connection established")

	// Run database migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize the event hub
	eventHub := hub.NewHub()

	// Initialize Slack notifications if configured
	var notifier *notify.Notifier
	if cfg.SlackBotToken != "" {
		rules, err := notify.LoadRules(cfg.NotifyRulesPath)
		if err != nil {
			log.Fatalf("Failed to load notification rules: %v", err)
		}
		notifier = notify.New(slack.New(cfg.SlackBotToken), rules)
		log.Printf("Slack notifications enabled, rules from %s", cfg.NotifyRulesPath)
	} else {
		log.Printf("Slack notifications disabled (SLACK_BOT_TOKEN not set)")
	}

	bcast := &broadcaster{hub: eventHub, notifier: notifier}

	// Set up HTTP server routes
	mux := http.NewServeMux()
	handlers.NewHTTPHandler().SetupRoutes(mux)
	handlers.NewAuthHandler(jwtAuthMiddleware).SetupRoutes(mux)
	handlers.NewTicketHandler(bcast).SetupRoutes(mux)
	handlers.NewLinkHandler(bcast).SetupRoutes(mux)
	handlers.NewDeviceHandler(bcast).SetupRoutes(mux)
	handlers.NewProjectHandler(bcast).SetupRoutes(mux)
	handlers.NewCommentHandler(bcast).SetupRoutes(mux)
	eventHub.SetupRoutes(mux)

	// Wrap all routes: request IDs, then CORS, then JWT authentication
	corsMiddleware := middleware.NewCORSMiddleware() // Allow all origins
	handler := middleware.RequestIDMiddleware(corsMiddleware.Wrap(jwtAuthMiddleware.Wrap(mux)))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: handler,
	}

	go func() {
		log.Printf("Starting HTTP server on port %d", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Keep idle stream connections alive
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()
	go func() {
		for range heartbeat.C {
			eventHub.Broadcast(events.Heartbeat{})
		}
	}()

	log.Println("Server is running! Press Ctrl+C to exit.")
	log.Printf("Health check endpoint: http://localhost:%d/health", cfg.HTTPPort)
	log.Printf("API base URL: http://localhost:%d/api", cfg.HTTPPort)
	log.Printf("Event stream endpoint: ws://localhost:%d/ws/events", cfg.HTTPPort)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, cleaning up...")

	log.Println("Shutting down HTTP server...")
	if err := httpServer.Close(); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if err := database.Close(); err != nil {
		log.Printf("Error closing database: %v", err)
	}

	log.Println("Shutdown complete")
}

// dbLogLevel maps a config string to the gorm logger level
func dbLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
