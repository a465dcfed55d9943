package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/livedesk/livedesk/internal/client"
	"github.com/livedesk/livedesk/internal/config"
	"github.com/livedesk/livedesk/internal/events"
	"github.com/livedesk/livedesk/internal/stream"
	"github.com/livedesk/livedesk/internal/workspace"
)

// livedesk-agent opens one ticket headlessly: it logs in, loads the
// aggregate, watches the push stream, and logs every change it merges.

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it (this is fine if using environment variables): %v", err)
	}

	cfg, err := config.LoadAgent()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Password == "" {
		log.Fatalf("LIVEDESK_PASSWORD is not set")
	}
	if cfg.TicketID == 0 {
		log.Fatalf("LIVEDESK_TICKET_ID is not set")
	}

	logger := log.New(os.Stdout, "agent: ", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	apiClient := client.New(cfg.ServerURL)
	login, err := apiClient.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	logger.Printf("Logged in as %s (%s)", login.Username, login.UserUUID)

	resp, err := apiClient.GetTicket(ctx, cfg.TicketID)
	if err != nil {
		log.Fatalf("Failed to load ticket %d: %v", cfg.TicketID, err)
	}
	logger.Printf("Opened ticket #%d: %s [%s/%s]", resp.ID, resp.Title, resp.Status, resp.Priority)

	session := workspace.NewSession(
		workspace.FromAPI(resp),
		apiClient,
		func() string { return login.UserUUID },
		logger,
	)
	defer session.Close()

	streamClient := stream.NewClient(wsURL(cfg.ServerURL), apiClient.Token(), logger)
	if err := streamClient.Connect(); err != nil {
		log.Fatalf("Stream connect failed: %v", err)
	}
	defer streamClient.Close()

	detach := session.Attach(streamClient)
	defer detach()

	if err := streamClient.Watch(cfg.TicketID); err != nil {
		log.Fatalf("Watch failed: %v", err)
	}

	// Log each merged change alongside the session's own reconciliation
	for _, t := range events.AllTypes() {
		if t == events.TypeHeartbeat {
			continue
		}
		streamClient.AddListener(t, func(ev events.Event) {
			logger.Printf("Event %s: %+v", ev.EventType(), ev)
		})
	}

	go streamClient.ReadLoop()

	logger.Printf("Watching ticket #%d. Press Ctrl+C to exit.", cfg.TicketID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ticket := session.Ticket()
	logger.Printf("Final state of ticket #%d: %s [%s/%s], %d comments, %d viewers",
		ticket.ID, ticket.Title, ticket.Status, ticket.Priority, len(ticket.Comments), session.Viewers())
}

// wsURL converts the server base URL to the stream endpoint
func wsURL(baseURL string) string {
	url := strings.TrimSuffix(baseURL, "/")
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return url + "/ws/events"
}
