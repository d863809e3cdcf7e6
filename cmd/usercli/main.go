// Package main provides the read-only CLI for watching the daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/omxbox/internal/api/connect"
)

var (
	app    = kingpin.New("omxbox-usercli", "omxbox read-only client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()

	// status command
	statusCmd = app.Command("status", "Show the playback status")

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Subscribe to playback notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewPlayerServiceClient(http.DefaultClient, *server, "")

	ctx := context.Background()

	switch command {
	case statusCmd.FullCommand():
		status(ctx, client)
	case subscribeCmd.FullCommand():
		subscribe(ctx, client)
	}
}

func status(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	resp, err := client.Status(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printStatus(resp)
}

func subscribe(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	stream, err := client.Subscribe(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg().AsMap())
	}

	if err := stream.Err(); err != nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printNotification(n map[string]any) {
	fmt.Printf("\n[Sequence: %v] ", n["sequence_no"])

	switch n["type"] {
	case "status":
		fmt.Println("=== INITIAL STATE ===")
		if st, ok := n["status"].(map[string]any); ok {
			printStatus(st)
		}
	case "load":
		fmt.Println("=== LOADED ===")
		fmt.Printf("  Videos: %v\n", n["videos"])
		fmt.Printf("  Config: %v\n", n["config"])
	case "play":
		fmt.Println("=== PLAYING ===")
		fmt.Printf("  Video: %v\n", n["video"])
	case "pause":
		fmt.Println("=== PAUSED ===")
	case "stop":
		fmt.Println("=== PLAYER STOPPED ===")
	case "end":
		fmt.Println("=== SESSION ENDED ===")
	case "error":
		fmt.Println("=== ERROR ===")
		fmt.Printf("  Error: %v\n", n["error"])
	default:
		fmt.Printf("=== UNKNOWN EVENT (%v) ===\n", n["type"])
	}
}

func printStatus(s map[string]any) {
	if loaded, _ := s["loaded"].(bool); !loaded {
		fmt.Println("No session loaded")
		return
	}

	state := "Playing"
	if playing, _ := s["playing"].(bool); !playing {
		state = "Paused"
	}
	fmt.Printf("State: %s\n", state)
	fmt.Printf("Current: %v\n", s["current"])
	if videos, ok := s["videos"].([]any); ok {
		fmt.Printf("Playlist (%d):\n", len(videos))
		for i, v := range videos {
			fmt.Printf("  %2d. %v\n", i+1, v)
		}
	}
	if cfg, ok := s["config"].(map[string]any); ok && len(cfg) > 0 {
		fmt.Printf("Config: %v\n", cfg)
	}
}
