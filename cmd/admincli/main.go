// Package main provides the admin CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/samber/lo"

	apiconnect "github.com/osa030/omxbox/internal/api/connect"
	"github.com/osa030/omxbox/internal/domain/command"
)

var (
	app    = kingpin.New("omxbox-admincli", "omxbox playback admin client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set OMXBOX_TOKEN env)").Envar("OMXBOX_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Get playback status")

	// play command
	playCmd    = app.Command("play", "Start a session, or resume a paused one")
	playVideos = playCmd.Arg("videos", "Video identifiers (omit to resume)").Strings()
	playLoop   = playCmd.Flag("loop", "Loop the playlist").Bool()
	playPreset = playCmd.Flag("preset", "Named option preset from the server config").String()
	playOpts   = playCmd.Flag("opt", "Player option with a value, e.g. --opt=-o=hdmi").StringMap()
	playFlags  = playCmd.Flag("flag", "Player option without a value, e.g. --flag=--no-osd").Strings()

	// pause command
	pauseCmd = app.Command("pause", "Pause playback")

	// stop command
	stopCmd = app.Command("stop", "Stop the session")

	// send command
	sendCmd     = app.Command("send", "Send a control command to the player")
	sendCommand = sendCmd.Arg("command", "Command name (see list-commands)").Required().
			Enum(lo.Map(command.All(), func(c command.Command, _ int) string { return c.String() })...)

	// configure command
	configureCmd        = app.Command("configure", "Change player settings")
	configureDirectory  = configureCmd.Flag("directory", "Videos directory").String()
	configureExtension  = configureCmd.Flag("extension", "Videos extension, e.g. .mp4").String()
	configureCommand    = configureCmd.Flag("command", "Player executable").String()
	configureNativeLoop = configureCmd.Flag("native-loop", "Player loops multi-item playlists itself").Bool()

	// list-commands command
	listCommandsCmd = app.Command("list-commands", "List control commands").Alias("list")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := apiconnect.NewPlayerServiceClient(http.DefaultClient, *server, *token)

	ctx := context.Background()

	switch cmd {
	case statusCmd.FullCommand():
		status(ctx, client)
	case playCmd.FullCommand():
		play(ctx, client)
	case pauseCmd.FullCommand():
		report(client.Pause(ctx))
	case stopCmd.FullCommand():
		report(client.Stop(ctx))
	case sendCmd.FullCommand():
		report(client.Send(ctx, *sendCommand))
	case configureCmd.FullCommand():
		configure(ctx, client)
	case listCommandsCmd.FullCommand():
		listCommands()
	}
}

func status(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	resp, err := client.Status(ctx)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n=== CURRENT PLAYBACK STATUS ===")
	printStatus(resp)
	fmt.Println()
}

func play(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	cfg := make(map[string]any, len(*playOpts)+len(*playFlags))
	for k, v := range *playOpts {
		cfg[k] = v
	}
	for _, f := range *playFlags {
		cfg[f] = true
	}

	payload := map[string]any{
		"loop": *playLoop,
	}
	if len(*playVideos) > 0 {
		payload["videos"] = *playVideos
	}
	if len(cfg) > 0 {
		payload["config"] = cfg
	}
	if *playPreset != "" {
		payload["preset"] = *playPreset
	}

	report(client.Play(ctx, payload))
}

func configure(ctx context.Context, client *apiconnect.PlayerServiceClient) {
	payload := map[string]any{}
	if *configureDirectory != "" {
		payload["directory"] = *configureDirectory
	}
	if *configureExtension != "" {
		payload["extension"] = *configureExtension
	}
	if *configureCommand != "" {
		payload["command"] = *configureCommand
	}
	if *configureNativeLoop {
		payload["native_loop"] = true
	}
	if len(payload) == 0 {
		fmt.Println("Nothing to configure")
		return
	}

	resp, err := client.Configure(ctx, payload)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Directory: %v\n", resp["directory"])
	fmt.Printf("Extension: %q\n", resp["extension"])
}

func listCommands() {
	fmt.Printf("Commands (%d):\n", len(command.All()))
	for _, c := range command.All() {
		fmt.Printf("  %-26s %s\n", c, c.Description())
	}
}

// report prints the status returned by a control call.
func report(resp map[string]any, err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printStatus(resp)
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
