// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/omxbox/internal/api/connect"
	"github.com/osa030/omxbox/internal/app/filter"
	"github.com/osa030/omxbox/internal/app/notification"
	"github.com/osa030/omxbox/internal/app/playback"
	"github.com/osa030/omxbox/internal/app/resolve"
	"github.com/osa030/omxbox/internal/domain/command"
	"github.com/osa030/omxbox/internal/infra/config"
	"github.com/osa030/omxbox/internal/infra/logger"
	"github.com/osa030/omxbox/internal/infra/metrics"
	"github.com/osa030/omxbox/internal/infra/process"
)

var (
	app        = kingpin.New("omxbox-server", "omxbox playback daemon")
	configPath = app.Flag("config", "Path to config file").Default(config.DefaultPath()).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")

	// list-commands command
	listCommandsCmd = app.Command("list-commands", "List player control commands and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	switch cmd {
	case listFiltersCmd.FullCommand():
		printFilters()
		return
	case listCommandsCmd.FullCommand():
		printCommands()
		return
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func() { _ = closeLog() }()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		_ = closeLog()
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	chain, err := resolve.NewChainFromConfig(cfg.Filters)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}

	resolver := resolve.New(afero.NewOsFs(), chain, resolve.Config{
		Directory: cfg.Player.VideosDirectory,
		Extension: cfg.Player.VideosExtension,
		Strict:    cfg.Player.Strict,
	})

	notifier := notification.NewManager()

	controller := playback.NewController(playback.Config{
		MinUptime:         cfg.MinUptime(),
		CrashLimit:        cfg.Supervisor.CrashLimit,
		ReportWriteErrors: cfg.ReportWriteErrors(),
	}, process.NewExecLauncher(), resolver, notifier)
	if err := controller.SetCommand(cfg.Player.Command); err != nil {
		return errors.Wrap(err, "invalid player command")
	}
	if cfg.Player.NativeLoop {
		controller.EnableNativeLoop()
	}

	// Create RPC service
	playerService := apiconnect.NewPlayerService(controller, resolver, notifier, cfg.Presets)

	mux := http.NewServeMux()
	playerPath, playerHandler := apiconnect.NewPlayerServiceHandler(playerService, cfg.Server.Token)
	mux.Handle(playerPath, playerHandler)
	mux.Handle("/metrics", metrics.Handler())

	if cfg.Server.Token == "" {
		zlog.Warn().Msg("No admin token configured, control procedures are open")
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(mux, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	ctx := context.Background()
	if err := autoplay(ctx, cfg, controller); err != nil {
		zlog.Error().Err(err).Msg("Autoplay failed")
	}

	// Wait for shutdown signal or server error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		controller.Close()
		notifier.Close()
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Stop the player first so subscribers see the final events, then end the streams.
	controller.Close()
	notifier.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// autoplay starts the configured session, if any.
func autoplay(ctx context.Context, cfg *config.Config, controller *playback.Controller) error {
	if len(cfg.Autoplay.Videos) == 0 {
		return nil
	}

	var opts map[string]any
	if cfg.Autoplay.Preset != "" {
		preset, ok := cfg.Preset(cfg.Autoplay.Preset)
		if !ok {
			return errors.Newf("unknown preset: %s", cfg.Autoplay.Preset)
		}
		opts = preset
	}

	zlog.Info().Msgf("Autoplay: videos=%d preset=%q loop=%v", len(cfg.Autoplay.Videos), cfg.Autoplay.Preset, cfg.Autoplay.Loop)
	return controller.Play(ctx, cfg.Autoplay.Videos, opts, cfg.Autoplay.Loop)
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	for _, factory := range filter.GetRegistered() {
		f := factory()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// printCommands prints the control commands accepted by Send.
func printCommands() {
	fmt.Println("Control Commands:")
	for _, c := range command.All() {
		fmt.Printf("  %-26s %-4q %s\n", c, c.Bytes(), c.Description())
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
