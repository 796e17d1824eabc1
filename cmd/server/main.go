// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/gigbox/internal/api/connect"
	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/pipeline"
	"github.com/osa030/gigbox/internal/app/playback"
	"github.com/osa030/gigbox/internal/app/playlist"
	"github.com/osa030/gigbox/internal/app/session"
	"github.com/osa030/gigbox/internal/infra/config"
	"github.com/osa030/gigbox/internal/infra/lastfm"
	"github.com/osa030/gigbox/internal/infra/logger"
	"github.com/osa030/gigbox/internal/infra/seatgeek"
	"github.com/osa030/gigbox/internal/infra/spotify"
)

var (
	app        = kingpin.New("gigbox-server", "gigbox concert discovery server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	jsonLogs   = app.Flag("json-logs", "Write JSON logs to stdout").Bool()

	// check-config command
	checkConfigCmd = app.Command("check-config", "Validate the config file and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		JSON:   *jsonLogs,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == checkConfigCmd.FullCommand() {
		if _, err := seatgeek.ParseSearchSettings(cfg.Ticketing.Search); err != nil {
			zlog.Fatal().Msgf("Invalid ticketing search settings: %v", err)
		}
		fmt.Println("config OK")
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	search, err := seatgeek.ParseSearchSettings(cfg.Ticketing.Search)
	if err != nil {
		return fmt.Errorf("invalid ticketing search settings: %w", err)
	}
	startTime, endTime, err := cfg.TicketingWindow()
	if err != nil {
		return fmt.Errorf("invalid ticketing window: %w", err)
	}

	ticketing, err := seatgeek.New(seatgeek.Config{
		ClientID:          cfg.Ticketing.ClientID,
		BaseURL:           cfg.Ticketing.BaseURL,
		Timeout:           time.Duration(cfg.Ticketing.TimeoutSec) * time.Second,
		RequestsPerSecond: cfg.Ticketing.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("failed to create SeatGeek client: %w", err)
	}

	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Market:       cfg.Spotify.Market,
	})
	if err != nil {
		return fmt.Errorf("failed to create Spotify client: %w", err)
	}

	var tagger pipeline.Tagger
	if cfg.LastFmEnabled() {
		lastfmClient, err := lastfm.New(lastfm.Config{APIKey: cfg.LastFm.APIKey})
		if err != nil {
			return fmt.Errorf("failed to create Last.fm client: %w", err)
		}
		tagger = lastfmClient
		zlog.Info().Msg("Last.fm genre fallback enabled")
	}

	discovery := pipeline.New(ticketing, spotifyClient, tagger, pipeline.Config{
		Query:    func() seatgeek.Query { return search.Query(time.Now(), startTime, endTime) },
		TagLimit: cfg.LastFm.TagLimit,
	})

	sessionMgr := session.NewManager(session.Config{
		DiscoverOnStart: cfg.Discovery.OnStart,
		DisableAutoplay: cfg.Discovery.DisableAutoplay,
		DefaultRepeat:   playback.RepeatMode(cfg.Playback.DefaultRepeat),
		Playlist: playlist.Config{
			DefaultName: cfg.Playlist.DefaultName,
			Description: cfg.Playlist.Description,
		},
	}, discovery, &userSource{client: spotifyClient}, ticketing, spotifyClient)

	mux := http.NewServeMux()
	adminAuthInterceptor := apiconnect.NewAdminAuthInterceptor(cfg.Admin.Token)
	mux.Handle(apiconnect.NewDashboardServiceHandler(
		apiconnect.NewDashboardService(sessionMgr),
		connect.WithInterceptors(adminAuthInterceptor),
	))
	mux.Handle(apiconnect.NewPlayerServiceHandler(
		apiconnect.NewPlayerService(sessionMgr),
		connect.WithInterceptors(adminAuthInterceptor),
	))

	serverAddr := cfg.Server.Addr
	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    serverAddr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	serverStartedCh := make(chan struct{})

	go func() {
		if err := sessionMgr.Start(ctx); err != nil {
			zlog.Error().Msgf("Failed to start session: %v", err)
		}
	}()

	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", serverAddr)
		close(serverStartedCh)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	<-serverStartedCh
	// Give the server a moment to fully initialize
	time.Sleep(100 * time.Millisecond)

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		sessionMgr.Close()
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close session manager first to terminate active streams
	sessionMgr.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")

	return nil
}

// userSource adapts the Spotify client to session.UserSource.
type userSource struct {
	client *spotify.Client
}

func (u *userSource) CurrentUser(ctx context.Context) (dashboard.User, error) {
	user, err := u.client.CurrentUser(ctx)
	if err != nil {
		return dashboard.User{}, err
	}
	return dashboard.User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}, nil
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
