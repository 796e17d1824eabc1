// Package main provides the tool that obtains the Spotify refresh token the
// gigbox server runs with.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/osa030/gigbox/internal/infra/logger"
	"github.com/osa030/gigbox/internal/infra/spotify"
)

const refreshTokenEnv = "SPOTIFY_REFRESH_TOKEN"

var (
	app          = kingpin.New("gigbox-auth", "Obtain and verify the Spotify refresh token for gigbox")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	envFile      = app.Flag("env-file", "Write the refresh token into this dotenv file").String()
	timeout      = app.Flag("timeout", "How long to wait for the browser callback").Default("5m").Duration()
)

const completePage = `<!DOCTYPE html>
<html>
<head><title>gigbox</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh;">
<h1>Authorization complete</h1>
<p>You can close this window and return to the terminal.</p>
</body>
</html>
`

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Output: "stderr", Level: "info"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	if err := run(); err != nil {
		zlog.Fatal().Err(err).Msg("authorization failed")
	}
}

func run() error {
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", *port)
	flow := spotify.NewAuthFlow(*clientID, *clientSecret, redirectURL)

	tokens := make(chan *oauth2.Token, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		token, err := flow.Exchange(r)
		if err != nil {
			zlog.Warn().Err(err).Msg("callback rejected")
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		fmt.Fprint(w, completePage)
		select {
		case tokens <- token:
		default:
		}
	})

	server := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("callback server failed")
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}()

	fmt.Println("Open this URL to authorize gigbox:")
	fmt.Println()
	fmt.Println(flow.AuthURL())
	fmt.Println()

	var token *oauth2.Token
	select {
	case token = <-tokens:
	case <-time.After(*timeout):
		return errors.Newf("no callback within %s", *timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	user, err := flow.Verify(ctx, token)
	if err != nil {
		return err
	}
	fmt.Printf("Authorized as %s (%s)\n\n", user.DisplayName, user.ID)

	if *envFile != "" {
		if err := mergeEnvFile(*envFile, map[string]string{refreshTokenEnv: token.RefreshToken}); err != nil {
			return err
		}
		fmt.Printf("Wrote %s to %s\n", refreshTokenEnv, *envFile)
		return nil
	}

	fmt.Printf("%s=%s\n", refreshTokenEnv, token.RefreshToken)
	return nil
}

// mergeEnvFile sets values in a dotenv file, keeping the entries already there.
func mergeEnvFile(path string, values map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "failed to read %s", path)
		}
		env = map[string]string{}
	}
	for k, v := range values {
		env[k] = v
	}
	if err := godotenv.Write(env, path); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
