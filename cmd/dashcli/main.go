// Package main provides the dashboard CLI entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/gigbox/internal/api/connect"
	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/notification"
	"github.com/osa030/gigbox/internal/domain/track"
)

var (
	app    = kingpin.New("gigbox-dashcli", "gigbox dashboard client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Admin token (or set ADMIN_TOKEN env)").Envar("ADMIN_TOKEN").String()

	// state command
	stateCmd = app.Command("state", "Show the dashboard state").Alias("status")

	// discover command
	discoverCmd  = app.Command("discover", "Run a discovery pass")
	discoverWait = discoverCmd.Flag("wait", "Wait for the pass to finish").Bool()

	// genre command
	genreCmd  = app.Command("genre", "Toggle a genre filter")
	genreName = genreCmd.Arg("genre", "Genre ("+genreList()+")").Required().String()

	// artist command
	artistCmd  = app.Command("artist", "Show the artist resolved for a performer")
	artistName = artistCmd.Arg("name", "Performer name").Required().String()

	// playlist command
	playlistCmd  = app.Command("playlist", "Save the filtered songs to a new playlist")
	playlistName = playlistCmd.Arg("name", "Playlist name").String()

	// player commands
	prevCmd    = app.Command("prev", "Skip to the previous track")
	nextCmd    = app.Command("next", "Skip to the next track")
	toggleCmd  = app.Command("toggle", "Pause or resume playback")
	repeatCmd  = app.Command("repeat", "Set the repeat mode")
	repeatMode = repeatCmd.Arg("mode", "track, context or off").Enum("track", "context", "off")

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Stream state changes")
)

func genreList() string {
	names := make([]string, len(track.Genres))
	for i, g := range track.Genres {
		names[i] = string(g)
	}
	return strings.Join(names, ", ")
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	dash := apiconnect.NewDashboardClient(http.DefaultClient, *server, *token)
	player := apiconnect.NewPlayerClient(http.DefaultClient, *server, *token)
	ctx := context.Background()

	var err error
	switch command {
	case stateCmd.FullCommand():
		err = showState(ctx, dash)
	case discoverCmd.FullCommand():
		err = discover(ctx, dash, *discoverWait)
	case genreCmd.FullCommand():
		err = toggleGenre(ctx, dash, *genreName)
	case artistCmd.FullCommand():
		err = showArtist(ctx, dash, *artistName)
	case playlistCmd.FullCommand():
		err = createPlaylist(ctx, dash, *playlistName)
	case prevCmd.FullCommand():
		err = printCommand(player.Previous(ctx))
	case nextCmd.FullCommand():
		err = printCommand(player.Next(ctx))
	case toggleCmd.FullCommand():
		err = printCommand(player.Toggle(ctx))
	case repeatCmd.FullCommand():
		err = printCommand(player.Repeat(ctx, *repeatMode))
	case subscribeCmd.FullCommand():
		err = subscribe(ctx, dash)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func showState(ctx context.Context, client *apiconnect.DashboardClient) error {
	resp, err := client.GetState(ctx)
	if err != nil {
		return err
	}
	printState(resp.State)
	fmt.Printf("Filtered Songs: %d\n", len(resp.FilteredSongs))
	return nil
}

func discover(ctx context.Context, client *apiconnect.DashboardClient, wait bool) error {
	resp, err := client.Discover(ctx, wait)
	if err != nil {
		return err
	}
	if !wait {
		fmt.Println("Discovery started")
		return nil
	}
	fmt.Printf("Discovery finished: songs=%d linked=%d\n", resp.Songs, resp.Linked)
	if resp.Error != "" {
		fmt.Printf("Partial failure: %s\n", resp.Error)
	}
	return nil
}

func toggleGenre(ctx context.Context, client *apiconnect.DashboardClient, genre string) error {
	resp, err := client.ToggleGenre(ctx, genre)
	if err != nil {
		return err
	}
	fmt.Printf("Selected genres: %v\n", resp.CurrentGenre)
	fmt.Printf("Filtered songs: %d\n", len(resp.FilteredSongs))
	return nil
}

func showArtist(ctx context.Context, client *apiconnect.DashboardClient, name string) error {
	resp, err := client.GetArtist(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("Artist: %s (%s)\n", resp.Artist.Name, resp.Artist.ID)
	fmt.Printf("  Genres: %s\n", resp.Artist.GenreString())
	fmt.Printf("  Events: %v\n", resp.EventIDs)
	return nil
}

func createPlaylist(ctx context.Context, client *apiconnect.DashboardClient, name string) error {
	resp, err := client.CreatePlaylist(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("Playlist created: %s\n", resp.Playlist.URL)
	fmt.Printf("  Tracks: %d\n", len(resp.Playlist.TrackURIs))
	if resp.Error != "" {
		fmt.Printf("  Warning: %s\n", resp.Error)
	}
	return nil
}

func printCommand(resp *apiconnect.CommandResponse, err error) error {
	if err != nil {
		return err
	}
	if resp.Success {
		fmt.Printf("Success: %s\n", resp.Message)
	} else {
		fmt.Printf("Failed: %s\n", resp.Message)
	}
	return nil
}

func subscribe(ctx context.Context, client *apiconnect.DashboardClient) error {
	stream, err := client.SubscribeState(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Subscribed to state changes. Press Ctrl+C to exit.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		os.Exit(0)
	}()

	for stream.Receive() {
		printNotification(stream.Msg())
	}

	return stream.Err()
}

func printNotification(n *notification.Notification) {
	fmt.Printf("\n[Sequence: %d] === STATE v%d ===\n", n.SequenceNo, n.State.Version)
	printState(n.State)
}

func printState(st dashboard.State) {
	fmt.Printf("User: %s (%s)\n", st.User.DisplayName, st.User.ID)
	fmt.Printf("Generation: %d  Discovering: %v\n", st.Generation, st.Discovering)
	fmt.Printf("Performers: %d  Artists: %d  Songs: %d  Linked: %d\n",
		len(st.Events), len(st.Artists), len(st.AllSongs), len(st.SongEvent))

	fmt.Println("Genres:")
	for _, g := range track.Genres {
		if n := len(st.SongsByGenre[g]); n > 0 {
			fmt.Printf("  %-10s %d\n", g, n)
		}
	}
	if len(st.CurrentGenre) > 0 {
		fmt.Printf("Selected: %v\n", st.CurrentGenre)
	}

	p := st.Player
	fmt.Printf("Player: %s", p.Phase)
	if p.DeviceID != "" {
		fmt.Printf(" (device %s)", p.DeviceID)
	}
	fmt.Println()
	if p.CurrentTrackURI != "" {
		state := "Paused"
		if p.Playing {
			state = "Playing"
		}
		fmt.Printf("  %s: %s - %s [%s]\n", state, strings.Join(p.ArtistNames, ", "), p.TrackName, p.AlbumName)
		fmt.Printf("  Position: %d/%d s\n", p.Position/1000, p.Duration/1000)

		events := st.CurrentEvent[p.CurrentTrackURI]
		sort.Slice(events, func(i, j int) bool { return events[i].DateTimeLocal < events[j].DateTimeLocal })
		for _, ev := range events {
			fmt.Printf("  Show: %s @ %s, %s (%s)\n", ev.Title, ev.Venue, ev.City, ev.DateTimeLocal)
		}
	}

	if len(st.Errors) > 0 {
		fmt.Println("Errors:")
		for _, e := range st.Errors {
			fmt.Printf("  %s\n", e)
		}
	}
}
