package connect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/pipeline"
	"github.com/osa030/gigbox/internal/app/playback"
	"github.com/osa030/gigbox/internal/app/session"
	"github.com/osa030/gigbox/internal/domain/event"
	"github.com/osa030/gigbox/internal/domain/playlist"
	"github.com/osa030/gigbox/internal/domain/track"
)

const testToken = "secret"

type stubDiscoverer struct{}

func (stubDiscoverer) Run(ctx context.Context, report func(pipeline.Progress)) (*pipeline.Result, error) {
	set := track.NewSet()
	set.Add("a1", "spotify:track:t1", []string{"indie rock"})
	r := &pipeline.Result{
		Index:        event.Index{"The Band": {"123"}},
		Artists:      pipeline.Artists{"The Band": {ID: "a1", Name: "The Band"}},
		ArtistEvents: map[string][]string{"a1": {"123"}},
		Tracks:       set,
		SongEvents:   map[string][]string{"spotify:track:t1": {"123"}},
	}
	report(pipeline.Progress{Stage: pipeline.StagePerformers, Index: r.Index})
	report(pipeline.Progress{Stage: pipeline.StageArtists, Artists: r.Artists})
	report(pipeline.Progress{Stage: pipeline.StageArtistEvents, ArtistEvents: r.ArtistEvents})
	report(pipeline.Progress{Stage: pipeline.StageTracks, Tracks: r.Tracks})
	report(pipeline.Progress{Stage: pipeline.StageSongEvents, SongEvents: r.SongEvents})
	return r, nil
}

type stubUsers struct{}

func (stubUsers) CurrentUser(ctx context.Context) (dashboard.User, error) {
	return dashboard.User{ID: "u1"}, nil
}

type stubEvents struct{}

func (stubEvents) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return &event.Event{ID: id}, nil
}

type stubCatalog struct {
	mu    sync.Mutex
	calls []string
}

func (c *stubCatalog) record(call string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	return nil
}

func (c *stubCatalog) Play(ctx context.Context, deviceID string, uris []string) error {
	return c.record("play")
}

func (c *stubCatalog) SetRepeat(ctx context.Context, deviceID, state string) error {
	return c.record("repeat:" + state)
}

func (c *stubCatalog) Previous(ctx context.Context, deviceID string) error {
	return c.record("previous")
}

func (c *stubCatalog) Next(ctx context.Context, deviceID string) error {
	return c.record("next")
}

func (c *stubCatalog) TogglePlay(ctx context.Context, deviceID string) error {
	return c.record("toggle")
}

func (c *stubCatalog) CreatePlaylist(ctx context.Context, name, description string, public bool) (*playlist.Playlist, error) {
	return &playlist.Playlist{ID: "pl1", Name: name, Description: description, Public: public}, nil
}

func (c *stubCatalog) AddTracksToPlaylist(ctx context.Context, playlistID string, trackURIs []string) error {
	return nil
}

type testEnv struct {
	server    *httptest.Server
	session   *session.Manager
	catalog   *stubCatalog
	dashboard *DashboardClient
	player    *PlayerClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	catalog := &stubCatalog{}
	mgr := session.NewManager(session.Config{DisableAutoplay: true}, stubDiscoverer{}, stubUsers{}, stubEvents{}, catalog)
	require.NoError(t, mgr.Start(context.Background()))

	interceptors := connect.WithInterceptors(NewAdminAuthInterceptor(testToken))
	mux := http.NewServeMux()
	mux.Handle(NewDashboardServiceHandler(NewDashboardService(mgr), interceptors))
	mux.Handle(NewPlayerServiceHandler(NewPlayerService(mgr), interceptors))
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		mgr.Close()
	})

	return &testEnv{
		server:    server,
		session:   mgr,
		catalog:   catalog,
		dashboard: NewDashboardClient(server.Client(), server.URL, testToken),
		player:    NewPlayerClient(server.Client(), server.URL, testToken),
	}
}

func TestAdminAuth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anonymous := NewDashboardClient(env.server.Client(), env.server.URL, "")
	_, err := anonymous.GetState(ctx)
	require.NoError(t, err)

	_, err = anonymous.CreatePlaylist(ctx, "mix")
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	wrong := NewPlayerClient(env.server.Client(), env.server.URL, "nope")
	_, err = wrong.Toggle(ctx)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func TestDashboardService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.dashboard.Discover(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Songs)
	assert.Equal(t, 1, resp.Linked)
	assert.Empty(t, resp.Error)

	st, err := env.dashboard.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"spotify:track:t1"}, st.State.AllSongs)
	assert.Equal(t, []string{"123"}, st.State.SongEvent["spotify:track:t1"])
	assert.Equal(t, "connected", st.State.Player.Phase)

	toggled, err := env.dashboard.ToggleGenre(ctx, "pop")
	require.NoError(t, err)
	assert.Equal(t, []string{"pop"}, toggled.CurrentGenre)
	assert.Empty(t, toggled.FilteredSongs)

	_, err = env.dashboard.ToggleGenre(ctx, "polka")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	artist, err := env.dashboard.GetArtist(ctx, "The Band")
	require.NoError(t, err)
	assert.Equal(t, "a1", artist.Artist.ID)
	assert.Equal(t, []string{"123"}, artist.EventIDs)

	_, err = env.dashboard.GetArtist(ctx, "Nobody")
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	// Only pop is selected and it has no songs
	_, err = env.dashboard.CreatePlaylist(ctx, "mix")
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = env.dashboard.ToggleGenre(ctx, "pop")
	require.NoError(t, err)
	created, err := env.dashboard.CreatePlaylist(ctx, "mix")
	require.NoError(t, err)
	assert.Equal(t, "pl1", created.Playlist.ID)
	assert.False(t, created.Playlist.Public)
	assert.Equal(t, []string{"spotify:track:t1"}, created.Playlist.TrackURIs)
}

func TestPlayerService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.player.Next(ctx)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	require.NoError(t, env.player.Notify(ctx, &NotifyRequest{
		Notification: playback.Notification{Name: playback.EventReady, DeviceID: "dev-1"},
	}))

	resp, err := env.player.Next(ctx)
	require.NoError(t, err)
	assert.True(t, resp.Success)

	_, err = env.player.Repeat(ctx, "shuffle")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	resp, err = env.player.Repeat(ctx, "")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	err = env.player.Notify(ctx, &NotifyRequest{Notification: playback.Notification{Name: "bogus"}})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	env.catalog.mu.Lock()
	assert.Equal(t, []string{"next", "repeat:context"}, env.catalog.calls)
	env.catalog.mu.Unlock()

	st, err := env.dashboard.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", st.State.Player.DeviceID)
}

func TestSubscribeState(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := env.dashboard.SubscribeState(ctx)
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive())
	assert.Equal(t, "u1", stream.Msg().State.User.ID)

	_, err = env.dashboard.ToggleGenre(ctx, "jazz")
	require.NoError(t, err)

	for stream.Receive() {
		if len(stream.Msg().State.CurrentGenre) == 1 {
			assert.Equal(t, track.GenreJazz, stream.Msg().State.CurrentGenre[0])
			return
		}
	}
	t.Fatalf("stream ended without genre update: %v", stream.Err())
}
