package playback

import (
	"context"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/gigbox/internal/app/dashboard"
)

type recordingDispatcher struct {
	mu      sync.Mutex
	updates []dashboard.Update
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, u dashboard.Update) (dashboard.State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.updates = append(d.updates, u)
	return dashboard.State{}, nil
}

func (d *recordingDispatcher) phases() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, u := range d.updates {
		if p, ok := u.(dashboard.PlayerPhaseChanged); ok {
			out = append(out, p.Phase)
		}
	}
	return out
}

type fakePlayer struct {
	listeners map[string]Handler
	connects  int
	connectOK bool
	err       error
	calls     []string
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{listeners: map[string]Handler{}, connectOK: true}
}

func (p *fakePlayer) AddListener(name string, h Handler) bool {
	p.listeners[name] = h
	return true
}

func (p *fakePlayer) Connect(ctx context.Context) (bool, error) {
	p.connects++
	return p.connectOK, nil
}

func (p *fakePlayer) PreviousTrack(ctx context.Context) error {
	p.calls = append(p.calls, "previous")
	return p.err
}

func (p *fakePlayer) NextTrack(ctx context.Context) error {
	p.calls = append(p.calls, "next")
	return p.err
}

func (p *fakePlayer) TogglePlay(ctx context.Context) error {
	p.calls = append(p.calls, "toggle")
	return p.err
}

type fakeControl struct {
	calls  []string
	repeat string
	device string
	uris   []string
	err    error
}

func (c *fakeControl) Play(ctx context.Context, deviceID string, uris []string) error {
	c.calls = append(c.calls, "play")
	c.device, c.uris = deviceID, uris
	return c.err
}

func (c *fakeControl) SetRepeat(ctx context.Context, deviceID, state string) error {
	c.calls = append(c.calls, "repeat")
	c.device, c.repeat = deviceID, state
	return c.err
}

func (c *fakeControl) Previous(ctx context.Context, deviceID string) error {
	c.calls = append(c.calls, "previous:"+deviceID)
	return c.err
}

func (c *fakeControl) Next(ctx context.Context, deviceID string) error {
	c.calls = append(c.calls, "next:"+deviceID)
	return c.err
}

func (c *fakeControl) TogglePlay(ctx context.Context, deviceID string) error {
	c.calls = append(c.calls, "toggle:"+deviceID)
	return c.err
}

func sdkTrack(uri, cover string) SDKTrack {
	return SDKTrack{
		URI:     uri,
		Name:    uri + " name",
		Album:   SDKAlbum{Name: uri + " album", Images: []SDKImage{{URL: cover}, {URL: cover + "-small"}}},
		Artists: []SDKArtist{{Name: "A"}, {Name: "B"}},
	}
}

func readyOrchestrator(t *testing.T) (*Orchestrator, *fakePlayer, *recordingDispatcher) {
	t.Helper()
	d := &recordingDispatcher{}
	o := NewOrchestrator(&fakeControl{}, d, Config{})
	require.NoError(t, o.LoadScript(context.Background()))
	p := newFakePlayer()
	require.NoError(t, o.OnSDKReady(context.Background(), p))
	return o, p, d
}

func TestOrchestrator_LoadScriptOnce(t *testing.T) {
	o := NewOrchestrator(&fakeControl{}, nil, Config{})
	assert.Equal(t, PhaseUninitialized, o.Phase())

	require.NoError(t, o.LoadScript(context.Background()))
	assert.Equal(t, PhaseSDKReadyPending, o.Phase())

	err := o.LoadScript(context.Background())
	assert.True(t, errors.Is(err, ErrScriptLoaded))
}

func TestOrchestrator_OnSDKReadyRequiresScript(t *testing.T) {
	o := NewOrchestrator(&fakeControl{}, nil, Config{})
	err := o.OnSDKReady(context.Background(), newFakePlayer())
	assert.True(t, errors.Is(err, ErrScriptNotLoaded))
}

func TestOrchestrator_OnSDKReady(t *testing.T) {
	o, p, d := readyOrchestrator(t)

	assert.Equal(t, 1, p.connects)
	assert.Equal(t, PhaseConnected, o.Phase())
	for _, name := range []string{
		EventInitializationError, EventAuthenticationError, EventAccountError, EventPlaybackError,
		EventPlayerStateChanged, EventReady, EventNotReady,
	} {
		assert.Contains(t, p.listeners, name)
	}
	assert.Equal(t, []string{"script-loading", "sdk-ready-pending", "connected"}, d.phases())

	err := o.OnSDKReady(context.Background(), newFakePlayer())
	assert.True(t, errors.Is(err, ErrPlayerBound))
}

func TestOrchestrator_ConnectRefused(t *testing.T) {
	o := NewOrchestrator(&fakeControl{}, nil, Config{})
	require.NoError(t, o.LoadScript(context.Background()))
	p := newFakePlayer()
	p.connectOK = false

	err := o.OnSDKReady(context.Background(), p)
	assert.True(t, errors.Is(err, ErrConnectRefused))
	assert.Equal(t, PhaseSDKReadyPending, o.Phase())
}

func TestOrchestrator_ReadinessAndErrors(t *testing.T) {
	o, p, d := readyOrchestrator(t)
	ctx := context.Background()

	p.listeners[EventReady](ctx, Notification{Name: EventReady, DeviceID: "dev-1"})
	assert.Equal(t, PhaseReady, o.Phase())
	assert.Equal(t, "dev-1", o.DeviceID())

	require.NoError(t, o.Repeat(ctx, "track"))

	p.listeners[EventNotReady](ctx, Notification{Name: EventNotReady, DeviceID: "dev-1"})
	assert.Equal(t, PhaseNotReady, o.Phase())
	assert.Empty(t, o.DeviceID())
	assert.True(t, errors.Is(o.Repeat(ctx, "track"), ErrNoDevice))
	assert.Equal(t, dashboard.DeviceNotReady{DeviceID: "dev-1"}, d.updates[len(d.updates)-1])

	p.listeners[EventAccountError](ctx, Notification{Name: EventAccountError, Message: "premium required"})

	last := d.updates[len(d.updates)-1]
	assert.Equal(t, dashboard.PlayerError{Source: EventAccountError, Message: "premium required"}, last)
}

func TestOrchestrator_StateChangedCovers(t *testing.T) {
	_, p, d := readyOrchestrator(t)

	p.listeners[EventPlayerStateChanged](context.Background(), Notification{
		Name: EventPlayerStateChanged,
		State: &SDKState{
			Paused:   true,
			Position: 1000,
			Duration: 200000,
			TrackWindow: TrackWindow{
				Current:  sdkTrack("spotify:track:cur", "cur.jpg"),
				Previous: []SDKTrack{sdkTrack("spotify:track:p0", "p0.jpg"), sdkTrack("spotify:track:p1", "p1.jpg")},
				Next:     []SDKTrack{sdkTrack("spotify:track:n0", "n0.jpg"), sdkTrack("spotify:track:n1", "n1.jpg")},
			},
		},
	})

	u, ok := d.updates[len(d.updates)-1].(dashboard.PlayerStateChanged)
	require.True(t, ok)

	assert.Equal(t, "spotify:track:cur", u.TrackURI)
	assert.Equal(t, "spotify:track:cur name", u.TrackName)
	assert.Equal(t, "spotify:track:cur album", u.AlbumName)
	assert.Equal(t, []string{"A", "B"}, u.ArtistNames)
	assert.Equal(t, "cur.jpg", u.CurrentCover)
	assert.Equal(t, "p1.jpg", *u.PrevCover1)
	assert.Equal(t, "p0.jpg", *u.PrevCover2)
	assert.Equal(t, "n0.jpg", *u.NextCover1)
	assert.Equal(t, "n1.jpg", *u.NextCover2)
	assert.Equal(t, int64(1000), u.Position)
	assert.Equal(t, int64(200000), u.Duration)
	assert.True(t, u.Paused)
}

func TestStateUpdate_MissingNeighbours(t *testing.T) {
	u := StateUpdate(&SDKState{TrackWindow: TrackWindow{
		Current:  SDKTrack{URI: "cur"},
		Previous: []SDKTrack{sdkTrack("p0", "p0.jpg")},
	}})

	assert.Nil(t, u.PrevCover1)
	require.NotNil(t, u.PrevCover2)
	assert.Equal(t, "p0.jpg", *u.PrevCover2)
	assert.Nil(t, u.NextCover1)
	assert.Nil(t, u.NextCover2)
	assert.Equal(t, "", u.CurrentCover)
	assert.Empty(t, u.ArtistNames)
}

func TestOrchestrator_NullStateIgnored(t *testing.T) {
	_, p, d := readyOrchestrator(t)
	n := len(d.updates)

	p.listeners[EventPlayerStateChanged](context.Background(), Notification{Name: EventPlayerStateChanged})
	assert.Len(t, d.updates, n)
}

func TestOrchestrator_CommandsWithoutPlayer(t *testing.T) {
	o := NewOrchestrator(&fakeControl{}, nil, Config{})
	ctx := context.Background()

	assert.True(t, errors.Is(o.Previous(ctx), ErrNoPlayer))
	assert.True(t, errors.Is(o.Next(ctx), ErrNoPlayer))
	assert.True(t, errors.Is(o.Toggle(ctx), ErrNoPlayer))
}

func TestOrchestrator_Commands(t *testing.T) {
	o, p, d := readyOrchestrator(t)
	ctx := context.Background()

	require.NoError(t, o.Previous(ctx))
	require.NoError(t, o.Next(ctx))
	require.NoError(t, o.Toggle(ctx))
	assert.Equal(t, []string{"previous", "next", "toggle"}, p.calls)

	p.err = errors.New("403 forbidden")
	err := o.Next(ctx)
	require.Error(t, err)
	// Not retried
	assert.Len(t, p.calls, 4)
	_, isErr := d.updates[len(d.updates)-1].(dashboard.PlayerError)
	assert.True(t, isErr)
}

func TestOrchestrator_Repeat(t *testing.T) {
	control := &fakeControl{}
	o := NewOrchestrator(control, nil, Config{})
	ctx := context.Background()

	assert.True(t, errors.Is(o.Repeat(ctx, "shuffle"), ErrInvalidRepeat))
	assert.True(t, errors.Is(o.Repeat(ctx, ""), ErrNoDevice))

	require.NoError(t, o.LoadScript(ctx))
	p := newFakePlayer()
	require.NoError(t, o.OnSDKReady(ctx, p))
	p.listeners[EventReady](ctx, Notification{Name: EventReady, DeviceID: "dev-1"})

	require.NoError(t, o.Repeat(ctx, ""))
	assert.Equal(t, "context", control.repeat)
	assert.Equal(t, "dev-1", control.device)

	require.NoError(t, o.Repeat(ctx, "track"))
	assert.Equal(t, "track", control.repeat)
}

func TestOrchestrator_Play(t *testing.T) {
	control := &fakeControl{}
	o := NewOrchestrator(control, nil, Config{})
	ctx := context.Background()

	assert.True(t, errors.Is(o.Play(ctx, "", []string{"u1"}), ErrNoDevice))
	assert.Error(t, o.Play(ctx, "dev-1", nil))

	require.NoError(t, o.Play(ctx, "dev-1", []string{"u1", "u2"}))
	assert.Equal(t, []string{"u1", "u2"}, control.uris)
	assert.Equal(t, "dev-1", control.device)
}

func TestParseRepeatMode(t *testing.T) {
	tests := []struct {
		in       string
		expected RepeatMode
		wantErr  bool
	}{
		{"", RepeatOff, false},
		{"track", RepeatTrack, false},
		{"context", RepeatContext, false},
		{"off", RepeatOff, false},
		{"TRACK", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRepeatMode(tt.in, RepeatOff)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "sdk-ready-pending", PhaseSDKReadyPending.String())
	assert.Equal(t, "not-ready", PhaseNotReady.String())
	assert.Equal(t, "unknown", Phase(99).String())
}
