package playback

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/gigbox/internal/app/dashboard"
)

// Errors
var (
	ErrScriptLoaded    = errors.New("player script already loaded")
	ErrScriptNotLoaded = errors.New("player script not loaded")
	ErrPlayerBound     = errors.New("player already bound")
	ErrNoPlayer        = errors.New("no player bound")
	ErrNoDevice        = errors.New("no playback device")
	ErrInvalidRepeat   = errors.New("repeat mode must be track, context or off")
	ErrConnectRefused  = errors.New("player refused to connect")
)

// Player is the playback SDK capability set.
type Player interface {
	AddListener(name string, h Handler) bool
	Connect(ctx context.Context) (bool, error)
	PreviousTrack(ctx context.Context) error
	NextTrack(ctx context.Context) error
	TogglePlay(ctx context.Context) error
}

// Control defines the control API operations used by the orchestrator.
type Control interface {
	Play(ctx context.Context, deviceID string, uris []string) error
	SetRepeat(ctx context.Context, deviceID, state string) error
}

// Dispatcher applies dashboard updates.
type Dispatcher interface {
	Dispatch(ctx context.Context, u dashboard.Update) (dashboard.State, error)
}

// Config holds orchestrator configuration.
type Config struct {
	DefaultRepeat RepeatMode // Used when Repeat is called without a mode
}

// Orchestrator owns the player session lifecycle.
type Orchestrator struct {
	mu           sync.RWMutex
	phase        Phase
	scriptLoaded bool
	player       Player
	deviceID     string

	control    Control
	dispatcher Dispatcher
	config     Config
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(control Control, dispatcher Dispatcher, config Config) *Orchestrator {
	if config.DefaultRepeat == "" {
		config.DefaultRepeat = RepeatContext
	}
	return &Orchestrator{
		phase:      PhaseUninitialized,
		control:    control,
		dispatcher: dispatcher,
		config:     config,
	}
}

// Phase returns the current lifecycle phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.phase
}

// DeviceID returns the registered device, or "".
func (o *Orchestrator) DeviceID() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.deviceID
}

// LoadScript marks the SDK script as loaded. It succeeds once per session.
func (o *Orchestrator) LoadScript(ctx context.Context) error {
	o.mu.Lock()
	if o.scriptLoaded {
		o.mu.Unlock()
		return ErrScriptLoaded
	}
	o.scriptLoaded = true
	o.mu.Unlock()

	o.setPhase(ctx, PhaseScriptLoading)
	o.setPhase(ctx, PhaseSDKReadyPending)
	return nil
}

// OnSDKReady binds player, registers every listener and connects once.
func (o *Orchestrator) OnSDKReady(ctx context.Context, player Player) error {
	o.mu.Lock()
	if !o.scriptLoaded {
		o.mu.Unlock()
		return ErrScriptNotLoaded
	}
	if o.player != nil {
		o.mu.Unlock()
		return ErrPlayerBound
	}
	o.player = player
	o.mu.Unlock()

	for _, name := range ErrorEvents {
		player.AddListener(name, o.onError(name))
	}
	player.AddListener(EventPlayerStateChanged, o.onStateChanged)
	player.AddListener(EventReady, o.onReady)
	player.AddListener(EventNotReady, o.onNotReady)

	ok, err := player.Connect(ctx)
	if err != nil {
		o.reportError(ctx, "connect", err)
		return errors.Wrap(err, "failed to connect player")
	}
	if !ok {
		o.reportError(ctx, "connect", ErrConnectRefused)
		return ErrConnectRefused
	}

	o.setPhase(ctx, PhaseConnected)
	zlog.Info().Msg("player connected")
	return nil
}

func (o *Orchestrator) onError(name string) Handler {
	return func(ctx context.Context, n Notification) {
		zlog.Error().Msgf("player %s: %s", name, n.Message)
		o.dispatch(ctx, dashboard.PlayerError{Source: name, Message: n.Message})
	}
}

func (o *Orchestrator) onReady(ctx context.Context, n Notification) {
	o.mu.Lock()
	o.deviceID = n.DeviceID
	o.phase = PhaseReady
	o.mu.Unlock()

	zlog.Info().Msgf("device ready: device_id=%s", n.DeviceID)
	o.dispatch(ctx, dashboard.DeviceReady{DeviceID: n.DeviceID})
}

func (o *Orchestrator) onNotReady(ctx context.Context, n Notification) {
	o.mu.Lock()
	o.deviceID = ""
	o.phase = PhaseNotReady
	o.mu.Unlock()

	zlog.Warn().Msgf("device went offline: device_id=%s", n.DeviceID)
	o.dispatch(ctx, dashboard.DeviceNotReady{DeviceID: n.DeviceID})
}

func (o *Orchestrator) onStateChanged(ctx context.Context, n Notification) {
	if n.State == nil {
		return
	}
	o.dispatch(ctx, StateUpdate(n.State))
}

// StateUpdate maps an SDK state to a dashboard update. Previous covers are
// taken in reverse so the nearest track sits next to the current one; a
// missing neighbour leaves its cover unchanged.
func StateUpdate(s *SDKState) dashboard.PlayerStateChanged {
	cur := s.TrackWindow.Current
	return dashboard.PlayerStateChanged{
		TrackURI:     cur.URI,
		TrackName:    cur.Name,
		AlbumName:    cur.Album.Name,
		ArtistNames:  cur.ArtistNames(),
		CurrentCover: cur.Cover(),
		PrevCover1:   coverAt(s.TrackWindow.Previous, 1),
		PrevCover2:   coverAt(s.TrackWindow.Previous, 0),
		NextCover1:   coverAt(s.TrackWindow.Next, 0),
		NextCover2:   coverAt(s.TrackWindow.Next, 1),
		Position:     s.Position,
		Duration:     s.Duration,
		Paused:       s.Paused,
	}
}

func coverAt(tracks []SDKTrack, i int) *string {
	if i >= len(tracks) {
		return nil
	}
	cover := tracks[i].Cover()
	return &cover
}

// Previous skips to the previous track.
func (o *Orchestrator) Previous(ctx context.Context) error {
	return o.command(ctx, "previous", Player.PreviousTrack)
}

// Next skips to the next track.
func (o *Orchestrator) Next(ctx context.Context) error {
	return o.command(ctx, "next", Player.NextTrack)
}

// Toggle pauses or resumes playback.
func (o *Orchestrator) Toggle(ctx context.Context) error {
	return o.command(ctx, "toggle", Player.TogglePlay)
}

func (o *Orchestrator) command(ctx context.Context, name string, fn func(Player, context.Context) error) error {
	o.mu.RLock()
	player := o.player
	o.mu.RUnlock()

	if player == nil {
		return ErrNoPlayer
	}
	if err := fn(player, ctx); err != nil {
		o.reportError(ctx, name, err)
		return errors.Wrapf(err, "%s failed", name)
	}
	return nil
}

// Repeat sets the repeat mode on the registered device. An empty mode uses
// the configured default.
func (o *Orchestrator) Repeat(ctx context.Context, mode string) error {
	m, err := ParseRepeatMode(mode, o.config.DefaultRepeat)
	if err != nil {
		return err
	}

	deviceID := o.DeviceID()
	if deviceID == "" {
		return ErrNoDevice
	}

	if err := o.control.SetRepeat(ctx, deviceID, string(m)); err != nil {
		o.reportError(ctx, "repeat", err)
		return errors.Wrap(err, "repeat failed")
	}
	return nil
}

// Play starts uris on deviceID.
func (o *Orchestrator) Play(ctx context.Context, deviceID string, uris []string) error {
	if deviceID == "" {
		return ErrNoDevice
	}
	if len(uris) == 0 {
		return errors.New("no tracks to play")
	}

	if err := o.control.Play(ctx, deviceID, uris); err != nil {
		o.reportError(ctx, "play", err)
		return errors.Wrap(err, "play failed")
	}
	zlog.Info().Msgf("playing %d tracks on device %s", len(uris), deviceID)
	return nil
}

func (o *Orchestrator) setPhase(ctx context.Context, p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	o.dispatch(ctx, dashboard.PlayerPhaseChanged{Phase: p.String()})
}

func (o *Orchestrator) reportError(ctx context.Context, source string, err error) {
	zlog.Error().Err(err).Msgf("player %s failed", source)
	o.dispatch(ctx, dashboard.PlayerError{Source: source, Message: err.Error()})
}

func (o *Orchestrator) dispatch(ctx context.Context, u dashboard.Update) {
	if o.dispatcher == nil {
		return
	}
	if _, err := o.dispatcher.Dispatch(ctx, u); err != nil {
		zlog.Debug().Err(err).Msgf("dispatch %T failed", u)
	}
}
