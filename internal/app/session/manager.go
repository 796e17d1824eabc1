// Package session coordinates discovery, playback and playlist writing.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/notification"
	"github.com/osa030/gigbox/internal/app/pipeline"
	"github.com/osa030/gigbox/internal/app/playback"
	"github.com/osa030/gigbox/internal/app/playlist"
	"github.com/osa030/gigbox/internal/domain/artist"
	"github.com/osa030/gigbox/internal/domain/event"
	domainplaylist "github.com/osa030/gigbox/internal/domain/playlist"
	"github.com/osa030/gigbox/internal/domain/track"
)

var (
	ErrNoSongs        = errors.New("no songs discovered")
	ErrUnknownGenre   = errors.New("unknown genre")
	ErrArtistNotFound = errors.New("artist not found")
)

// Discoverer runs the discovery pipeline.
type Discoverer interface {
	Run(ctx context.Context, report func(pipeline.Progress)) (*pipeline.Result, error)
}

// UserSource returns the signed-in user.
type UserSource interface {
	CurrentUser(ctx context.Context) (dashboard.User, error)
}

// EventSource returns event details by ID.
type EventSource interface {
	GetEvent(ctx context.Context, id string) (*event.Event, error)
}

// Catalog is the control API surface used by the session.
type Catalog interface {
	playback.Control
	playback.Remote
	playlist.Catalog
}

// Config holds session configuration.
type Config struct {
	DiscoverOnStart bool
	DisableAutoplay bool
	DefaultRepeat   playback.RepeatMode
	Playlist        playlist.Config
}

// Manager owns the dashboard store and every component that feeds it.
type Manager struct {
	config Config

	store        *dashboard.Store
	notification *notification.Manager
	discoverer   Discoverer
	users        UserSource
	events       EventSource
	orchestrator *playback.Orchestrator
	player       *playback.WebAPIPlayer
	writer       *playlist.Writer

	generation atomic.Uint64

	// Latest state waiting for the effect loop
	latestMu sync.Mutex
	latest   *dashboard.State
	changed  chan struct{}

	// Effect loop bookkeeping
	lastPlayKey string
	lastURI     string
	fetches     sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a new session manager and starts its effect loop.
func NewManager(config Config, discoverer Discoverer, users UserSource, events EventSource, catalog Catalog) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config:       config,
		notification: notification.NewManager(),
		discoverer:   discoverer,
		users:        users,
		events:       events,
		player:       playback.NewWebAPIPlayer(catalog),
		writer:       playlist.NewWriter(catalog, config.Playlist),
		changed:      make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
	m.store = dashboard.NewStore(m.onChange)
	m.orchestrator = playback.NewOrchestrator(catalog, m.store, playback.Config{
		DefaultRepeat: config.DefaultRepeat,
	})

	go m.effectLoop()
	return m
}

// Start loads the user, binds the player and optionally runs discovery.
func (m *Manager) Start(ctx context.Context) error {
	user, err := m.users.CurrentUser(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to load current user")
	}
	if _, err := m.store.Dispatch(ctx, dashboard.UserLoaded{User: user}); err != nil {
		return err
	}
	zlog.Info().Msgf("signed in: user=%s", user.ID)

	if err := m.orchestrator.LoadScript(ctx); err != nil {
		return err
	}
	if err := m.orchestrator.OnSDKReady(ctx, m.player); err != nil {
		return err
	}

	if m.config.DiscoverOnStart {
		m.DiscoverAsync()
	}
	return nil
}

// DiscoverAsync runs Discover in the background, bound to the manager's
// lifetime rather than a request.
func (m *Manager) DiscoverAsync() {
	go func() {
		if _, err := m.Discover(m.ctx); err != nil {
			zlog.Warn().Err(err).Msg("discovery finished with errors")
		}
	}()
}

// Discover runs a new discovery pass. Results of earlier passes that are
// still in flight are dropped by the store.
func (m *Manager) Discover(ctx context.Context) (*pipeline.Result, error) {
	gen := dashboard.Gen(m.generation.Add(1))
	if _, err := m.store.Dispatch(ctx, dashboard.DiscoveryStarted{Gen: gen}); err != nil {
		return nil, err
	}
	zlog.Info().Msgf("discovery started: generation=%d", gen)

	result, runErr := m.discoverer.Run(ctx, func(p pipeline.Progress) {
		if u := progressUpdate(gen, p); u != nil {
			if _, err := m.store.Dispatch(ctx, u); err != nil && !errors.Is(err, dashboard.ErrStale) {
				zlog.Debug().Err(err).Msgf("dispatch %s failed", p.Stage)
			}
		}
	})

	// Finish with a fresh context so a cancelled run still clears the flag.
	if _, err := m.store.Dispatch(m.ctx, dashboard.DiscoveryFinished{Gen: gen, Err: runErr}); err != nil && !errors.Is(err, dashboard.ErrStale) {
		zlog.Debug().Err(err).Msg("dispatch discovery finished failed")
	}
	return result, runErr
}

func progressUpdate(gen dashboard.Gen, p pipeline.Progress) dashboard.Update {
	switch p.Stage {
	case pipeline.StagePerformers:
		if p.Err != nil {
			return nil
		}
		return dashboard.EventsLoaded{Gen: gen, Index: p.Index}
	case pipeline.StageArtists:
		return dashboard.ArtistsResolved{Gen: gen, Artists: p.Artists}
	case pipeline.StageArtistEvents:
		return dashboard.ArtistEventsBuilt{Gen: gen, ArtistEvent: p.ArtistEvents}
	case pipeline.StageTracks:
		return dashboard.TracksSelected{Gen: gen, Set: p.Tracks}
	case pipeline.StageSongEvents:
		return dashboard.SongEventsBuilt{Gen: gen, SongEvent: p.SongEvents}
	default:
		return nil
	}
}

// State returns the current dashboard state.
func (m *Manager) State(ctx context.Context) (dashboard.State, error) {
	return m.store.Snapshot(ctx)
}

// ToggleGenre toggles a genre filter.
func (m *Manager) ToggleGenre(ctx context.Context, name string) (dashboard.State, error) {
	g, ok := track.ParseGenre(name)
	if !ok {
		return dashboard.State{}, errors.Wrapf(ErrUnknownGenre, "%q", name)
	}
	return m.store.Dispatch(ctx, dashboard.GenreToggled{Genre: g})
}

// Artist returns the resolved artist for a performer name, which may be in
// encoded key form, and the IDs of its events.
func (m *Manager) Artist(ctx context.Context, name string) (*artist.Artist, []string, error) {
	st, err := m.store.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	key := event.DecodeKey(name)
	a := st.Artists[key]
	if a == nil {
		return nil, nil, errors.Wrapf(ErrArtistNotFound, "%q", key)
	}
	return a, st.ArtistEvent[a.ID], nil
}

// CreatePlaylist saves the filtered songs to a new playlist.
func (m *Manager) CreatePlaylist(ctx context.Context, name string) (*domainplaylist.Playlist, error) {
	st, err := m.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	songs := st.FilteredSongs()
	if len(songs) == 0 {
		return nil, ErrNoSongs
	}
	return m.writer.Save(ctx, name, songs)
}

// Orchestrator returns the playback orchestrator.
func (m *Manager) Orchestrator() *playback.Orchestrator {
	return m.orchestrator
}

// Player returns the player that receives browser notifications.
func (m *Manager) Player() *playback.WebAPIPlayer {
	return m.player
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// onChange runs on the store goroutine and hands the state to the effect loop.
func (m *Manager) onChange(st dashboard.State) {
	m.latestMu.Lock()
	m.latest = &st
	m.latestMu.Unlock()

	select {
	case m.changed <- struct{}{}:
	default:
	}
}

func (m *Manager) effectLoop() {
	defer close(m.done)
	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.changed:
			m.latestMu.Lock()
			st := m.latest
			m.latest = nil
			m.latestMu.Unlock()
			if st == nil {
				continue
			}

			m.notification.Broadcast(*st)
			m.autoplay(*st)
			m.loadEventDetails(*st)
		}
	}
}

// autoplay plays every discovered song once a device and songs are both
// present, and again whenever either changes. A device that goes offline
// and comes back counts as a change.
func (m *Manager) autoplay(st dashboard.State) {
	if m.config.DisableAutoplay {
		return
	}
	deviceID := st.Player.DeviceID
	if deviceID == "" {
		m.lastPlayKey = ""
		return
	}
	if len(st.AllSongs) == 0 {
		return
	}

	key := deviceID + "|" + strings.Join(st.AllSongs, ",")
	if key == m.lastPlayKey {
		return
	}
	m.lastPlayKey = key

	if err := m.orchestrator.Play(m.ctx, deviceID, st.AllSongs); err != nil {
		zlog.Warn().Err(err).Msg("autoplay failed")
	}
}

// loadEventDetails fetches the events linked to a newly playing track.
func (m *Manager) loadEventDetails(st dashboard.State) {
	uri := st.Player.CurrentTrackURI
	if uri == "" || uri == m.lastURI {
		return
	}
	m.lastURI = uri

	if _, cached := st.CurrentEvent[uri]; cached {
		return
	}
	ids := st.EventsForTrack(uri)
	if len(ids) == 0 {
		return
	}

	m.fetches.Add(1)
	go func() {
		defer m.fetches.Done()
		m.fetchEvents(m.ctx, uri, append([]string(nil), ids...))
	}()
}

func (m *Manager) fetchEvents(ctx context.Context, uri string, ids []string) {
	events := make([]event.Event, 0, len(ids))
	for _, id := range ids {
		ev, err := m.events.GetEvent(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			zlog.Warn().Err(err).Msgf("event lookup failed: id=%s", id)
			continue
		}
		events = append(events, *ev)
	}

	if _, err := m.store.Dispatch(ctx, dashboard.EventDetailsLoaded{URI: uri, Events: events}); err != nil {
		zlog.Debug().Err(err).Msg("dispatch event details failed")
	}
}

// Done returns a channel closed when the manager has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close stops the effect loop and the store.
func (m *Manager) Close() {
	m.cancel()
	<-m.done
	m.fetches.Wait()
	m.store.Close()
	m.notification.Close()
}
