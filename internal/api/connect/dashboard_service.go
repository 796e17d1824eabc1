package connect

import (
	"context"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/gigbox/internal/app/notification"
	"github.com/osa030/gigbox/internal/app/session"
)

// DashboardService implements the DashboardService RPC.
type DashboardService struct {
	session *session.Manager
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(session *session.Manager) *DashboardService {
	return &DashboardService{session: session}
}

// NewDashboardServiceHandler builds an HTTP handler serving every
// DashboardService procedure. It returns the path to mount it on.
func NewDashboardServiceHandler(svc *DashboardService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(DashboardServiceGetStateProcedure, connect.NewUnaryHandler(DashboardServiceGetStateProcedure, svc.GetState, opts...))
	mux.Handle(DashboardServiceDiscoverProcedure, connect.NewUnaryHandler(DashboardServiceDiscoverProcedure, svc.Discover, opts...))
	mux.Handle(DashboardServiceToggleGenreProcedure, connect.NewUnaryHandler(DashboardServiceToggleGenreProcedure, svc.ToggleGenre, opts...))
	mux.Handle(DashboardServiceGetArtistProcedure, connect.NewUnaryHandler(DashboardServiceGetArtistProcedure, svc.GetArtist, opts...))
	mux.Handle(DashboardServiceCreatePlaylistProcedure, connect.NewUnaryHandler(DashboardServiceCreatePlaylistProcedure, svc.CreatePlaylist, opts...))
	mux.Handle(DashboardServiceSubscribeStateProcedure, connect.NewServerStreamHandler(DashboardServiceSubscribeStateProcedure, svc.SubscribeState, opts...))
	return "/" + DashboardServiceName + "/", mux
}

// GetState returns the current dashboard state.
func (s *DashboardService) GetState(
	ctx context.Context,
	req *connect.Request[GetStateRequest],
) (*connect.Response[GetStateResponse], error) {
	st, err := s.session.State(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetStateResponse{
		State:         st,
		FilteredSongs: st.FilteredSongs(),
	}), nil
}

// Discover starts a discovery run. With Wait set it blocks until the run
// finishes and reports its outcome.
func (s *DashboardService) Discover(
	ctx context.Context,
	req *connect.Request[DiscoverRequest],
) (*connect.Response[DiscoverResponse], error) {
	if !req.Msg.Wait {
		s.session.DiscoverAsync()
		return connect.NewResponse(&DiscoverResponse{Started: true}), nil
	}

	result, err := s.session.Discover(ctx)
	resp := &DiscoverResponse{Started: true}
	if result != nil {
		resp.Songs = len(result.Tracks.AllSongs)
		resp.Linked = len(result.SongEvents)
	}
	if err != nil {
		// Partial failures still carry results
		resp.Error = err.Error()
	}
	return connect.NewResponse(resp), nil
}

// ToggleGenre toggles a genre filter.
func (s *DashboardService) ToggleGenre(
	ctx context.Context,
	req *connect.Request[ToggleGenreRequest],
) (*connect.Response[ToggleGenreResponse], error) {
	st, err := s.session.ToggleGenre(ctx, req.Msg.Genre)
	if err != nil {
		return nil, toConnectError(err)
	}

	genres := make([]string, len(st.CurrentGenre))
	for i, g := range st.CurrentGenre {
		genres[i] = string(g)
	}
	return connect.NewResponse(&ToggleGenreResponse{
		CurrentGenre:  genres,
		FilteredSongs: st.FilteredSongs(),
	}), nil
}

// GetArtist returns the artist resolved for a performer.
func (s *DashboardService) GetArtist(
	ctx context.Context,
	req *connect.Request[GetArtistRequest],
) (*connect.Response[GetArtistResponse], error) {
	a, ids, err := s.session.Artist(ctx, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GetArtistResponse{Artist: a, EventIDs: ids}), nil
}

// CreatePlaylist saves the filtered songs to a new playlist.
func (s *DashboardService) CreatePlaylist(
	ctx context.Context,
	req *connect.Request[CreatePlaylistRequest],
) (*connect.Response[CreatePlaylistResponse], error) {
	p, err := s.session.CreatePlaylist(ctx, req.Msg.Name)
	if err != nil {
		if p == nil {
			return nil, toConnectError(err)
		}
		return connect.NewResponse(&CreatePlaylistResponse{Playlist: p, Error: err.Error()}), nil
	}
	return connect.NewResponse(&CreatePlaylistResponse{Playlist: p}), nil
}

// SubscribeState streams the current state followed by every change.
func (s *DashboardService) SubscribeState(
	ctx context.Context,
	req *connect.Request[SubscribeStateRequest],
	stream *connect.ServerStream[notification.Notification],
) error {
	notifManager := s.session.GetNotificationManager()

	st, err := s.session.State(ctx)
	if err != nil {
		return toConnectError(err)
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := notifManager.Subscribe(adapter)
	defer notifManager.Unsubscribe(subscriptionID)

	if err := notifManager.Send(subscriptionID, st); err != nil {
		return err
	}
	zlog.Debug().Msgf("state subscriber joined: id=%s", subscriptionID)

	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialized since a timed-out broadcast may still be writing.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[notification.Notification]
}

func (a *notificationStreamAdapter) Send(n *notification.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(n)
}
