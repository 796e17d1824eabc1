package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/gigbox/internal/app/notification"
)

// DashboardClient is a client for the DashboardService.
type DashboardClient struct {
	getState       *connect.Client[GetStateRequest, GetStateResponse]
	discover       *connect.Client[DiscoverRequest, DiscoverResponse]
	toggleGenre    *connect.Client[ToggleGenreRequest, ToggleGenreResponse]
	getArtist      *connect.Client[GetArtistRequest, GetArtistResponse]
	createPlaylist *connect.Client[CreatePlaylistRequest, CreatePlaylistResponse]
	subscribeState *connect.Client[SubscribeStateRequest, notification.Notification]
	adminToken     string
}

// NewDashboardClient creates a DashboardService client. adminToken is sent
// with every request when set.
func NewDashboardClient(httpClient connect.HTTPClient, baseURL, adminToken string, opts ...connect.ClientOption) *DashboardClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &DashboardClient{
		getState:       connect.NewClient[GetStateRequest, GetStateResponse](httpClient, baseURL+DashboardServiceGetStateProcedure, opts...),
		discover:       connect.NewClient[DiscoverRequest, DiscoverResponse](httpClient, baseURL+DashboardServiceDiscoverProcedure, opts...),
		toggleGenre:    connect.NewClient[ToggleGenreRequest, ToggleGenreResponse](httpClient, baseURL+DashboardServiceToggleGenreProcedure, opts...),
		getArtist:      connect.NewClient[GetArtistRequest, GetArtistResponse](httpClient, baseURL+DashboardServiceGetArtistProcedure, opts...),
		createPlaylist: connect.NewClient[CreatePlaylistRequest, CreatePlaylistResponse](httpClient, baseURL+DashboardServiceCreatePlaylistProcedure, opts...),
		subscribeState: connect.NewClient[SubscribeStateRequest, notification.Notification](httpClient, baseURL+DashboardServiceSubscribeStateProcedure, opts...),
		adminToken:     adminToken,
	}
}

func withToken[T any](msg *T, token string) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set(AdminTokenHeader, token)
	}
	return req
}

// GetState calls DashboardService.GetState.
func (c *DashboardClient) GetState(ctx context.Context) (*GetStateResponse, error) {
	resp, err := c.getState.CallUnary(ctx, withToken(&GetStateRequest{}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Discover calls DashboardService.Discover.
func (c *DashboardClient) Discover(ctx context.Context, wait bool) (*DiscoverResponse, error) {
	resp, err := c.discover.CallUnary(ctx, withToken(&DiscoverRequest{Wait: wait}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// ToggleGenre calls DashboardService.ToggleGenre.
func (c *DashboardClient) ToggleGenre(ctx context.Context, genre string) (*ToggleGenreResponse, error) {
	resp, err := c.toggleGenre.CallUnary(ctx, withToken(&ToggleGenreRequest{Genre: genre}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// GetArtist calls DashboardService.GetArtist.
func (c *DashboardClient) GetArtist(ctx context.Context, name string) (*GetArtistResponse, error) {
	resp, err := c.getArtist.CallUnary(ctx, withToken(&GetArtistRequest{Name: name}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// CreatePlaylist calls DashboardService.CreatePlaylist.
func (c *DashboardClient) CreatePlaylist(ctx context.Context, name string) (*CreatePlaylistResponse, error) {
	resp, err := c.createPlaylist.CallUnary(ctx, withToken(&CreatePlaylistRequest{Name: name}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// SubscribeState calls DashboardService.SubscribeState.
func (c *DashboardClient) SubscribeState(ctx context.Context) (*connect.ServerStreamForClient[notification.Notification], error) {
	return c.subscribeState.CallServerStream(ctx, withToken(&SubscribeStateRequest{}, c.adminToken))
}

// PlayerClient is a client for the PlayerService.
type PlayerClient struct {
	previous   *connect.Client[CommandRequest, CommandResponse]
	next       *connect.Client[CommandRequest, CommandResponse]
	toggle     *connect.Client[CommandRequest, CommandResponse]
	repeat     *connect.Client[RepeatRequest, CommandResponse]
	notify     *connect.Client[NotifyRequest, NotifyResponse]
	adminToken string
}

// NewPlayerClient creates a PlayerService client.
func NewPlayerClient(httpClient connect.HTTPClient, baseURL, adminToken string, opts ...connect.ClientOption) *PlayerClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)
	return &PlayerClient{
		previous:   connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		next:       connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		toggle:     connect.NewClient[CommandRequest, CommandResponse](httpClient, baseURL+PlayerServiceToggleProcedure, opts...),
		repeat:     connect.NewClient[RepeatRequest, CommandResponse](httpClient, baseURL+PlayerServiceRepeatProcedure, opts...),
		notify:     connect.NewClient[NotifyRequest, NotifyResponse](httpClient, baseURL+PlayerServiceNotifyProcedure, opts...),
		adminToken: adminToken,
	}
}

// Previous calls PlayerService.Previous.
func (c *PlayerClient) Previous(ctx context.Context) (*CommandResponse, error) {
	return c.command(ctx, c.previous)
}

// Next calls PlayerService.Next.
func (c *PlayerClient) Next(ctx context.Context) (*CommandResponse, error) {
	return c.command(ctx, c.next)
}

// Toggle calls PlayerService.Toggle.
func (c *PlayerClient) Toggle(ctx context.Context) (*CommandResponse, error) {
	return c.command(ctx, c.toggle)
}

func (c *PlayerClient) command(ctx context.Context, client *connect.Client[CommandRequest, CommandResponse]) (*CommandResponse, error) {
	resp, err := client.CallUnary(ctx, withToken(&CommandRequest{}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Repeat calls PlayerService.Repeat.
func (c *PlayerClient) Repeat(ctx context.Context, mode string) (*CommandResponse, error) {
	resp, err := c.repeat.CallUnary(ctx, withToken(&RepeatRequest{Mode: mode}, c.adminToken))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// Notify calls PlayerService.Notify.
func (c *PlayerClient) Notify(ctx context.Context, req *NotifyRequest) error {
	_, err := c.notify.CallUnary(ctx, withToken(req, c.adminToken))
	return err
}
