package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/osa030/gigbox/internal/app/session"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{session: session}
}

// NewPlayerServiceHandler builds an HTTP handler serving every PlayerService
// procedure. It returns the path to mount it on.
func NewPlayerServiceHandler(svc *PlayerService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlayerServicePreviousProcedure, connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...))
	mux.Handle(PlayerServiceNextProcedure, connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...))
	mux.Handle(PlayerServiceToggleProcedure, connect.NewUnaryHandler(PlayerServiceToggleProcedure, svc.Toggle, opts...))
	mux.Handle(PlayerServiceRepeatProcedure, connect.NewUnaryHandler(PlayerServiceRepeatProcedure, svc.Repeat, opts...))
	mux.Handle(PlayerServiceNotifyProcedure, connect.NewUnaryHandler(PlayerServiceNotifyProcedure, svc.Notify, opts...))
	return "/" + PlayerServiceName + "/", mux
}

// Previous skips to the previous track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.session.Orchestrator().Previous(ctx), "Skipped to previous track")
}

// Next skips to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.session.Orchestrator().Next(ctx), "Skipped to next track")
}

// Toggle pauses or resumes playback.
func (s *PlayerService) Toggle(
	ctx context.Context,
	req *connect.Request[CommandRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.session.Orchestrator().Toggle(ctx), "Playback toggled")
}

// Repeat sets the repeat mode.
func (s *PlayerService) Repeat(
	ctx context.Context,
	req *connect.Request[RepeatRequest],
) (*connect.Response[CommandResponse], error) {
	return commandResponse(s.session.Orchestrator().Repeat(ctx, req.Msg.Mode), "Repeat mode set")
}

// Notify delivers a playback SDK callback from the browser.
func (s *PlayerService) Notify(
	ctx context.Context,
	req *connect.Request[NotifyRequest],
) (*connect.Response[NotifyResponse], error) {
	if err := s.session.Player().Notify(ctx, req.Msg.Notification); err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&NotifyResponse{}), nil
}

// commandResponse reports control API failures in the body and precondition
// failures as Connect errors.
func commandResponse(err error, ok string) (*connect.Response[CommandResponse], error) {
	if err == nil {
		return connect.NewResponse(&CommandResponse{Success: true, Message: ok}), nil
	}
	if cerr := toConnectError(err); connect.CodeOf(cerr) != connect.CodeInternal {
		return nil, cerr
	}
	return connect.NewResponse(&CommandResponse{Success: false, Message: err.Error()}), nil
}
