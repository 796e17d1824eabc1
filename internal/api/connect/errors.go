package connect

import (
	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/playback"
	"github.com/osa030/gigbox/internal/app/session"
)

// toConnectError maps application errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.Is(err, playback.ErrInvalidRepeat),
		errors.Is(err, playback.ErrUnknownEvent),
		errors.Is(err, session.ErrUnknownGenre):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, session.ErrArtistNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, playback.ErrNoPlayer),
		errors.Is(err, playback.ErrNoDevice),
		errors.Is(err, playback.ErrNotConnected),
		errors.Is(err, session.ErrNoSongs):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, dashboard.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
