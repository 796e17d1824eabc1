package playback

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

var (
	// ErrNotConnected is returned for notifications before Connect.
	ErrNotConnected = errors.New("player not connected")
	// ErrUnknownEvent is returned for notifications with an unknown name.
	ErrUnknownEvent = errors.New("unknown player event")
)

// Remote defines the control API commands a WebAPIPlayer forwards.
type Remote interface {
	Previous(ctx context.Context, deviceID string) error
	Next(ctx context.Context, deviceID string) error
	TogglePlay(ctx context.Context, deviceID string) error
}

// WebAPIPlayer is a Player whose commands go through the control API and
// whose notifications are delivered by the browser through Notify.
type WebAPIPlayer struct {
	mu        sync.RWMutex
	remote    Remote
	listeners map[string][]Handler
	connected bool
	deviceID  string
}

// NewWebAPIPlayer creates a player forwarding commands to remote.
func NewWebAPIPlayer(remote Remote) *WebAPIPlayer {
	return &WebAPIPlayer{
		remote:    remote,
		listeners: make(map[string][]Handler),
	}
}

// AddListener registers h for name. Unknown names are rejected.
func (p *WebAPIPlayer) AddListener(name string, h Handler) bool {
	if !KnownEvent(name) || h == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners[name] = append(p.listeners[name], h)
	return true
}

// Connect starts accepting notifications.
func (p *WebAPIPlayer) Connect(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return true, nil
}

// Notify delivers a browser notification to the registered listeners.
func (p *WebAPIPlayer) Notify(ctx context.Context, n Notification) error {
	if !KnownEvent(n.Name) {
		return errors.Wrapf(ErrUnknownEvent, "event %q", n.Name)
	}

	p.mu.Lock()
	if !p.connected {
		p.mu.Unlock()
		return ErrNotConnected
	}
	switch n.Name {
	case EventReady:
		p.deviceID = n.DeviceID
	case EventNotReady:
		if p.deviceID == n.DeviceID {
			p.deviceID = ""
		}
	}
	handlers := append([]Handler(nil), p.listeners[n.Name]...)
	p.mu.Unlock()

	zlog.Debug().Msgf("player notification: name=%s listeners=%d", n.Name, len(handlers))
	for _, h := range handlers {
		h(ctx, n)
	}
	return nil
}

func (p *WebAPIPlayer) device() (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.deviceID == "" {
		return "", ErrNoDevice
	}
	return p.deviceID, nil
}

// PreviousTrack skips to the previous track on the device.
func (p *WebAPIPlayer) PreviousTrack(ctx context.Context) error {
	id, err := p.device()
	if err != nil {
		return err
	}
	return p.remote.Previous(ctx, id)
}

// NextTrack skips to the next track on the device.
func (p *WebAPIPlayer) NextTrack(ctx context.Context) error {
	id, err := p.device()
	if err != nil {
		return err
	}
	return p.remote.Next(ctx, id)
}

// TogglePlay pauses or resumes the device.
func (p *WebAPIPlayer) TogglePlay(ctx context.Context) error {
	id, err := p.device()
	if err != nil {
		return err
	}
	return p.remote.TogglePlay(ctx, id)
}
