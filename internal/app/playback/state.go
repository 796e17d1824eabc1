// Package playback drives the playback SDK session and mirrors it into the dashboard.
package playback

// Phase represents the player lifecycle phase.
type Phase int

const (
	PhaseUninitialized   Phase = iota // Nothing loaded
	PhaseScriptLoading                // SDK script requested
	PhaseSDKReadyPending              // Script loaded, waiting for the SDK ready callback
	PhaseConnected                    // Player created and connected
	PhaseReady                        // Device registered
	PhaseNotReady                     // Device went offline
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseScriptLoading:
		return "script-loading"
	case PhaseSDKReadyPending:
		return "sdk-ready-pending"
	case PhaseConnected:
		return "connected"
	case PhaseReady:
		return "ready"
	case PhaseNotReady:
		return "not-ready"
	default:
		return "unknown"
	}
}

// RepeatMode is a repeat setting accepted by the control API.
type RepeatMode string

const (
	RepeatTrack   RepeatMode = "track"
	RepeatContext RepeatMode = "context"
	RepeatOff     RepeatMode = "off"
)

// ParseRepeatMode parses s. An empty string yields def.
func ParseRepeatMode(s string, def RepeatMode) (RepeatMode, error) {
	switch RepeatMode(s) {
	case "":
		return def, nil
	case RepeatTrack, RepeatContext, RepeatOff:
		return RepeatMode(s), nil
	default:
		return "", ErrInvalidRepeat
	}
}
