// Package playback supervises the player process: it starts sessions,
// respawns the player across a playlist and forwards control keys.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // No player process owned
	StatePlaying              // Player running
	StatePaused               // Player running, paused
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
