package playback

import "github.com/osa030/omxbox/internal/domain/options"

// EventType represents a playback event type.
type EventType int

const (
	EventLoad  EventType = iota // Session loaded a playlist
	EventPlay                   // A video started or resumed
	EventPause                  // Playback paused
	EventStop                   // Player process stopped
	EventEnd                    // Session ended
	EventError                  // Something went wrong while supervising
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventLoad:
		return "load"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventStop:
		return "stop"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	Video   string          // Current video (play)
	Videos  []string        // Resolved playlist (load)
	Options options.Options // Session options (load)
	Err     error           // Cause (error)
}

// Publisher receives events in emission order.
// Publish is called with the controller lock held and must not block
// or call back into the controller.
type Publisher interface {
	Publish(e Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(e Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) {
	f(e)
}
