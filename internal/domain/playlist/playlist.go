// Package playlist provides the Playlist domain entity.
package playlist

// Playlist is an ordered, non-empty sequence of resolved video paths.
type Playlist struct {
	items []string
}

// New creates a playlist from resolved paths. The slice is copied.
func New(items []string) *Playlist {
	return &Playlist{items: append([]string(nil), items...)}
}

// Len returns the number of videos.
func (p *Playlist) Len() int {
	return len(p.items)
}

// First returns the first video, or "" for an empty playlist.
func (p *Playlist) First() string {
	if len(p.items) == 0 {
		return ""
	}
	return p.items[0]
}

// Items returns a copy of the videos in order.
func (p *Playlist) Items() []string {
	return append([]string(nil), p.items...)
}
