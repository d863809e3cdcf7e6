package playback

// Looper yields the video to play on the next respawn.
// It is never asked for the first video: the session primes it with one
// Next call right after the initial spawn.
type Looper struct {
	items     []string
	cursor    int
	forever   bool
	exhausted bool
}

// NewLooper creates a looper over items. With forever set it wraps around
// instead of running out.
func NewLooper(items []string, forever bool) *Looper {
	return &Looper{
		items:   append([]string(nil), items...),
		cursor:  -1,
		forever: forever,
	}
}

// Next advances the cursor and returns the video under it.
// Once exhausted it keeps returning false.
func (l *Looper) Next() (string, bool) {
	if l.exhausted || len(l.items) == 0 {
		l.exhausted = true
		return "", false
	}

	l.cursor++
	if l.cursor >= len(l.items) {
		if !l.forever {
			l.exhausted = true
			return "", false
		}
		l.cursor = 0
	}

	return l.items[l.cursor], true
}
