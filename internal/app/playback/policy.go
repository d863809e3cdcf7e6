package playback

// Policy decides how a playlist keeps playing after the first item ends.
type Policy int

const (
	PolicyNone            Policy = iota // Single video, played once by the player itself
	PolicyNative                        // Player loops the whole playlist on its own
	PolicySoftwareLoop                  // Respawn on every exit, cycling forever
	PolicySoftwareOnePass               // Respawn on every exit until the playlist is exhausted
)

// ResolvePolicy picks the policy for a session.
// nativeLoop: the player handles multi-item playlists and looping natively
// count: number of resolved videos
// loop: the caller asked for looping
func ResolvePolicy(nativeLoop bool, count int, loop bool) Policy {
	switch {
	case nativeLoop:
		return PolicyNative
	case loop:
		return PolicySoftwareLoop
	case count > 1:
		return PolicySoftwareOnePass
	default:
		return PolicyNone
	}
}

// UsesLooper returns true if the policy is driven by respawning.
func (p Policy) UsesLooper() bool {
	return p == PolicySoftwareLoop || p == PolicySoftwareOnePass
}

// String returns the string representation of the policy.
func (p Policy) String() string {
	switch p {
	case PolicyNone:
		return "none"
	case PolicyNative:
		return "native"
	case PolicySoftwareLoop:
		return "software_loop"
	case PolicySoftwareOnePass:
		return "software_one_pass"
	default:
		return "unknown"
	}
}
