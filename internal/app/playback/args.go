package playback

import (
	"github.com/osa030/omxbox/internal/domain/options"
)

// BuildArgs produces the player arguments for a session.
//
// Options with a falsy value are skipped. Keys are emitted in lexicographic
// order, each followed by its value when it is a string or a number. The loop
// flag only reaches the player when it can loop natively, or when a single
// video plays without software looping; otherwise looping is emulated by
// respawning and the flag must stay out.
//
// Targets come last: the whole playlist when the player loops natively,
// the first video otherwise. The controller replaces that last token on
// every respawn.
func BuildArgs(opts options.Options, videos []string, loop, nativeLoop bool) []string {
	args := make([]string, 0, len(opts)*2+len(videos))

	for _, key := range opts.Keys() {
		val := opts[key]
		if !options.IsTruthy(val) {
			continue
		}

		if key == options.LoopFlag {
			if nativeLoop || (len(videos) == 1 && !loop) {
				args = append(args, key)
			}
			continue
		}

		args = append(args, key)
		if token, ok := options.FormatValue(val); ok {
			args = append(args, token)
		}
	}

	if nativeLoop {
		args = append(args, videos...)
	} else if len(videos) > 0 {
		args = append(args, videos[0])
	}

	return args
}
