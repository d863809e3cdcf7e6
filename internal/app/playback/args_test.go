package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/omxbox/internal/domain/options"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name       string
		opts       options.Options
		videos     []string
		loop       bool
		nativeLoop bool
		expected   []string
	}{
		{
			name:     "no options",
			opts:     options.Options{},
			videos:   []string{"/v/a.mp4"},
			expected: []string{"/v/a.mp4"},
		},
		{
			name:     "string, number and flag values",
			opts:     options.Options{"-o": "hdmi", "--vol": -300, "-b": true, "--fps": 2.0},
			videos:   []string{"/v/a.mp4"},
			expected: []string{"--fps", "2", "--vol", "-300", "-b", "-o", "hdmi", "/v/a.mp4"},
		},
		{
			name:     "falsy values are skipped",
			opts:     options.Options{"-b": false, "-o": "", "--vol": 0, "--win": nil, "-r": true},
			videos:   []string{"/v/a.mp4"},
			expected: []string{"-r", "/v/a.mp4"},
		},
		{
			name:     "loop flag kept for a single video without software loop",
			opts:     options.Options{"--loop": true},
			videos:   []string{"/v/a.mp4"},
			loop:     false,
			expected: []string{"--loop", "/v/a.mp4"},
		},
		{
			name:     "loop flag dropped for a single video with software loop",
			opts:     options.Options{"--loop": true},
			videos:   []string{"/v/a.mp4"},
			loop:     true,
			expected: []string{"/v/a.mp4"},
		},
		{
			name:     "loop flag dropped for a playlist without native loop",
			opts:     options.Options{"--loop": true},
			videos:   []string{"/v/a.mp4", "/v/b.mp4"},
			loop:     false,
			expected: []string{"/v/a.mp4"},
		},
		{
			name:     "loop flag carries no value token",
			opts:     options.Options{"--loop": "yes"},
			videos:   []string{"/v/a.mp4"},
			expected: []string{"--loop", "/v/a.mp4"},
		},
		{
			name:       "native loop keeps the flag and appends the whole playlist",
			opts:       options.Options{"--loop": true, "-o": "local"},
			videos:     []string{"/v/a.mp4", "/v/b.mp4"},
			loop:       true,
			nativeLoop: true,
			expected:   []string{"--loop", "-o", "local", "/v/a.mp4", "/v/b.mp4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildArgs(tt.opts, tt.videos, tt.loop, tt.nativeLoop)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestBuildArgs_Deterministic(t *testing.T) {
	opts := options.Options{"-o": "hdmi", "--vol": 3, "-b": true, "--aspect-mode": "fill", "-z": true}
	first := BuildArgs(opts, []string{"/v/a.mp4"}, false, false)

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildArgs(opts, []string{"/v/a.mp4"}, false, false))
	}
}
