// Package command provides the player control commands and the keys they map to.
package command

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrUnknownCommand is returned by Parse for names outside the command table.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a named control command understood by the player.
type Command string

const (
	DecreaseSpeed          Command = "decrease_speed"
	IncreaseSpeed          Command = "increase_speed"
	PreviousAudioStream    Command = "previous_audio_stream"
	NextAudioStream        Command = "next_audio_stream"
	PreviousChapter        Command = "previous_chapter"
	NextChapter            Command = "next_chapter"
	PreviousSubtitleStream Command = "previous_subtitle_stream"
	NextSubtitleStream     Command = "next_subtitle_stream"
	ToggleSubtitles        Command = "toggle_subtitles"
	IncreaseSubtitleDelay  Command = "increase_subtitle_delay"
	DecreaseSubtitleDelay  Command = "decrease_subtitle_delay"
	IncreaseVolume         Command = "increase_volume"
	DecreaseVolume         Command = "decrease_volume"
	SeekForward            Command = "seek_forward"
	SeekBackward           Command = "seek_backward"
	SeekFastForward        Command = "seek_fast_forward"
	SeekFastBackward       Command = "seek_fast_backward"

	// Pause toggles pause/resume. It is driven by the playback controller
	// and is not exposed as a passthrough.
	Pause Command = "pause"
	// Quit asks the player to exit.
	Quit Command = "quit"
)

// keys maps each command to the literal bytes written to the player's stdin.
// The seek keys are the arrow-key sequences without the leading escape byte,
// which is what omxplayer reacts to when reading a pipe.
var keys = map[Command]string{
	DecreaseSpeed:          "1",
	IncreaseSpeed:          "2",
	PreviousAudioStream:    "j",
	NextAudioStream:        "k",
	PreviousChapter:        "i",
	NextChapter:            "o",
	PreviousSubtitleStream: "n",
	NextSubtitleStream:     "m",
	ToggleSubtitles:        "s",
	IncreaseSubtitleDelay:  "d",
	DecreaseSubtitleDelay:  "f",
	IncreaseVolume:         "+",
	DecreaseVolume:         "-",
	SeekForward:            "\x5b\x43",
	SeekBackward:           "\x5b\x44",
	SeekFastForward:        "\x5b\x41",
	SeekFastBackward:       "\x5b\x42",
	Pause:                  "p",
	Quit:                   "q",
}

var descriptions = map[Command]string{
	DecreaseSpeed:          "Decrease playback speed",
	IncreaseSpeed:          "Increase playback speed",
	PreviousAudioStream:    "Switch to the previous audio stream",
	NextAudioStream:        "Switch to the next audio stream",
	PreviousChapter:        "Jump to the previous chapter",
	NextChapter:            "Jump to the next chapter",
	PreviousSubtitleStream: "Switch to the previous subtitle stream",
	NextSubtitleStream:     "Switch to the next subtitle stream",
	ToggleSubtitles:        "Toggle subtitles",
	IncreaseSubtitleDelay:  "Increase subtitle delay",
	DecreaseSubtitleDelay:  "Decrease subtitle delay",
	IncreaseVolume:         "Increase volume",
	DecreaseVolume:         "Decrease volume",
	SeekForward:            "Seek +30 s",
	SeekBackward:           "Seek -30 s",
	SeekFastForward:        "Seek +600 s",
	SeekFastBackward:       "Seek -600 s",
}

// Bytes returns the key sequence for the command, or nil if unknown.
func (c Command) Bytes() []byte {
	k, ok := keys[c]
	if !ok {
		return nil
	}
	return []byte(k)
}

// Description returns a human-readable description of a passthrough command.
func (c Command) Description() string {
	return descriptions[c]
}

// IsPassthrough reports whether the command may be sent directly by callers.
// Pause and quit change session state and go through the controller instead.
func (c Command) IsPassthrough() bool {
	_, ok := descriptions[c]
	return ok
}

// String returns the command name.
func (c Command) String() string {
	return string(c)
}

// Parse returns the passthrough command with the given name.
func Parse(name string) (Command, error) {
	c := Command(name)
	if !c.IsPassthrough() {
		return "", errors.Wrapf(ErrUnknownCommand, "%q", name)
	}
	return c, nil
}

// All returns every passthrough command sorted by name.
func All() []Command {
	cmds := make([]Command, 0, len(descriptions))
	for c := range descriptions {
		cmds = append(cmds, c)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i] < cmds[j] })
	return cmds
}
