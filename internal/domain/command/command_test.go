package command

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommand_Bytes(t *testing.T) {
	tests := []struct {
		cmd      Command
		expected []byte
	}{
		{DecreaseSpeed, []byte("1")},
		{IncreaseSpeed, []byte("2")},
		{ToggleSubtitles, []byte("s")},
		{IncreaseVolume, []byte("+")},
		{DecreaseVolume, []byte("-")},
		{SeekForward, []byte{0x5b, 0x43}},
		{SeekBackward, []byte{0x5b, 0x44}},
		{SeekFastForward, []byte{0x5b, 0x41}},
		{SeekFastBackward, []byte{0x5b, 0x42}},
		{Pause, []byte("p")},
		{Quit, []byte("q")},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cmd.Bytes())
		})
	}

	assert.Nil(t, Command("nope").Bytes())
}

func TestParse(t *testing.T) {
	c, err := Parse("next_chapter")
	require.NoError(t, err)
	assert.Equal(t, NextChapter, c)

	_, err = Parse("pause")
	assert.True(t, errors.Is(err, ErrUnknownCommand), "pause is not a passthrough")

	_, err = Parse("rewind")
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestAll(t *testing.T) {
	all := All()
	assert.Len(t, all, 17)
	assert.NotContains(t, all, Pause)
	assert.NotContains(t, all, Quit)
	for i := 1; i < len(all); i++ {
		assert.Less(t, string(all[i-1]), string(all[i]))
	}
}
