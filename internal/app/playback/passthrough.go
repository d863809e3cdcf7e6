package playback

import "github.com/osa030/omxbox/internal/domain/command"

// Passthrough commands. Each one is a no-op while idle.

func (c *Controller) DecreaseSpeed()          { _ = c.Send(command.DecreaseSpeed) }
func (c *Controller) IncreaseSpeed()          { _ = c.Send(command.IncreaseSpeed) }
func (c *Controller) PreviousAudioStream()    { _ = c.Send(command.PreviousAudioStream) }
func (c *Controller) NextAudioStream()        { _ = c.Send(command.NextAudioStream) }
func (c *Controller) PreviousChapter()        { _ = c.Send(command.PreviousChapter) }
func (c *Controller) NextChapter()            { _ = c.Send(command.NextChapter) }
func (c *Controller) PreviousSubtitleStream() { _ = c.Send(command.PreviousSubtitleStream) }
func (c *Controller) NextSubtitleStream()     { _ = c.Send(command.NextSubtitleStream) }
func (c *Controller) ToggleSubtitles()        { _ = c.Send(command.ToggleSubtitles) }
func (c *Controller) IncreaseSubtitleDelay()  { _ = c.Send(command.IncreaseSubtitleDelay) }
func (c *Controller) DecreaseSubtitleDelay()  { _ = c.Send(command.DecreaseSubtitleDelay) }
func (c *Controller) IncreaseVolume()         { _ = c.Send(command.IncreaseVolume) }
func (c *Controller) DecreaseVolume()         { _ = c.Send(command.DecreaseVolume) }
func (c *Controller) SeekForward()            { _ = c.Send(command.SeekForward) }
func (c *Controller) SeekBackward()           { _ = c.Send(command.SeekBackward) }
func (c *Controller) SeekFastForward()        { _ = c.Send(command.SeekFastForward) }
func (c *Controller) SeekFastBackward()       { _ = c.Send(command.SeekFastBackward) }
