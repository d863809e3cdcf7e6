package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/omxbox/internal/domain/command"
	"github.com/osa030/omxbox/internal/domain/options"
	"github.com/osa030/omxbox/internal/domain/playlist"
	"github.com/osa030/omxbox/internal/infra/metrics"
	"github.com/osa030/omxbox/internal/infra/process"
)

// DefaultCommand is the player executable used when none is configured.
const DefaultCommand = "omxplayer"

// Errors
var (
	ErrNoVideos         = errors.New("videos cannot be empty")
	ErrEmptyVideo       = errors.New("video cannot be an empty string")
	ErrInvalidOptions   = errors.New("invalid options")
	ErrNoPlayableVideos = errors.New("no playable video found")
	ErrEmptyCommand     = errors.New("player command cannot be empty")
	ErrCrashLoop        = errors.New("player keeps exiting right after start")
)

// Resolver turns requested video identifiers into existing absolute paths.
type Resolver interface {
	Resolve(ctx context.Context, videos []string) ([]string, error)
}

// Config holds controller configuration.
type Config struct {
	Command           string        // Player executable
	NativeLoop        bool          // Player supports looping a multi-item playlist itself
	MinUptime         time.Duration // Failed exits sooner than this count as rapid (0 disables the guard)
	CrashLimit        int           // Consecutive rapid exits before respawning stops (0 disables the guard)
	ReportWriteErrors bool          // Emit EventError when a stdin write fails
}

// Controller supervises at most one player process and the session around it.
type Controller struct {
	mu sync.Mutex

	launcher  process.Launcher
	resolver  Resolver
	publisher Publisher
	config    Config

	// Session state, set while loaded
	playlist *playlist.Playlist
	options  options.Options
	current  string
	args     []string
	policy   Policy
	handle   process.Handle
	paused   bool
	looper   *Looper

	// Consecutive exits below MinUptime
	rapidExits int
}

// NewController creates a new playback controller.
func NewController(config Config, launcher process.Launcher, resolver Resolver, publisher Publisher) *Controller {
	if config.Command == "" {
		config.Command = DefaultCommand
	}
	if publisher == nil {
		publisher = PublisherFunc(func(Event) {})
	}
	return &Controller{
		launcher:  launcher,
		resolver:  resolver,
		publisher: publisher,
		config:    config,
	}
}

// Play starts a session with videos, or resumes the current one.
//
// While a paused session is loaded, Play resumes it and ignores its arguments.
// While a session is playing, Play does nothing. Otherwise videos are resolved,
// the player is launched on the first one and "load" then "play" are emitted.
func (c *Controller) Play(ctx context.Context, videos []string, opts options.Options, loop bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		if c.paused {
			c.sendLocked(command.Pause)
			c.paused = false
			c.publishLocked(Event{Type: EventPlay, Video: c.current})
		}
		return nil
	}

	if len(videos) == 0 {
		return ErrNoVideos
	}
	for i, v := range videos {
		if v == "" {
			return errors.Wrapf(ErrEmptyVideo, "index %d", i)
		}
	}
	if opts == nil {
		opts = options.Options{}
	} else {
		opts = opts.Clone()
	}
	if err := opts.Validate(); err != nil {
		return errors.Mark(err, ErrInvalidOptions)
	}

	resolved, err := c.resolver.Resolve(ctx, videos)
	if err != nil {
		return errors.Wrap(err, "failed to resolve videos")
	}
	if len(resolved) == 0 {
		return errors.Wrapf(ErrNoPlayableVideos, "requested %d", len(videos))
	}

	pl := playlist.New(resolved)
	policy := ResolvePolicy(c.config.NativeLoop, pl.Len(), loop)
	args := BuildArgs(opts, resolved, loop, c.config.NativeLoop)

	var looper *Looper
	if policy.UsesLooper() {
		looper = NewLooper(resolved, policy == PolicySoftwareLoop)
		// The first video is spawned below, move the looper past it.
		looper.Next()
	}

	h, err := c.launcher.Launch(c.config.Command, args)
	if err != nil {
		return errors.Wrap(err, "failed to launch player")
	}

	c.playlist = pl
	c.options = opts
	c.current = pl.First()
	c.args = args
	c.policy = policy
	c.looper = looper
	c.paused = false
	c.rapidExits = 0
	c.attachLocked(h)

	zlog.Info().Msgf("playback: session loaded: videos=%d policy=%s current=%s", pl.Len(), policy, c.current)

	c.publishLocked(Event{Type: EventLoad, Videos: pl.Items(), Options: opts.Clone()})
	c.publishLocked(Event{Type: EventPlay, Video: c.current})

	return nil
}

// Pause pauses the current video. It does nothing when idle or already paused.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil || c.paused {
		return
	}

	c.sendLocked(command.Pause)
	c.paused = true
	c.publishLocked(Event{Type: EventPause})
}

// Stop quits the player and ends the session without waiting for the process to exit.
// The exit of the discarded process is ignored when it arrives.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return
	}

	c.sendLocked(command.Quit)
	zlog.Info().Msgf("playback: session stopped: current=%s", c.current)
	c.clearLocked()

	c.publishLocked(Event{Type: EventStop})
	c.publishLocked(Event{Type: EventEnd})
}

// Send writes a passthrough command to the player. It does nothing when idle.
func (c *Controller) Send(cmd command.Command) error {
	if !cmd.IsPassthrough() {
		return errors.Wrapf(command.ErrUnknownCommand, "%q", cmd)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return nil
	}
	c.sendLocked(cmd)
	return nil
}

// SetCommand sets the player executable for future sessions.
func (c *Controller) SetCommand(cmd string) error {
	if cmd == "" {
		return ErrEmptyCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.Command = cmd
	return nil
}

// EnableNativeLoop marks the player as able to loop multi-item playlists.
// It cannot be turned off again.
func (c *Controller) EnableNativeLoop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config.NativeLoop = true
}

// IsPlaying returns true if a player is running and not paused.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil && !c.paused
}

// IsLoaded returns true if a player process is owned.
func (c *Controller) IsLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.handle == nil:
		return StateIdle
	case c.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// Policy returns the loop policy of the loaded session, PolicyNone when idle.
func (c *Controller) Policy() Policy {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle == nil {
		return PolicyNone
	}
	return c.policy
}

// Status returns a snapshot of the session.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil {
		return Status{}
	}
	return Status{
		Videos:  c.playlist.Items(),
		Current: c.current,
		Options: c.options.Clone(),
		Playing: !c.paused,
		Loaded:  true,
	}
}

// Close stops any running session.
func (c *Controller) Close() {
	c.Stop()
}

func (c *Controller) attachLocked(h process.Handle) {
	c.handle = h
	metrics.Spawns.Inc()
	metrics.Loaded.Set(1)

	go c.watch(h)
}

func (c *Controller) watch(h process.Handle) {
	<-h.Done()
	c.onExit(h)
}

// onExit is called once for every spawned process when it exits.
func (c *Controller) onExit(h process.Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle == nil || c.handle.ID() != h.ID() {
		zlog.Debug().Msgf("playback: ignoring exit of discarded process: id=%s", h.ID())
		metrics.Exits.WithLabelValues("stale").Inc()
		return
	}

	uptime := time.Since(h.StartedAt())
	zlog.Debug().Msgf("playback: process exited: id=%s video=%s uptime=%v", h.ID(), c.current, uptime)

	if c.looper == nil {
		c.clearLocked()
		metrics.Exits.WithLabelValues("end").Inc()
		c.publishLocked(Event{Type: EventStop})
		c.publishLocked(Event{Type: EventEnd})
		return
	}

	c.publishLocked(Event{Type: EventStop})

	if c.rapidExitLocked(uptime, h.Err()) {
		zlog.Error().Msgf("playback: giving up after %d rapid exits: video=%s", c.rapidExits, c.current)
		c.clearLocked()
		metrics.Exits.WithLabelValues("crash_loop").Inc()
		c.publishLocked(Event{Type: EventError, Err: ErrCrashLoop})
		c.publishLocked(Event{Type: EventEnd})
		return
	}

	next, ok := c.looper.Next()
	if !ok {
		zlog.Info().Msg("playback: playlist finished")
		c.clearLocked()
		metrics.Exits.WithLabelValues("end").Inc()
		c.publishLocked(Event{Type: EventEnd})
		return
	}

	c.args[len(c.args)-1] = next
	nh, err := c.launcher.Launch(c.config.Command, c.args)
	if err != nil {
		zlog.Error().Err(err).Msgf("playback: respawn failed: video=%s", next)
		c.clearLocked()
		metrics.Exits.WithLabelValues("respawn_failed").Inc()
		c.publishLocked(Event{Type: EventError, Err: errors.Wrap(err, "failed to respawn player")})
		c.publishLocked(Event{Type: EventEnd})
		return
	}

	metrics.Exits.WithLabelValues("respawn").Inc()
	c.current = next
	c.paused = false
	c.attachLocked(nh)
	c.publishLocked(Event{Type: EventPlay, Video: next})
}

// rapidExitLocked records how an exited process ended and reports whether
// the crash limit has been reached. Only failed exits shorter than MinUptime
// count; a clean exit resets the streak so short clips play through.
func (c *Controller) rapidExitLocked(uptime time.Duration, exitErr error) bool {
	if c.config.MinUptime <= 0 || c.config.CrashLimit <= 0 {
		return false
	}
	if exitErr == nil || uptime >= c.config.MinUptime {
		c.rapidExits = 0
		return false
	}

	c.rapidExits++
	metrics.RapidExits.Inc()
	zlog.Warn().Err(exitErr).Msgf("playback: process failed after %v (%d/%d)", uptime, c.rapidExits, c.config.CrashLimit)
	return c.rapidExits >= c.config.CrashLimit
}

// sendLocked writes the command keys to the owned process.
// Write failures never propagate to the caller.
func (c *Controller) sendLocked(cmd command.Command) {
	if c.handle == nil {
		return
	}

	if err := c.handle.Write(cmd.Bytes()); err != nil {
		metrics.WriteFailures.Inc()
		zlog.Warn().Err(err).Msgf("playback: failed to send %s", cmd)
		if c.config.ReportWriteErrors {
			c.publishLocked(Event{Type: EventError, Err: errors.Wrapf(err, "failed to send %s", cmd)})
		}
		return
	}
	metrics.ControlWrites.WithLabelValues(cmd.String()).Inc()
}

func (c *Controller) clearLocked() {
	c.handle = nil
	c.looper = nil
	c.paused = false
	c.playlist = nil
	c.options = nil
	c.current = ""
	c.args = nil
	c.policy = PolicyNone
	c.rapidExits = 0
	metrics.Loaded.Set(0)
}

func (c *Controller) publishLocked(e Event) {
	c.publisher.Publish(e)
}
