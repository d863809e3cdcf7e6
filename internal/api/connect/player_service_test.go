package connect

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/omxbox/internal/app/notification"
	"github.com/osa030/omxbox/internal/app/playback"
	"github.com/osa030/omxbox/internal/domain/command"
	"github.com/osa030/omxbox/internal/domain/options"
	"github.com/osa030/omxbox/internal/infra/process"
)

type playCall struct {
	videos []string
	opts   options.Options
	loop   bool
}

type fakePlayer struct {
	mu       sync.Mutex
	plays    []playCall
	pauses   int
	stops    int
	sent     []command.Command
	command  string
	native   bool
	status   playback.Status
	playErr  error
	commands int
}

func (p *fakePlayer) Play(_ context.Context, videos []string, opts options.Options, loop bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playErr != nil {
		return p.playErr
	}
	p.plays = append(p.plays, playCall{videos: videos, opts: opts, loop: loop})
	p.status = playback.Status{Videos: videos, Current: videos[0], Options: opts, Playing: true, Loaded: true}
	return nil
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pauses++
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.status = playback.Status{}
}

func (p *fakePlayer) Send(cmd command.Command) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, cmd)
	return nil
}

func (p *fakePlayer) SetCommand(cmd string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands++
	p.command = cmd
	return nil
}

func (p *fakePlayer) EnableNativeLoop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.native = true
}

func (p *fakePlayer) Status() playback.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *fakePlayer) playCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.plays)
}

type fakeLocator struct {
	dir string
	ext string
}

func (l *fakeLocator) SetDirectory(dir string) { l.dir = dir }
func (l *fakeLocator) SetExtension(ext string) { l.ext = ext }
func (l *fakeLocator) Directory() string       { return l.dir }
func (l *fakeLocator) Extension() string       { return l.ext }

type testEnv struct {
	player  *fakePlayer
	locator *fakeLocator
	manager *notification.Manager
	client  *PlayerServiceClient
}

func newTestEnv(t *testing.T, serverToken, clientToken string) *testEnv {
	t.Helper()

	env := &testEnv{player: &fakePlayer{}}
	serve(t, env, env.player, serverToken, clientToken)
	return env
}

// serve starts the RPC service over player and fills in the rest of env.
func serve(t *testing.T, env *testEnv, player Player, serverToken, clientToken string) {
	t.Helper()

	env.locator = &fakeLocator{dir: "/videos"}
	env.manager = notification.NewManager()
	presets := map[string]map[string]any{
		"hdmi": {"-o": "hdmi", "--vol": 2},
	}
	svc := NewPlayerService(player, env.locator, env.manager, presets)
	path, handler := NewPlayerServiceHandler(svc, serverToken)
	require.Equal(t, "/omxbox.v1.PlayerService/", path)

	srv := httptest.NewServer(handler)
	t.Cleanup(func() {
		env.manager.Close()
		srv.Close()
	})
	env.client = NewPlayerServiceClient(srv.Client(), srv.URL, clientToken)
}

type stubHandle struct {
	id     string
	mu     sync.Mutex
	writes []string
	done   chan struct{}
}

func (h *stubHandle) ID() string            { return h.id }
func (h *stubHandle) Done() <-chan struct{} { return h.done }
func (h *stubHandle) Err() error            { return nil }
func (h *stubHandle) StartedAt() time.Time  { return time.Time{} }

func (h *stubHandle) Write(p []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, string(p))
	return nil
}

func (h *stubHandle) Writes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.writes...)
}

type stubLauncher struct {
	mu      sync.Mutex
	handles []*stubHandle
}

func (l *stubLauncher) Launch(_ string, _ []string) (process.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h := &stubHandle{id: fmt.Sprintf("stub-%d", len(l.handles)), done: make(chan struct{})}
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *stubLauncher) Handles() []*stubHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*stubHandle(nil), l.handles...)
}

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, ids []string) ([]string, error) {
	return lo.Map(ids, func(id string, _ int) string { return "/videos/" + id }), nil
}

func TestPlayerService_Play(t *testing.T) {
	tests := []struct {
		name       string
		payload    map[string]any
		wantVideos []string
		wantOpts   options.Options
		wantLoop   bool
	}{
		{
			name:       "single video",
			payload:    map[string]any{"videos": "intro"},
			wantVideos: []string{"intro"},
			wantOpts:   options.Options{},
		},
		{
			name:       "list with loop",
			payload:    map[string]any{"videos": []any{"a", "b"}, "loop": true},
			wantVideos: []string{"a", "b"},
			wantOpts:   options.Options{},
			wantLoop:   true,
		},
		{
			name: "preset overridden by config",
			payload: map[string]any{
				"videos": []any{"a"},
				"preset": "hdmi",
				"config": map[string]any{"--vol": 5, "--no-osd": true},
			},
			wantVideos: []string{"a"},
			wantOpts:   options.Options{"-o": "hdmi", "--vol": float64(5), "--no-osd": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "", "")

			resp, err := env.client.Play(context.Background(), tt.payload)
			require.NoError(t, err)
			assert.Equal(t, true, resp["loaded"])
			assert.Equal(t, tt.wantVideos[0], resp["current"])

			require.Equal(t, 1, env.player.playCount())
			call := env.player.plays[0]
			assert.Equal(t, tt.wantVideos, call.videos)
			assert.Equal(t, tt.wantLoop, call.loop)
			// Preset values keep their Go type, request values arrive as JSON numbers.
			for k, v := range tt.wantOpts {
				assert.EqualValues(t, v, call.opts[k], k)
			}
			assert.Len(t, call.opts, len(tt.wantOpts))
		})
	}
}

func TestPlayerService_PlayInvalidArgument(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"videos is a number", map[string]any{"videos": 42}},
		{"videos list with a number", map[string]any{"videos": []any{"a", 1}}},
		{"config is a string", map[string]any{"videos": "a", "config": "fast"}},
		{"loop is a string", map[string]any{"videos": "a", "loop": "yes"}},
		{"unknown field", map[string]any{"videos": "a", "volume": 3}},
		{"unknown preset", map[string]any{"videos": "a", "preset": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "", "")

			_, err := env.client.Play(context.Background(), tt.payload)
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
			assert.Equal(t, 0, env.player.playCount())
		})
	}
}

func TestPlayerService_ResumeIgnoresPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"videos is a number", map[string]any{"videos": 42}},
		{"config is a string", map[string]any{"config": "x"}},
		{"unknown preset", map[string]any{"preset": "nope"}},
		{"unknown field", map[string]any{"volume": 3}},
		{"no payload", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			launcher := &stubLauncher{}
			ctrl := playback.NewController(playback.Config{}, launcher, stubResolver{}, nil)
			env := &testEnv{}
			serve(t, env, ctrl, "", "")
			ctx := context.Background()

			_, err := env.client.Play(ctx, map[string]any{"videos": "a.mp4"})
			require.NoError(t, err)
			_, err = env.client.Pause(ctx)
			require.NoError(t, err)
			require.False(t, ctrl.IsPlaying())

			resp, err := env.client.Play(ctx, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, true, resp["playing"])
			assert.Equal(t, "/videos/a.mp4", resp["current"])

			assert.True(t, ctrl.IsPlaying())
			handles := launcher.Handles()
			require.Len(t, handles, 1)
			assert.Equal(t, []string{"p", "p"}, handles[0].Writes())

			ctrl.Stop()
			close(handles[0].done)
		})
	}
}

func TestPlayerService_PlayErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code connect.Code
	}{
		{"no videos", playback.ErrNoVideos, connect.CodeInvalidArgument},
		{"invalid options", errors.Mark(errors.New("bad value"), playback.ErrInvalidOptions), connect.CodeInvalidArgument},
		{"nothing playable", errors.Wrap(playback.ErrNoPlayableVideos, "requested 2"), connect.CodeNotFound},
		{"launch failure", errors.New("exec: not found"), connect.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "", "")
			env.player.playErr = tt.err

			_, err := env.client.Play(context.Background(), map[string]any{"videos": "a"})
			require.Error(t, err)
			assert.Equal(t, tt.code, connect.CodeOf(err))
		})
	}
}

func TestPlayerService_StatusIdle(t *testing.T) {
	env := newTestEnv(t, "", "")

	resp, err := env.client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"loaded": false}, resp)
}

func TestPlayerService_PauseStop(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	_, err := env.client.Play(ctx, map[string]any{"videos": "a"})
	require.NoError(t, err)

	_, err = env.client.Pause(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.player.pauses)

	resp, err := env.client.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, env.player.stops)
	assert.Equal(t, map[string]any{"loaded": false}, resp)
}

func TestPlayerService_Send(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	_, err := env.client.Send(ctx, "increase_volume")
	require.NoError(t, err)
	assert.Equal(t, []command.Command{command.IncreaseVolume}, env.player.sent)

	_, err = env.client.Send(ctx, "pause")
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = env.client.call(ctx, env.client.send, map[string]any{"command": 1})
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.Len(t, env.player.sent, 1)
}

func TestPlayerService_Configure(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx := context.Background()

	resp, err := env.client.Configure(ctx, map[string]any{
		"directory":   "/media",
		"extension":   ".mp4",
		"command":     "mpv",
		"native_loop": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/media", resp["directory"])
	assert.Equal(t, ".mp4", resp["extension"])
	assert.Equal(t, "mpv", env.player.command)
	assert.True(t, env.player.native)
}

func TestPlayerService_ConfigureInvalidArgument(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"command is a number", map[string]any{"command": 42, "directory": "/media"}},
		{"directory is a list", map[string]any{"directory": []any{"/media"}}},
		{"empty command", map[string]any{"command": "", "directory": "/media"}},
		{"disable native loop", map[string]any{"native_loop": false, "directory": "/media"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "", "")

			_, err := env.client.Configure(context.Background(), tt.payload)
			require.Error(t, err)
			assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

			// Nothing is applied from a rejected request.
			assert.Equal(t, 0, env.player.commands)
			assert.Equal(t, "/videos", env.locator.dir)
			assert.False(t, env.player.native)
		})
	}
}

func TestPlayerService_AdminToken(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token", func(t *testing.T) {
		env := newTestEnv(t, "secret", "")
		_, err := env.client.Play(ctx, map[string]any{"videos": "a"})
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		assert.Equal(t, 0, env.player.playCount())

		// Status is open.
		_, err = env.client.Status(ctx)
		assert.NoError(t, err)
	})

	t.Run("wrong token", func(t *testing.T) {
		env := newTestEnv(t, "secret", "guess")
		_, err := env.client.Stop(ctx)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("valid token", func(t *testing.T) {
		env := newTestEnv(t, "secret", "secret")
		_, err := env.client.Play(ctx, map[string]any{"videos": "a"})
		assert.NoError(t, err)
	})
}

func TestPlayerService_Subscribe(t *testing.T) {
	env := newTestEnv(t, "", "")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := env.client.Subscribe(ctx)
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive())
	initial := stream.Msg().AsMap()
	assert.Equal(t, "status", initial["type"])
	assert.Equal(t, float64(1), initial["sequence_no"])
	assert.Equal(t, map[string]any{"loaded": false}, initial["status"])

	require.Eventually(t, func() bool { return env.manager.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	env.manager.Publish(playback.Event{
		Type:    playback.EventLoad,
		Videos:  []string{"/videos/a.mp4"},
		Options: options.Options{"--vol": 2},
	})
	env.manager.Publish(playback.Event{Type: playback.EventPlay, Video: "/videos/a.mp4"})
	env.manager.Publish(playback.Event{Type: playback.EventError, Err: errors.New("write failed")})

	require.True(t, stream.Receive())
	load := stream.Msg().AsMap()
	assert.Equal(t, "load", load["type"])
	assert.Equal(t, float64(2), load["sequence_no"])
	assert.Equal(t, []any{"/videos/a.mp4"}, load["videos"])
	assert.Equal(t, map[string]any{"--vol": float64(2)}, load["config"])

	require.True(t, stream.Receive())
	play := stream.Msg().AsMap()
	assert.Equal(t, "play", play["type"])
	assert.Equal(t, "/videos/a.mp4", play["video"])

	require.True(t, stream.Receive())
	failed := stream.Msg().AsMap()
	assert.Equal(t, "error", failed["type"])
	assert.Equal(t, "write failed", failed["error"])
}
