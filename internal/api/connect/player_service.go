package connect

import (
	"context"
	"sync"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/omxbox/internal/app/notification"
	"github.com/osa030/omxbox/internal/app/playback"
	"github.com/osa030/omxbox/internal/domain/command"
	"github.com/osa030/omxbox/internal/domain/options"
)

// Player is the playback surface exposed over RPC.
type Player interface {
	Play(ctx context.Context, videos []string, opts options.Options, loop bool) error
	Pause()
	Stop()
	Send(cmd command.Command) error
	SetCommand(cmd string) error
	EnableNativeLoop()
	Status() playback.Status
}

// Locator is the configurable part of the video resolver.
type Locator interface {
	SetDirectory(dir string)
	SetExtension(ext string)
	Directory() string
	Extension() string
}

// Notifier fans playback notifications out to subscribers.
type Notifier interface {
	NextSequenceNo() uint64
	Subscribe(stream notification.Stream) string
	Unsubscribe(subscriptionID string)
	Done() <-chan struct{}
}

// PlayerService implements the player RPC service.
type PlayerService struct {
	player   Player
	locator  Locator
	notifier Notifier
	presets  map[string]map[string]any
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(player Player, locator Locator, notifier Notifier, presets map[string]map[string]any) *PlayerService {
	return &PlayerService{
		player:   player,
		locator:  locator,
		notifier: notifier,
		presets:  presets,
	}
}

// Play starts a session, or resumes a paused one.
// While a session is loaded the payload is ignored, exactly as the controller does.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	if s.player.Status().Loaded {
		if err := s.player.Play(ctx, nil, nil, false); err != nil {
			return nil, toConnectError(err)
		}
		return s.statusResponse()
	}

	var in playRequest
	if err := decodeRequest(req.Msg, &in); err != nil {
		return nil, toConnectError(err)
	}
	videos, err := in.videoList()
	if err != nil {
		return nil, toConnectError(err)
	}
	opts, err := s.sessionOptions(in.Preset, in.Config)
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.player.Play(ctx, videos, opts, in.Loop); err != nil {
		zlog.Warn().Err(err).Msg("api: play failed")
		return nil, toConnectError(err)
	}
	return s.statusResponse()
}

// Pause pauses the session.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	s.player.Pause()
	return s.statusResponse()
}

// Stop ends the session.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	s.player.Stop()
	return s.statusResponse()
}

// Status returns the current session status.
func (s *PlayerService) Status(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	return s.statusResponse()
}

// Send forwards a control command to the player.
func (s *PlayerService) Send(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var in sendRequest
	if err := decodeRequest(req.Msg, &in); err != nil {
		return nil, toConnectError(err)
	}
	cmd, err := command.Parse(in.Command)
	if err != nil {
		return nil, toConnectError(err)
	}
	if err := s.player.Send(cmd); err != nil {
		return nil, toConnectError(err)
	}
	return s.statusResponse()
}

// Configure changes the player command, the videos location and the native loop flag.
// Nothing is applied unless the whole request is valid.
func (s *PlayerService) Configure(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
) (*connect.Response[structpb.Struct], error) {
	var in configureRequest
	if err := decodeRequest(req.Msg, &in); err != nil {
		return nil, toConnectError(err)
	}
	if in.Command != nil && *in.Command == "" {
		return nil, toConnectError(playback.ErrEmptyCommand)
	}
	if in.NativeLoop != nil && !*in.NativeLoop {
		return nil, toConnectError(ErrNativeLoopPermanent)
	}

	if in.Command != nil {
		if err := s.player.SetCommand(*in.Command); err != nil {
			return nil, toConnectError(err)
		}
	}
	if in.Directory != nil {
		s.locator.SetDirectory(*in.Directory)
	}
	if in.Extension != nil {
		s.locator.SetExtension(*in.Extension)
	}
	if in.NativeLoop != nil {
		s.player.EnableNativeLoop()
	}

	zlog.Info().Msgf("api: configured: directory=%s extension=%q", s.locator.Directory(), s.locator.Extension())

	msg, err := newStruct(map[string]any{
		"directory": s.locator.Directory(),
		"extension": s.locator.Extension(),
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// Subscribe streams the current status followed by playback notifications.
// The subscription is registered before the status is read and notifications
// are held back until the initial frame is sent, so none is lost in between.
func (s *PlayerService) Subscribe(
	ctx context.Context,
	req *connect.Request[structpb.Struct],
	stream *connect.ServerStream[structpb.Struct],
) error {
	adapter := &notificationStreamAdapter{stream: stream}

	adapter.mu.Lock()
	subscriptionID := s.notifier.Subscribe(adapter)
	err := s.sendInitial(stream)
	adapter.mu.Unlock()

	if err == nil {
		select {
		case <-ctx.Done():
		case <-s.notifier.Done():
		}
	}

	s.notifier.Unsubscribe(subscriptionID)
	adapter.close()

	return err
}

// sendInitial sends the current status stamped with the next sequence number.
func (s *PlayerService) sendInitial(stream *connect.ServerStream[structpb.Struct]) error {
	sequenceNo := s.notifier.NextSequenceNo()
	status, err := statusMessage(s.player.Status())
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	initial, err := newStruct(map[string]any{
		"type":        "status",
		"sequence_no": sequenceNo,
		"status":      status.AsMap(),
	})
	if err != nil {
		return connect.NewError(connect.CodeInternal, err)
	}
	return stream.Send(initial)
}

// sessionOptions merges a preset with the request options. Request options win.
func (s *PlayerService) sessionOptions(preset string, cfg map[string]any) (options.Options, error) {
	opts := options.Options{}
	if preset != "" {
		p, ok := s.presets[preset]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownPreset, "%q", preset)
		}
		for k, v := range p {
			opts[k] = v
		}
	}
	for k, v := range cfg {
		opts[k] = v
	}
	return opts, nil
}

func (s *PlayerService) statusResponse() (*connect.Response[structpb.Struct], error) {
	msg, err := statusMessage(s.player.Status())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(msg), nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Sends are serialised and dropped once the RPC has returned.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[structpb.Struct]
	closed bool
}

func (a *notificationStreamAdapter) Send(n notification.Notification) error {
	msg, err := notificationMessage(n)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return errors.New("stream closed")
	}
	return a.stream.Send(msg)
}

func (a *notificationStreamAdapter) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}
