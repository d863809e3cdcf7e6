package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/osa030/omxbox/internal/app/notification"
	"github.com/osa030/omxbox/internal/app/playback"
	"github.com/osa030/omxbox/internal/app/resolve"
	"github.com/osa030/omxbox/internal/domain/command"
	"github.com/osa030/omxbox/internal/domain/options"
)

// Errors
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrUnknownPreset        = errors.New("unknown preset")
	ErrNativeLoopPermanent  = errors.New("native loop cannot be disabled")
	errUnsupportedVideoType = errors.New("videos must be a string or a list of strings")
)

// playRequest is the payload of Play.
type playRequest struct {
	Videos any            `mapstructure:"videos"`
	Config map[string]any `mapstructure:"config"`
	Loop   bool           `mapstructure:"loop"`
	Preset string         `mapstructure:"preset"`
}

// videoList accepts a single identifier or a list of identifiers.
// An absent field yields nil so that a loaded session can be resumed.
func (r playRequest) videoList() ([]string, error) {
	switch v := r.Videos.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.Mark(errors.Wrapf(errUnsupportedVideoType, "videos[%d] is %T", i, item), ErrInvalidRequest)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.Mark(errors.Wrapf(errUnsupportedVideoType, "got %T", v), ErrInvalidRequest)
	}
}

// sendRequest is the payload of Send.
type sendRequest struct {
	Command string `mapstructure:"command"`
}

// configureRequest is the payload of Configure. Absent fields are left unchanged.
type configureRequest struct {
	Directory  *string `mapstructure:"directory"`
	Extension  *string `mapstructure:"extension"`
	Command    *string `mapstructure:"command"`
	NativeLoop *bool   `mapstructure:"native_loop"`
}

// decodeRequest decodes a dynamic message into out without weak typing.
// Unknown fields are rejected.
func decodeRequest(msg *structpb.Struct, out any) error {
	var raw map[string]any
	if msg != nil {
		raw = msg.AsMap()
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := dec.Decode(raw); err != nil {
		return errors.Mark(errors.Wrap(err, "failed to decode request"), ErrInvalidRequest)
	}
	return nil
}

// newStruct builds a dynamic message from Go values.
func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(normalizeMap(m))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode message")
	}
	return s, nil
}

// normalize converts values into shapes structpb accepts.
func normalize(v any) any {
	switch t := v.(type) {
	case []string:
		return lo.ToAnySlice(t)
	case options.Options:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case []any:
		return lo.Map(t, func(item any, _ int) any { return normalize(item) })
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// statusMessage encodes a playback status.
func statusMessage(st playback.Status) (*structpb.Struct, error) {
	m, err := st.Map()
	if err != nil {
		return nil, err
	}
	return newStruct(m)
}

// notificationMessage encodes a notification for subscribers.
func notificationMessage(n notification.Notification) (*structpb.Struct, error) {
	m := map[string]any{
		"type":        n.Event.Type.String(),
		"sequence_no": n.SequenceNo,
	}
	switch n.Event.Type {
	case playback.EventLoad:
		m["videos"] = n.Event.Videos
		m["config"] = n.Event.Options
	case playback.EventPlay:
		m["video"] = n.Event.Video
	case playback.EventError:
		if n.Event.Err != nil {
			m["error"] = n.Event.Err.Error()
		}
	}
	return newStruct(m)
}

// toConnectError maps domain errors to Connect codes.
func toConnectError(err error) error {
	switch {
	case errors.IsAny(err,
		ErrInvalidRequest, ErrUnknownPreset, ErrNativeLoopPermanent,
		playback.ErrNoVideos, playback.ErrEmptyVideo, playback.ErrInvalidOptions,
		playback.ErrEmptyCommand, command.ErrUnknownCommand):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.IsAny(err, playback.ErrNoPlayableVideos, resolve.ErrVideoNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
