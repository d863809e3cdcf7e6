package connect

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"
)

// PlayerServiceClient is a client for the player service.
type PlayerServiceClient struct {
	play      *connect.Client[structpb.Struct, structpb.Struct]
	pause     *connect.Client[structpb.Struct, structpb.Struct]
	stop      *connect.Client[structpb.Struct, structpb.Struct]
	status    *connect.Client[structpb.Struct, structpb.Struct]
	send      *connect.Client[structpb.Struct, structpb.Struct]
	configure *connect.Client[structpb.Struct, structpb.Struct]
	subscribe *connect.Client[structpb.Struct, structpb.Struct]
	token     string
}

// NewPlayerServiceClient constructs a client for the player service at baseURL.
// token is sent as the admin token when not empty.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL, token string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	newClient := func(procedure string) *connect.Client[structpb.Struct, structpb.Struct] {
		return connect.NewClient[structpb.Struct, structpb.Struct](httpClient, baseURL+procedure, opts...)
	}
	return &PlayerServiceClient{
		play:      newClient(PlayerServicePlayProcedure),
		pause:     newClient(PlayerServicePauseProcedure),
		stop:      newClient(PlayerServiceStopProcedure),
		status:    newClient(PlayerServiceStatusProcedure),
		send:      newClient(PlayerServiceSendProcedure),
		configure: newClient(PlayerServiceConfigureProcedure),
		subscribe: newClient(PlayerServiceSubscribeProcedure),
		token:     token,
	}
}

// Play calls Play with the given payload (videos, config, loop, preset).
func (c *PlayerServiceClient) Play(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return c.call(ctx, c.play, payload)
}

// Pause calls Pause.
func (c *PlayerServiceClient) Pause(ctx context.Context) (map[string]any, error) {
	return c.call(ctx, c.pause, nil)
}

// Stop calls Stop.
func (c *PlayerServiceClient) Stop(ctx context.Context) (map[string]any, error) {
	return c.call(ctx, c.stop, nil)
}

// Status calls Status.
func (c *PlayerServiceClient) Status(ctx context.Context) (map[string]any, error) {
	return c.call(ctx, c.status, nil)
}

// Send calls Send with a command name such as "increase_volume".
func (c *PlayerServiceClient) Send(ctx context.Context, name string) (map[string]any, error) {
	return c.call(ctx, c.send, map[string]any{"command": name})
}

// Configure calls Configure with the given payload.
func (c *PlayerServiceClient) Configure(ctx context.Context, payload map[string]any) (map[string]any, error) {
	return c.call(ctx, c.configure, payload)
}

// Subscribe opens the notification stream.
func (c *PlayerServiceClient) Subscribe(ctx context.Context) (*connect.ServerStreamForClient[structpb.Struct], error) {
	req := connect.NewRequest(&structpb.Struct{})
	c.authorize(req)
	return c.subscribe.CallServerStream(ctx, req)
}

func (c *PlayerServiceClient) call(
	ctx context.Context,
	client *connect.Client[structpb.Struct, structpb.Struct],
	payload map[string]any,
) (map[string]any, error) {
	msg, err := newStruct(payload)
	if err != nil {
		return nil, err
	}
	req := connect.NewRequest(msg)
	c.authorize(req)

	resp, err := client.CallUnary(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Msg.AsMap(), nil
}

func (c *PlayerServiceClient) authorize(req connect.AnyRequest) {
	if c.token != "" {
		req.Header().Set(AdminTokenHeader, c.token)
	}
}
