package connect

import (
	"net/http"

	"connectrpc.com/connect"
)

// PlayerServiceName is the fully-qualified name of the player service.
const PlayerServiceName = "omxbox.v1.PlayerService"

// Procedure paths of the player service.
const (
	PlayerServicePlayProcedure      = "/omxbox.v1.PlayerService/Play"
	PlayerServicePauseProcedure     = "/omxbox.v1.PlayerService/Pause"
	PlayerServiceStopProcedure      = "/omxbox.v1.PlayerService/Stop"
	PlayerServiceStatusProcedure    = "/omxbox.v1.PlayerService/Status"
	PlayerServiceSendProcedure      = "/omxbox.v1.PlayerService/Send"
	PlayerServiceConfigureProcedure = "/omxbox.v1.PlayerService/Configure"
	PlayerServiceSubscribeProcedure = "/omxbox.v1.PlayerService/Subscribe"
)

// NewPlayerServiceHandler builds an HTTP handler that serves the player service.
// Control procedures require the admin token when one is set. Status and
// Subscribe are read-only and open.
func NewPlayerServiceHandler(svc *PlayerService, token string, opts ...connect.HandlerOption) (string, http.Handler) {
	control := append([]connect.HandlerOption{
		connect.WithInterceptors(NewAdminAuthInterceptor(token)),
	}, opts...)

	mux := http.NewServeMux()
	mux.Handle(PlayerServicePlayProcedure, connect.NewUnaryHandler(PlayerServicePlayProcedure, svc.Play, control...))
	mux.Handle(PlayerServicePauseProcedure, connect.NewUnaryHandler(PlayerServicePauseProcedure, svc.Pause, control...))
	mux.Handle(PlayerServiceStopProcedure, connect.NewUnaryHandler(PlayerServiceStopProcedure, svc.Stop, control...))
	mux.Handle(PlayerServiceSendProcedure, connect.NewUnaryHandler(PlayerServiceSendProcedure, svc.Send, control...))
	mux.Handle(PlayerServiceConfigureProcedure, connect.NewUnaryHandler(PlayerServiceConfigureProcedure, svc.Configure, control...))
	mux.Handle(PlayerServiceStatusProcedure, connect.NewUnaryHandler(PlayerServiceStatusProcedure, svc.Status, opts...))
	mux.Handle(PlayerServiceSubscribeProcedure, connect.NewServerStreamHandler(PlayerServiceSubscribeProcedure, svc.Subscribe, opts...))

	return "/" + PlayerServiceName + "/", mux
}
