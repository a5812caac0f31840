package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/listenroom/server/internal/service/room"
	"github.com/listenroom/server/pkg/validator"
	"github.com/listenroom/server/pkg/wsrouter"
)

type iRoomService interface {
	CreateRoom(context.Context, *room.CreateRoomParams) (room.CreateRoomResponse, error)
	GetRoom(context.Context, string) (room.GetRoomResponse, error)
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	ConnectMember(context.Context, *room.ConnectMemberParams) error
	DisconnectMember(context.Context, *room.DisconnectMemberParams) (room.DisconnectMemberResponse, error)
	KickMember(context.Context, *room.KickMemberParams) (room.KickMemberResponse, error)
	AddTrack(context.Context, *room.AddTrackParams) (room.AddTrackResponse, error)
	RemoveTrack(context.Context, *room.RemoveTrackParams) (room.RemoveTrackResponse, error)
	ReorderQueue(context.Context, *room.ReorderQueueParams) (room.ReorderQueueResponse, error)
	ShuffleQueue(context.Context, *room.ShuffleQueueParams) (room.ShuffleQueueResponse, error)
	PlayTrack(context.Context, *room.PlayTrackParams) (room.PlayTrackResponse, error)
	PlayerControl(context.Context, *room.PlayerControlParams) (room.PlayerControlResponse, error)
	HostSync(context.Context, *room.HostSyncParams) (room.HostSyncResponse, error)
	RequestSync(context.Context, *room.RequestSyncParams) (room.RequestSyncResponse, error)
	HostState(context.Context, *room.HostStateParams) (room.HostStateResponse, error)
	Alive(context.Context, *room.AliveParams) error
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return &c
}
