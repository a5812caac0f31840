package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/listenroom/server/internal/service/room"
	"github.com/listenroom/server/pkg/rest"
)

// joinRoom admits the caller to a room and upgrades to a websocket. The
// membership check happens before the upgrade so rejections arrive as plain
// HTTP status codes.
func (c controller) joinRoom(w http.ResponseWriter, r *http.Request) {
	roomId := chi.URLParam(r, "room-id")
	if roomId == "" {
		rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		return
	}

	nickname := r.URL.Query().Get("nickname")
	if nickname == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "nickname is required"})
		return
	}

	joinRoomResponse, err := c.roomService.JoinRoom(r.Context(), &room.JoinRoomParams{
		RoomId:    roomId,
		Nickname:  nickname,
		Password:  r.URL.Query().Get("password"),
		AuthToken: r.URL.Query().Get("auth-token"),
	})
	if err != nil {
		c.logger.DebugContext(r.Context(), "failed to join room", "error", err)
		switch {
		case errors.Is(err, room.ErrRoomNotFound):
			rest.WriteJSON(w, http.StatusNotFound, rest.Envelope{"error": "room not found"})
		case errors.Is(err, room.ErrWrongPassword):
			rest.WriteJSON(w, http.StatusUnauthorized, rest.Envelope{"error": "wrong password"})
		case errors.Is(err, room.ErrBanned):
			rest.WriteJSON(w, http.StatusForbidden, rest.Envelope{"error": "banned from this room"})
		case errors.Is(err, room.ErrMembersLimitReached):
			rest.WriteJSON(w, http.StatusConflict, rest.Envelope{"error": "room is full"})
		default:
			rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal error"})
		}
		return
	}
	defer c.disconnect(r.Context(), joinRoomResponse.MemberId, roomId)

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	if err := c.roomService.ConnectMember(r.Context(), &room.ConnectMemberParams{
		Conn:     conn,
		MemberId: joinRoomResponse.MemberId,
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to connect member", "error", err)
		return
	}

	if err := conn.WriteJSON(&Output{
		Type: "JOINED_ROOM",
		Payload: map[string]any{
			"member_id":  joinRoomResponse.MemberId,
			"auth_token": joinRoomResponse.AuthToken,
			"room_state": joinRoomResponse.RoomState,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to write json", "error", err)
		return
	}

	if err := c.broadcast(r.Context(), joinRoomResponse.Conns, &Output{
		Type: "MEMBER_JOINED",
		Payload: map[string]any{
			"joined_member": joinRoomResponse.JoinedMember,
			"room_state":    joinRoomResponse.RoomState,
		},
	}); err != nil {
		c.logger.WarnContext(r.Context(), "failed to broadcast", "error", err)
		return
	}

	ctx := context.WithValue(r.Context(), roomIdCtxKey, roomId)
	ctx = context.WithValue(ctx, memberIdCtxKey, joinRoomResponse.MemberId)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(r.Context(), "conn closed", "error", err)
		return
	}
}
