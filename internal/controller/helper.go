package controller

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/listenroom/server/internal/service/room"
)

func (c controller) generateTimeBasedId() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

func (c controller) writeToConn(ctx context.Context, conn *websocket.Conn, output *Output) error {
	if conn == nil {
		return nil
	}

	return conn.WriteJSON(output)
}

func (c controller) broadcast(ctx context.Context, conns []*websocket.Conn, output *Output) error {
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, output); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "error", err)
		}
	}

	return nil
}

// expected service rejections become ERROR messages to the sender; anything
// else bubbles up as a real error
func (c controller) handleServiceError(ctx context.Context, conn *websocket.Conn, err error) error {
	for _, known := range []error{
		room.ErrRoomNotFound,
		room.ErrWrongPassword,
		room.ErrBanned,
		room.ErrPermissionDenied,
		room.ErrMemberNotFound,
		room.ErrTrackNotFound,
		room.ErrNoHost,
		room.ErrQueueLimitReached,
		room.ErrMembersLimitReached,
		room.ErrResolve,
		room.ErrValidation,
	} {
		if errors.Is(err, known) {
			return c.writeToConn(ctx, conn, &Output{
				Type:    "ERROR",
				Payload: map[string]any{"message": known.Error()},
			})
		}
	}

	return err
}

func (c controller) disconnect(ctx context.Context, memberId, roomId string) {
	resp, err := c.roomService.DisconnectMember(ctx, &room.DisconnectMemberParams{
		MemberId: memberId,
		RoomId:   roomId,
	})
	if err != nil {
		c.logger.DebugContext(ctx, "failed to disconnect member", "error", err)
		return
	}

	if resp.RoomState != nil {
		if err := c.broadcast(ctx, resp.Conns, &Output{
			Type:    "ROOM_STATE",
			Payload: resp.RoomState,
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to broadcast room state", "error", err)
		}
	}
}
