package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/listenroom/server/internal/domain"
	"github.com/listenroom/server/internal/service/room"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type EmptyInput struct{}

func serverTime() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

func (c controller) handleAlive(ctx context.Context, conn *websocket.Conn, _ EmptyInput) error {
	err := c.roomService.Alive(ctx, &room.AliveParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	return nil
}

type AddTrackInput struct {
	URL string `json:"url"`
}

func (c controller) handleAddTrack(ctx context.Context, conn *websocket.Conn, input AddTrackInput) error {
	// resolving the url takes a while, tell the sender we are on it
	if err := c.writeToConn(ctx, conn, &Output{
		Type:    "NOTIFICATION",
		Payload: map[string]any{"message": "Processing URL..."},
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	addTrackResp, err := c.roomService.AddTrack(ctx, &room.AddTrackParams{
		URL:      input.URL,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, addTrackResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"added_track": addTrackResp.AddedTrack,
			"queue":       addTrackResp.Queue,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	if addTrackResp.Player != nil {
		if err := c.broadcast(ctx, addTrackResp.Conns, &Output{
			Type: "PLAYER_UPDATED",
			Payload: map[string]any{
				"player":      addTrackResp.Player,
				"server_time": serverTime(),
			},
		}); err != nil {
			return fmt.Errorf("failed to broadcast player updated: %w", err)
		}
	}

	return nil
}

type RemoveTrackInput struct {
	TrackId string `json:"track_id"`
}

func (c controller) handleRemoveTrack(ctx context.Context, conn *websocket.Conn, input RemoveTrackInput) error {
	removeTrackResp, err := c.roomService.RemoveTrack(ctx, &room.RemoveTrackParams{
		TrackId:  input.TrackId,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, removeTrackResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"removed_track_id": input.TrackId,
			"queue":            removeTrackResp.Queue,
			"player":           removeTrackResp.Player,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	return nil
}

type ReorderQueueInput struct {
	TrackIds []string `json:"track_ids"`
}

func (c controller) handleReorderQueue(ctx context.Context, conn *websocket.Conn, input ReorderQueueInput) error {
	reorderQueueResp, err := c.roomService.ReorderQueue(ctx, &room.ReorderQueueParams{
		TrackIds: input.TrackIds,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, reorderQueueResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"queue":               reorderQueueResp.Queue,
			"current_track_index": reorderQueueResp.CurrentTrackIndex,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	return nil
}

func (c controller) handleShuffleQueue(ctx context.Context, conn *websocket.Conn, _ EmptyInput) error {
	shuffleQueueResp, err := c.roomService.ShuffleQueue(ctx, &room.ShuffleQueueParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, shuffleQueueResp.Conns, &Output{
		Type: "QUEUE_UPDATED",
		Payload: map[string]any{
			"queue":               shuffleQueueResp.Queue,
			"current_track_index": shuffleQueueResp.CurrentTrackIndex,
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast queue updated: %w", err)
	}

	return nil
}

type PlayTrackInput struct {
	TrackId string `json:"track_id"`
}

func (c controller) handlePlayTrack(ctx context.Context, conn *websocket.Conn, input PlayTrackInput) error {
	playTrackResp, err := c.roomService.PlayTrack(ctx, &room.PlayTrackParams{
		TrackId:  input.TrackId,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, playTrackResp.Conns, &Output{
		Type: "PLAYER_UPDATED",
		Payload: map[string]any{
			"player":      playTrackResp.Player,
			"server_time": serverTime(),
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast player updated: %w", err)
	}

	return nil
}

type PlayerControlInput struct {
	Action    string  `json:"action"`
	Timestamp float64 `json:"timestamp"`
	Index     *int    `json:"index"`
	LoopMode  string  `json:"loop_mode"`
	Trigger   string  `json:"trigger"`
}

func (c controller) handlePlayerControl(ctx context.Context, conn *websocket.Conn, input PlayerControlInput) error {
	trigger := domain.TriggerManual
	if input.Trigger == "auto" {
		trigger = domain.TriggerAuto
	}

	playerControlResp, err := c.roomService.PlayerControl(ctx, &room.PlayerControlParams{
		Action:    input.Action,
		Timestamp: input.Timestamp,
		Index:     input.Index,
		LoopMode:  input.LoopMode,
		Trigger:   trigger,
		SenderId:  c.getMemberIdFromCtx(ctx),
		RoomId:    c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.broadcast(ctx, playerControlResp.Conns, &Output{
		Type: "PLAYER_UPDATED",
		Payload: map[string]any{
			"player":      playerControlResp.Player,
			"server_time": serverTime(),
		},
	}); err != nil {
		return fmt.Errorf("failed to broadcast player updated: %w", err)
	}

	return nil
}

type HostSyncInput struct {
	Timestamp float64 `json:"timestamp"`
	IsPlaying bool    `json:"is_playing"`
}

func (c controller) handleHostSync(ctx context.Context, conn *websocket.Conn, input HostSyncInput) error {
	hostSyncResp, err := c.roomService.HostSync(ctx, &room.HostSyncParams{
		Timestamp: input.Timestamp,
		IsPlaying: input.IsPlaying,
		SenderId:  c.getMemberIdFromCtx(ctx),
		RoomId:    c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if hostSyncResp.Pulse != nil {
		if err := c.broadcast(ctx, hostSyncResp.PulseConns, &Output{
			Type: "SYNC_PULSE",
			Payload: map[string]any{
				"timestamp":   hostSyncResp.Pulse.Timestamp,
				"is_playing":  hostSyncResp.Pulse.IsPlaying,
				"server_time": serverTime(),
			},
		}); err != nil {
			return fmt.Errorf("failed to broadcast sync pulse: %w", err)
		}
	}

	if err := c.broadcast(ctx, hostSyncResp.ProbeConns, &Output{
		Type:    "PING",
		Payload: nil,
	}); err != nil {
		return fmt.Errorf("failed to broadcast ping: %w", err)
	}

	if hostSyncResp.RoomState != nil {
		if err := c.broadcast(ctx, hostSyncResp.Conns, &Output{
			Type:    "ROOM_STATE",
			Payload: hostSyncResp.RoomState,
		}); err != nil {
			return fmt.Errorf("failed to broadcast room state: %w", err)
		}
	}

	return nil
}

func (c controller) handleRequestSync(ctx context.Context, conn *websocket.Conn, _ EmptyInput) error {
	requestSyncResp, err := c.roomService.RequestSync(ctx, &room.RequestSyncParams{
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.writeToConn(ctx, requestSyncResp.HostConn, &Output{
		Type: "GET_HOST_STATE",
		Payload: map[string]any{
			"requester_id": c.getMemberIdFromCtx(ctx),
		},
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

type HostStateInput struct {
	RequesterId string  `json:"requester_id"`
	Timestamp   float64 `json:"timestamp"`
	IsPlaying   bool    `json:"is_playing"`
}

func (c controller) handleHostState(ctx context.Context, conn *websocket.Conn, input HostStateInput) error {
	hostStateResp, err := c.roomService.HostState(ctx, &room.HostStateParams{
		RequesterId: input.RequesterId,
		Timestamp:   input.Timestamp,
		IsPlaying:   input.IsPlaying,
		SenderId:    c.getMemberIdFromCtx(ctx),
		RoomId:      c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if err := c.writeToConn(ctx, hostStateResp.RequesterConn, &Output{
		Type: "SYNC_TARGET",
		Payload: map[string]any{
			"timestamp":   hostStateResp.Sync.Timestamp,
			"is_playing":  hostStateResp.Sync.IsPlaying,
			"server_time": serverTime(),
		},
	}); err != nil {
		return fmt.Errorf("failed to write to conn: %w", err)
	}

	return nil
}

type KickMemberInput struct {
	MemberId string `json:"member_id"`
}

func (c controller) handleKickMember(ctx context.Context, conn *websocket.Conn, input KickMemberInput) error {
	kickMemberResp, err := c.roomService.KickMember(ctx, &room.KickMemberParams{
		TargetId: input.MemberId,
		SenderId: c.getMemberIdFromCtx(ctx),
		RoomId:   c.getRoomIdFromCtx(ctx),
	})
	if err != nil {
		return c.handleServiceError(ctx, conn, err)
	}

	if kickMemberResp.TargetConn != nil {
		if err := c.writeToConn(ctx, kickMemberResp.TargetConn, &Output{
			Type:    "KICKED",
			Payload: nil,
		}); err != nil {
			c.logger.DebugContext(ctx, "failed to notify kicked member", "error", err)
		}
		kickMemberResp.TargetConn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(4001, "kicked"))
	}

	if err := c.broadcast(ctx, kickMemberResp.Conns, &Output{
		Type:    "ROOM_STATE",
		Payload: kickMemberResp.RoomState,
	}); err != nil {
		return fmt.Errorf("failed to broadcast room state: %w", err)
	}

	return nil
}
