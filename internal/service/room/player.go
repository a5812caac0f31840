package room

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/listenroom/server/internal/domain"
)

const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionSeek  = "seek"
	ActionLoop  = "loop"
	ActionNext  = "next"
	ActionPrev  = "prev"
)

type PlayerControlParams struct {
	Action    string
	Timestamp float64
	Index     *int
	LoopMode  string
	Trigger   domain.Trigger
	SenderId  string
	RoomId    string
}

type PlayerControlResponse struct {
	Player Player
	Conns  []*websocket.Conn
}

// PlayerControl applies one canonical control action. Every action stamps
// last_updated with server-now, which is what arms the host-report guard.
func (s *service) PlayerControl(ctx context.Context, params *PlayerControlParams) (PlayerControlResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return PlayerControlResponse{}, err
	}

	if rm.Member(params.SenderId) == nil {
		return PlayerControlResponse{}, ErrMemberNotFound
	}

	if params.Index != nil && (*params.Index < 0 || *params.Index >= len(rm.Queue)) {
		return PlayerControlResponse{}, ErrValidation
	}

	now := s.now()
	switch params.Action {
	case ActionPlay:
		rm.Play(now, params.Timestamp, params.Index)
	case ActionPause:
		rm.Pause(now, params.Timestamp)
	case ActionSeek:
		rm.Seek(now, params.Timestamp)
	case ActionLoop:
		switch mode := domain.LoopMode(params.LoopMode); mode {
		case domain.LoopOff, domain.LoopQueue, domain.LoopTrack:
			rm.SetLoopMode(now, mode)
		default:
			return PlayerControlResponse{}, ErrValidation
		}
	case ActionNext:
		rm.Next(now, params.Trigger)
	case ActionPrev:
		rm.Prev(now)
	default:
		return PlayerControlResponse{}, ErrValidation
	}

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return PlayerControlResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.DebugContext(ctx, "player control", "room_id", params.RoomId, "action", params.Action)

	return PlayerControlResponse{
		Player: playerFromDomain(rm.Player),
		Conns:  s.getConns(rm),
	}, nil
}

type HostSyncParams struct {
	Timestamp float64
	IsPlaying bool
	SenderId  string
	RoomId    string
}

type HostSyncResponse struct {
	// nil when the guard discarded the report
	Pulse      *SyncPulse
	PulseConns []*websocket.Conn
	ProbeConns []*websocket.Conn
	// set when zombie eviction changed membership
	RoomState *RoomState
	Conns     []*websocket.Conn
}

// HostSync handles the host's periodic clock report. The report is adopted
// unless it lands inside the guard window after a manual control action; the
// liveness probe and zombie eviction run on every tick either way.
func (s *service) HostSync(ctx context.Context, params *HostSyncParams) (HostSyncResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return HostSyncResponse{}, err
	}

	if !rm.IsAdmin(params.SenderId) {
		return HostSyncResponse{}, ErrPermissionDenied
	}

	now := s.now()
	adopted := rm.AdoptHostReport(now, params.Timestamp, params.IsPlaying, s.syncGuard)
	evicted := rm.EvictZombies(now, s.presenceThreshold)

	if adopted || len(evicted) > 0 {
		if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
			return HostSyncResponse{}, fmt.Errorf("failed to set room: %w", err)
		}
	}

	resp := HostSyncResponse{
		PulseConns: s.getConnsExcept(rm, params.SenderId),
		ProbeConns: s.getConnsExcept(rm, params.SenderId),
	}

	if adopted {
		resp.Pulse = &SyncPulse{
			Timestamp: rm.Player.Timestamp,
			IsPlaying: rm.Player.IsPlaying,
		}
	}

	if len(evicted) > 0 {
		for _, session := range evicted {
			s.logger.InfoContext(ctx, "evicted zombie member",
				"room_id", params.RoomId, "member_id", session.MemberId, "nickname", session.Nickname)
			if err := s.connRepo.RemoveByMemberId(session.MemberId); err != nil {
				s.logger.DebugContext(ctx, "evicted member had no conn", "error", err)
			}
		}

		state := roomStateFromDomain(rm)
		resp.RoomState = &state
		resp.Conns = s.getConns(rm)
	}

	return resp, nil
}

type RequestSyncParams struct {
	SenderId string
	RoomId   string
}

type RequestSyncResponse struct {
	HostConn *websocket.Conn
}

// RequestSync asks the current host for a live clock reading instead of
// trusting the possibly stale stored state. The host answers with HostState,
// which is relayed to the requester only.
func (s *service) RequestSync(ctx context.Context, params *RequestSyncParams) (RequestSyncResponse, error) {
	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return RequestSyncResponse{}, err
	}

	if rm.AdminId == nil {
		return RequestSyncResponse{}, ErrNoHost
	}

	hostConn, err := s.connRepo.GetConn(*rm.AdminId)
	if err != nil {
		return RequestSyncResponse{}, ErrNoHost
	}

	return RequestSyncResponse{HostConn: hostConn}, nil
}

type HostStateParams struct {
	RequesterId string
	Timestamp   float64
	IsPlaying   bool
	SenderId    string
	RoomId      string
}

type HostStateResponse struct {
	RequesterConn *websocket.Conn
	Sync          SyncTarget
}

// HostState is the host's answer to a RequestSync. The reading is adopted
// without the guard: the requester has no prior state to protect.
func (s *service) HostState(ctx context.Context, params *HostStateParams) (HostStateResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return HostStateResponse{}, err
	}

	if !rm.IsAdmin(params.SenderId) {
		return HostStateResponse{}, ErrPermissionDenied
	}

	rm.AdoptHostState(s.now(), params.Timestamp, params.IsPlaying)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return HostStateResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	requesterConn, err := s.connRepo.GetConn(params.RequesterId)
	if err != nil {
		return HostStateResponse{}, ErrMemberNotFound
	}

	return HostStateResponse{
		RequesterConn: requesterConn,
		Sync: SyncTarget{
			Timestamp: params.Timestamp,
			IsPlaying: params.IsPlaying,
		},
	}, nil
}

type AliveParams struct {
	SenderId string
	RoomId   string
}

// Alive records a liveness reply. No broadcast results.
func (s *service) Alive(ctx context.Context, params *AliveParams) error {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return err
	}

	if !rm.Touch(params.SenderId, s.now()) {
		return ErrMemberNotFound
	}

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}
