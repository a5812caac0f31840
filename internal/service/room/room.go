package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/listenroom/server/internal/domain"
)

type CreateRoomParams struct {
	Password string
	Nickname string
}

type CreateRoomResponse struct {
	RoomId string
}

func (s *service) CreateRoom(ctx context.Context, params *CreateRoomParams) (CreateRoomResponse, error) {
	var passwordHash *string
	if params.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
		if err != nil {
			return CreateRoomResponse{}, fmt.Errorf("failed to hash password: %w", err)
		}
		hashStr := string(hash)
		passwordHash = &hashStr
	}

	roomId := s.generator.GenerateRandomString(s.roomIdLength)
	rm := domain.NewRoom(roomId, passwordHash, s.now())

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return CreateRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "room created", "room_id", roomId, "has_password", passwordHash != nil)

	return CreateRoomResponse{RoomId: roomId}, nil
}

type GetRoomResponse struct {
	HasPassword bool
}

func (s *service) GetRoom(ctx context.Context, roomId string) (GetRoomResponse, error) {
	rm, err := s.getRoom(ctx, roomId)
	if err != nil {
		return GetRoomResponse{}, err
	}

	return GetRoomResponse{HasPassword: rm.HasPassword()}, nil
}

type JoinRoomParams struct {
	RoomId    string
	Nickname  string
	Password  string
	AuthToken string
}

type JoinRoomResponse struct {
	MemberId     string
	AuthToken    string
	JoinedMember Member
	RoomState    RoomState
	Conns        []*websocket.Conn
}

// JoinRoom admits a connection to a room. A valid auth token makes this a
// reconnect of the same persistent user; otherwise a fresh user id is minted
// and returned inside a new token. The ban check runs before any membership
// mutation.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	if !s.verifyPassword(rm, params.Password) {
		return JoinRoomResponse{}, ErrWrongPassword
	}

	userId := ""
	if params.AuthToken != "" {
		parsed, err := s.parseAuthToken(params.AuthToken)
		if err != nil {
			s.logger.DebugContext(ctx, "ignoring bad auth token", "error", err)
		} else {
			userId = parsed
		}
	}
	if userId == "" {
		userId = uuid.NewString()
	}

	if rm.IsBanned(userId) {
		return JoinRoomResponse{}, ErrBanned
	}

	if len(rm.Members) >= s.membersLimit && rm.MemberByUserId(userId) == nil {
		return JoinRoomResponse{}, ErrMembersLimitReached
	}

	authToken, err := s.generateAuthToken(userId)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to generate auth token: %w", err)
	}

	memberId := uuid.NewString()
	session := domain.Session{
		MemberId: memberId,
		Nickname: params.Nickname,
		UserId:   &userId,
		LastSeen: s.now(),
	}
	rm.AddMember(session)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "member joined", "room_id", params.RoomId, "member_id", memberId, "nickname", params.Nickname)

	return JoinRoomResponse{
		MemberId:     memberId,
		AuthToken:    authToken,
		JoinedMember: memberFromSession(session, rm),
		RoomState:    roomStateFromDomain(rm),
		Conns:        s.getConnsExcept(rm, memberId),
	}, nil
}

type ConnectMemberParams struct {
	Conn     *websocket.Conn
	MemberId string
}

func (s *service) ConnectMember(ctx context.Context, params *ConnectMemberParams) error {
	if err := s.connRepo.Add(params.Conn, params.MemberId); err != nil {
		return fmt.Errorf("failed to add conn: %w", err)
	}

	return nil
}

type DisconnectMemberParams struct {
	MemberId string
	RoomId   string
}

type DisconnectMemberResponse struct {
	RoomState *RoomState
	Conns     []*websocket.Conn
}

func (s *service) DisconnectMember(ctx context.Context, params *DisconnectMemberParams) (DisconnectMemberResponse, error) {
	if err := s.connRepo.RemoveByMemberId(params.MemberId); err != nil {
		s.logger.DebugContext(ctx, "failed to remove conn", "error", err)
	}

	// a connection that never finished joining has no room to leave
	if params.RoomId == "" {
		return DisconnectMemberResponse{}, nil
	}

	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return DisconnectMemberResponse{}, err
	}

	if !rm.RemoveMember(params.MemberId) {
		return DisconnectMemberResponse{}, nil
	}

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return DisconnectMemberResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "member disconnected", "room_id", params.RoomId, "member_id", params.MemberId)

	state := roomStateFromDomain(rm)

	return DisconnectMemberResponse{
		RoomState: &state,
		Conns:     s.getConns(rm),
	}, nil
}

type KickMemberParams struct {
	TargetId string
	SenderId string
	RoomId   string
}

type KickMemberResponse struct {
	TargetConn *websocket.Conn
	RoomState  RoomState
	Conns      []*websocket.Conn
}

// KickMember bans the target's persistent user id and removes the session.
// The target gets a kicked notice; the rest of the room a state broadcast.
func (s *service) KickMember(ctx context.Context, params *KickMemberParams) (KickMemberResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return KickMemberResponse{}, err
	}

	if !rm.IsAdmin(params.SenderId) {
		return KickMemberResponse{}, ErrPermissionDenied
	}

	target := rm.Member(params.TargetId)
	if target == nil {
		return KickMemberResponse{}, ErrMemberNotFound
	}

	if target.UserId != nil {
		rm.Ban(*target.UserId)
	}
	rm.RemoveMember(params.TargetId)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return KickMemberResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "member kicked", "room_id", params.RoomId, "member_id", params.TargetId)

	targetConn, err := s.connRepo.GetConn(params.TargetId)
	if err != nil {
		s.logger.DebugContext(ctx, "kicked member has no conn", "error", err)
	}

	return KickMemberResponse{
		TargetConn: targetConn,
		RoomState:  roomStateFromDomain(rm),
		Conns:      s.getConns(rm),
	}, nil
}
