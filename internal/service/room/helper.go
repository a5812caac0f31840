package room

import (
	"context"
	"errors"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/listenroom/server/internal/domain"
	"github.com/listenroom/server/internal/repository/connection"
	roomRepo "github.com/listenroom/server/internal/repository/room"
)

func (s *service) getRoom(ctx context.Context, roomId string) (*domain.Room, error) {
	rm, err := s.roomRepo.GetRoom(ctx, roomId)
	if err != nil {
		if errors.Is(err, roomRepo.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}

		return nil, err
	}

	return rm, nil
}

// Members without a live connection are skipped: a session can outlive its
// conn briefly between disconnect and eviction.
func (s *service) getConns(rm *domain.Room) []*websocket.Conn {
	conns := make([]*websocket.Conn, 0, len(rm.Members))
	for _, member := range rm.Members {
		conn, err := s.connRepo.GetConn(member.MemberId)
		if err != nil {
			if !errors.Is(err, connection.ErrNotFound) {
				s.logger.Warn("failed to get conn", "member_id", member.MemberId, "error", err)
			}
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

func (s *service) getConnsExcept(rm *domain.Room, memberId string) []*websocket.Conn {
	conns := make([]*websocket.Conn, 0, len(rm.Members))
	for _, member := range rm.Members {
		if member.MemberId == memberId {
			continue
		}

		conn, err := s.connRepo.GetConn(member.MemberId)
		if err != nil {
			continue
		}

		conns = append(conns, conn)
	}

	return conns
}

func (s *service) verifyPassword(rm *domain.Room, candidate string) bool {
	if rm.PasswordHash == nil {
		return true
	}
	if candidate == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(*rm.PasswordHash), []byte(candidate)) == nil
}
