package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/listenroom/server/internal/domain"
	"github.com/listenroom/server/internal/repository/room"
)

// repo persists rooms as whole JSON records with a sliding expiry. There are
// no partial updates; callers read, mutate in memory and write back the full
// record. Concurrent writers for the same id must be serialized above this
// layer.
type repo struct {
	rc             *redis.Client
	expireDuration time.Duration
}

func NewRepo(rc *redis.Client, expireDuration time.Duration) *repo {
	return &repo{
		rc:             rc,
		expireDuration: expireDuration,
	}
}

func (r repo) getRoomKey(roomId string) string {
	return "room:" + roomId
}

func (r repo) SetRoom(ctx context.Context, rm *domain.Room) error {
	if err := r.rc.Set(ctx, r.getRoomKey(rm.Id), rm, r.expireDuration).Err(); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (r repo) GetRoom(ctx context.Context, roomId string) (*domain.Room, error) {
	roomKey := r.getRoomKey(roomId)
	data, err := r.rc.Get(ctx, roomKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, room.ErrRoomNotFound
		}

		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	var rm domain.Room
	if err := rm.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return &rm, nil
}
