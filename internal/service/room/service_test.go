package room

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenroom/server/internal/repository/connection/inmemory"
	roomRedis "github.com/listenroom/server/internal/repository/room/redis"
	"github.com/listenroom/server/pkg/mediameta"
)

type fakeResolver struct{}

func (fakeResolver) Get(mediaUrl string) (*mediameta.TrackData, error) {
	if mediaUrl == "https://example.com/broken" {
		return nil, mediameta.ErrNoResult
	}

	author := "some artist"
	return &mediameta.TrackData{
		StreamURL: mediaUrl + "/stream",
		Title:     "track for " + mediaUrl,
		Author:    &author,
		Source:    mediameta.SourceUnknown,
	}, nil
}

func newTestService(t *testing.T, cfg *Config) *service {
	t.Helper()
	s := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
	roomRepo := roomRedis.NewRepo(rc, 10*time.Hour)
	connRepo := inmemory.NewRepo()

	if cfg == nil {
		cfg = &Config{
			Secret:            "test-secret",
			MembersLimit:      9,
			QueueLimit:        25,
			RoomIdLength:      8,
			SyncGuard:         1500 * time.Millisecond,
			PresenceThreshold: 15 * time.Second,
		}
	}

	return NewService(roomRepo, connRepo, fakeResolver{}, cfg, slog.Default())
}

func join(t *testing.T, s *service, roomId, nickname string) JoinRoomResponse {
	t.Helper()
	resp, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		RoomId:   roomId,
		Nickname: nickname,
	})
	require.NoError(t, err)
	require.NoError(t, s.ConnectMember(context.Background(), &ConnectMemberParams{
		Conn:     &websocket.Conn{},
		MemberId: resp.MemberId,
	}))

	return resp
}

func TestCreateAndJoinRoom(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	createResp, err := s.CreateRoom(ctx, &CreateRoomParams{Nickname: "alice"})
	require.NoError(t, err)
	assert.Len(t, createResp.RoomId, 8)

	getResp, err := s.GetRoom(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.False(t, getResp.HasPassword)

	joinResp := join(t, s, createResp.RoomId, "alice")
	assert.NotEmpty(t, joinResp.MemberId)
	assert.NotEmpty(t, joinResp.AuthToken)
	assert.True(t, joinResp.JoinedMember.IsAdmin, "first member becomes admin")
	assert.Len(t, joinResp.RoomState.Members, 1)
	assert.Empty(t, joinResp.Conns, "nobody else to notify")

	joinResp2 := join(t, s, createResp.RoomId, "bob")
	assert.False(t, joinResp2.JoinedMember.IsAdmin)
	assert.Len(t, joinResp2.RoomState.Members, 2)
	assert.Len(t, joinResp2.Conns, 1, "the admin must be notified")
}

func TestJoinUnknownRoom(t *testing.T) {
	s := newTestService(t, nil)

	_, err := s.JoinRoom(context.Background(), &JoinRoomParams{RoomId: "ghost", Nickname: "alice"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = s.GetRoom(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestJoinRoomPassword(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	createResp, err := s.CreateRoom(ctx, &CreateRoomParams{Password: "secret", Nickname: "alice"})
	require.NoError(t, err)

	getResp, err := s.GetRoom(ctx, createResp.RoomId)
	require.NoError(t, err)
	assert.True(t, getResp.HasPassword)

	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "bob"})
	assert.ErrorIs(t, err, ErrWrongPassword, "no password given")

	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "bob", Password: "wrong"})
	assert.ErrorIs(t, err, ErrWrongPassword)

	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "bob", Password: "secret"})
	assert.NoError(t, err)
}

func TestReconnectKeepsIdentity(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	createResp, err := s.CreateRoom(ctx, &CreateRoomParams{Nickname: "alice"})
	require.NoError(t, err)

	first := join(t, s, createResp.RoomId, "alice")

	// same auth token, fresh connection
	second, err := s.JoinRoom(ctx, &JoinRoomParams{
		RoomId:    createResp.RoomId,
		Nickname:  "alice-2",
		AuthToken: first.AuthToken,
	})
	require.NoError(t, err)

	assert.Len(t, second.RoomState.Members, 1, "reconnect must not duplicate the member")
	assert.Equal(t, "alice-2", second.RoomState.Members[0].Nickname)
	require.NotNil(t, second.RoomState.AdminId)
	assert.Equal(t, second.MemberId, *second.RoomState.AdminId, "admin follows the reconnect")
}

func TestDisconnectAdminFailover(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	createResp, err := s.CreateRoom(ctx, &CreateRoomParams{Nickname: "alice"})
	require.NoError(t, err)

	alice := join(t, s, createResp.RoomId, "alice")
	bob := join(t, s, createResp.RoomId, "bob")
	carol := join(t, s, createResp.RoomId, "carol")

	resp, err := s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: alice.MemberId, RoomId: createResp.RoomId})
	require.NoError(t, err)
	require.NotNil(t, resp.RoomState)
	require.NotNil(t, resp.RoomState.AdminId)
	assert.Equal(t, bob.MemberId, *resp.RoomState.AdminId, "earliest remaining member is promoted")
	assert.Len(t, resp.Conns, 2)

	_, err = s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: bob.MemberId, RoomId: createResp.RoomId})
	require.NoError(t, err)

	resp, err = s.DisconnectMember(ctx, &DisconnectMemberParams{MemberId: carol.MemberId, RoomId: createResp.RoomId})
	require.NoError(t, err)
	require.NotNil(t, resp.RoomState)
	assert.Nil(t, resp.RoomState.AdminId, "empty room has no admin")
}

func TestDisconnectWithoutRoomMapping(t *testing.T) {
	s := newTestService(t, nil)

	resp, err := s.DisconnectMember(context.Background(), &DisconnectMemberParams{MemberId: "m1", RoomId: ""})
	require.NoError(t, err)
	assert.Nil(t, resp.RoomState)
}

func TestKickBansPersistentUser(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	createResp, err := s.CreateRoom(ctx, &CreateRoomParams{Password: "secret", Nickname: "alice"})
	require.NoError(t, err)

	alice, err := s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "alice", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, s.ConnectMember(ctx, &ConnectMemberParams{Conn: &websocket.Conn{}, MemberId: alice.MemberId}))

	bob, err := s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "bob", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, s.ConnectMember(ctx, &ConnectMemberParams{Conn: &websocket.Conn{}, MemberId: bob.MemberId}))

	// non-admin cannot kick
	_, err = s.KickMember(ctx, &KickMemberParams{TargetId: alice.MemberId, SenderId: bob.MemberId, RoomId: createResp.RoomId})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	kickResp, err := s.KickMember(ctx, &KickMemberParams{TargetId: bob.MemberId, SenderId: alice.MemberId, RoomId: createResp.RoomId})
	require.NoError(t, err)
	assert.NotNil(t, kickResp.TargetConn)
	assert.Len(t, kickResp.RoomState.Members, 1)

	// the kicked user is rejected as banned even with the right password
	_, err = s.JoinRoom(ctx, &JoinRoomParams{
		RoomId:    createResp.RoomId,
		Nickname:  "bob",
		Password:  "secret",
		AuthToken: bob.AuthToken,
	})
	assert.ErrorIs(t, err, ErrBanned, "must be banned, not wrong password")

	// a fresh identity with the right password still gets in
	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "bob2", Password: "secret"})
	assert.NoError(t, err)
}

func TestMembersLimit(t *testing.T) {
	s := newTestService(t, &Config{
		Secret:            "test-secret",
		MembersLimit:      2,
		QueueLimit:        25,
		RoomIdLength:      8,
		SyncGuard:         1500 * time.Millisecond,
		PresenceThreshold: 15 * time.Second,
	})
	ctx := context.Background()

	createResp, err := s.CreateRoom(ctx, &CreateRoomParams{Nickname: "alice"})
	require.NoError(t, err)

	join(t, s, createResp.RoomId, "alice")
	join(t, s, createResp.RoomId, "bob")

	_, err = s.JoinRoom(ctx, &JoinRoomParams{RoomId: createResp.RoomId, Nickname: "carol"})
	assert.ErrorIs(t, err, ErrMembersLimitReached)
}
