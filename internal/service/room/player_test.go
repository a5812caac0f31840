package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenroom/server/internal/domain"
)

func TestPlayerControlActions(t *testing.T) {
	s := newTestService(t, nil)
	roomId, admin, _ := setupRoomWithMembers(t, s)
	ctx := context.Background()

	addTrack(t, s, roomId, admin.MemberId, "https://example.com/a")
	addTrack(t, s, roomId, admin.MemberId, "https://example.com/b")

	resp, err := s.PlayerControl(ctx, &PlayerControlParams{
		Action:    ActionPlay,
		Timestamp: 12.5,
		SenderId:  admin.MemberId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	assert.True(t, resp.Player.IsPlaying)
	assert.Equal(t, 12.5, resp.Player.Timestamp)
	assert.Len(t, resp.Conns, 2)

	resp, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:    ActionPause,
		Timestamp: 13.0,
		SenderId:  admin.MemberId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	assert.False(t, resp.Player.IsPlaying)
	assert.Equal(t, 13.0, resp.Player.Timestamp)

	resp, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:   ActionLoop,
		LoopMode: string(domain.LoopQueue),
		SenderId: admin.MemberId,
		RoomId:   roomId,
	})
	require.NoError(t, err)
	assert.Equal(t, string(domain.LoopQueue), resp.Player.LoopMode)

	resp, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:   ActionNext,
		Trigger:  domain.TriggerManual,
		SenderId: admin.MemberId,
		RoomId:   roomId,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Player.CurrentTrackIndex)

	resp, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:   ActionPrev,
		SenderId: admin.MemberId,
		RoomId:   roomId,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Player.CurrentTrackIndex)
}

func TestPlayerControlValidation(t *testing.T) {
	s := newTestService(t, nil)
	roomId, admin, _ := setupRoomWithMembers(t, s)
	ctx := context.Background()

	addTrack(t, s, roomId, admin.MemberId, "https://example.com/a")

	_, err := s.PlayerControl(ctx, &PlayerControlParams{
		Action:   "rewind",
		SenderId: admin.MemberId,
		RoomId:   roomId,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:   ActionLoop,
		LoopMode: "forever",
		SenderId: admin.MemberId,
		RoomId:   roomId,
	})
	assert.ErrorIs(t, err, ErrValidation)

	badIndex := 5
	_, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:   ActionPlay,
		Index:    &badIndex,
		SenderId: admin.MemberId,
		RoomId:   roomId,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.PlayerControl(ctx, &PlayerControlParams{
		Action:   ActionPlay,
		SenderId: "stranger",
		RoomId:   roomId,
	})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestHostSyncGuardDiscards(t *testing.T) {
	s := newTestService(t, nil)
	roomId, admin, _ := setupRoomWithMembers(t, s)
	ctx := context.Background()

	addTrack(t, s, roomId, admin.MemberId, "https://example.com/a")

	// a fresh control action arms the guard window
	_, err := s.PlayerControl(ctx, &PlayerControlParams{
		Action:    ActionSeek,
		Timestamp: 30.0,
		SenderId:  admin.MemberId,
		RoomId:    roomId,
	})
	require.NoError(t, err)

	resp, err := s.HostSync(ctx, &HostSyncParams{
		Timestamp: 99.0,
		IsPlaying: true,
		SenderId:  admin.MemberId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Pulse, "report inside the guard window is discarded")
	assert.Len(t, resp.ProbeConns, 1, "the probe still goes out")

	state, err := s.getRoom(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, 30.0, state.Player.Timestamp, "stored state untouched")
}

func TestHostSyncAdoptsPastGuard(t *testing.T) {
	s := newTestService(t, &Config{
		Secret:            "test-secret",
		MembersLimit:      9,
		QueueLimit:        25,
		RoomIdLength:      8,
		SyncGuard:         0, // disarm the window so the report lands
		PresenceThreshold: 15 * time.Second,
	})
	roomId, admin, guest := setupRoomWithMembers(t, s)
	ctx := context.Background()

	addTrack(t, s, roomId, admin.MemberId, "https://example.com/a")

	resp, err := s.HostSync(ctx, &HostSyncParams{
		Timestamp: 42.0,
		IsPlaying: true,
		SenderId:  admin.MemberId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Pulse)
	assert.Equal(t, 42.0, resp.Pulse.Timestamp)
	assert.True(t, resp.Pulse.IsPlaying)
	assert.Len(t, resp.PulseConns, 1)
	assert.Nil(t, resp.RoomState, "guest answered recently, nobody evicted")

	_, err = s.HostSync(ctx, &HostSyncParams{
		Timestamp: 43.0,
		SenderId:  guest.MemberId,
		RoomId:    roomId,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied, "only the host may report")
}

func TestHostSyncEvictsZombies(t *testing.T) {
	s := newTestService(t, &Config{
		Secret:            "test-secret",
		MembersLimit:      9,
		QueueLimit:        25,
		RoomIdLength:      8,
		SyncGuard:         1500 * time.Millisecond,
		PresenceThreshold: 0, // everyone but the host counts as stale
	})
	roomId, admin, guest := setupRoomWithMembers(t, s)
	ctx := context.Background()

	time.Sleep(5 * time.Millisecond)

	resp, err := s.HostSync(ctx, &HostSyncParams{
		Timestamp: 1.0,
		SenderId:  admin.MemberId,
		RoomId:    roomId,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.RoomState)
	require.Len(t, resp.RoomState.Members, 1, "the host is never evicted")
	assert.Equal(t, admin.MemberId, resp.RoomState.Members[0].MemberId)
	assert.Len(t, resp.Conns, 1)

	err = s.Alive(ctx, &AliveParams{SenderId: guest.MemberId, RoomId: roomId})
	assert.ErrorIs(t, err, ErrMemberNotFound, "the evicted member is gone")
}

func TestAliveRefreshesPresence(t *testing.T) {
	s := newTestService(t, nil)
	roomId, _, guest := setupRoomWithMembers(t, s)
	ctx := context.Background()

	before, err := s.getRoom(ctx, roomId)
	require.NoError(t, err)
	seenBefore := before.Member(guest.MemberId).LastSeen

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, s.Alive(ctx, &AliveParams{SenderId: guest.MemberId, RoomId: roomId}))

	after, err := s.getRoom(ctx, roomId)
	require.NoError(t, err)
	assert.Greater(t, after.Member(guest.MemberId).LastSeen, seenBefore)
}

func TestRequestSyncAndHostState(t *testing.T) {
	s := newTestService(t, nil)
	roomId, admin, guest := setupRoomWithMembers(t, s)
	ctx := context.Background()

	syncResp, err := s.RequestSync(ctx, &RequestSyncParams{SenderId: guest.MemberId, RoomId: roomId})
	require.NoError(t, err)
	assert.NotNil(t, syncResp.HostConn)

	stateResp, err := s.HostState(ctx, &HostStateParams{
		RequesterId: guest.MemberId,
		Timestamp:   55.0,
		IsPlaying:   true,
		SenderId:    admin.MemberId,
		RoomId:      roomId,
	})
	require.NoError(t, err)
	assert.NotNil(t, stateResp.RequesterConn)
	assert.Equal(t, 55.0, stateResp.Sync.Timestamp)
	assert.True(t, stateResp.Sync.IsPlaying)

	// a non-host answer is rejected
	_, err = s.HostState(ctx, &HostStateParams{
		RequesterId: admin.MemberId,
		Timestamp:   55.0,
		SenderId:    guest.MemberId,
		RoomId:      roomId,
	})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	rm, err := s.getRoom(ctx, roomId)
	require.NoError(t, err)
	assert.Equal(t, 55.0, rm.Player.Timestamp, "host reading adopted without a guard")
}
