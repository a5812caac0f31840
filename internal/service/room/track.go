package room

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/listenroom/server/internal/domain"
)

type AddTrackParams struct {
	URL      string
	SenderId string
	RoomId   string
}

type AddTrackResponse struct {
	AddedTrack Track
	Queue      []Track
	// set when the add pinned the index of a previously empty queue
	Player *Player
	Conns  []*websocket.Conn
}

// AddTrack resolves the URL and appends the result to the queue. Resolution
// is slow network I/O and runs before the room lock is taken, so it never
// stalls other operations on the room.
func (s *service) AddTrack(ctx context.Context, params *AddTrackParams) (AddTrackResponse, error) {
	if params.URL == "" {
		return AddTrackResponse{}, ErrValidation
	}

	data, err := s.resolver.Get(params.URL)
	if err != nil {
		s.logger.InfoContext(ctx, "failed to resolve url", "url", params.URL, "error", err)
		return AddTrackResponse{}, ErrResolve
	}

	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return AddTrackResponse{}, err
	}

	sender := rm.Member(params.SenderId)
	if sender == nil {
		return AddTrackResponse{}, ErrMemberNotFound
	}

	if len(rm.Queue) >= s.queueLimit {
		return AddTrackResponse{}, ErrQueueLimitReached
	}

	track := domain.Track{
		Id:        uuid.NewString(),
		URL:       params.URL,
		StreamURL: data.StreamURL,
		Title:     data.Title,
		Author:    data.Author,
		Thumbnail: data.Thumbnail,
		Duration:  data.Duration,
		AddedBy:   sender.Nickname,
		Source:    data.Source,
	}
	wasEmpty := rm.AddTrack(track)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return AddTrackResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "track added", "room_id", params.RoomId, "track_id", track.Id, "title", track.Title)

	resp := AddTrackResponse{
		AddedTrack: trackFromDomain(track),
		Queue:      queueFromDomain(rm),
		Conns:      s.getConns(rm),
	}
	if wasEmpty {
		player := playerFromDomain(rm.Player)
		resp.Player = &player
	}

	return resp, nil
}

type RemoveTrackParams struct {
	TrackId  string
	SenderId string
	RoomId   string
}

type RemoveTrackResponse struct {
	Queue  []Track
	Player Player
	Conns  []*websocket.Conn
}

// RemoveTrack drops a queue entry. Allowed for the admin, or for the member
// whose nickname matches the track's adder.
func (s *service) RemoveTrack(ctx context.Context, params *RemoveTrackParams) (RemoveTrackResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return RemoveTrackResponse{}, err
	}

	idx := -1
	for i := range rm.Queue {
		if rm.Queue[i].Id == params.TrackId {
			idx = i
			break
		}
	}
	if idx == -1 {
		return RemoveTrackResponse{}, ErrTrackNotFound
	}

	if !rm.IsAdmin(params.SenderId) {
		sender := rm.Member(params.SenderId)
		if sender == nil || rm.Queue[idx].AddedBy != sender.Nickname {
			return RemoveTrackResponse{}, ErrPermissionDenied
		}
	}

	rm.RemoveTrack(params.TrackId)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return RemoveTrackResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	s.logger.InfoContext(ctx, "track removed", "room_id", params.RoomId, "track_id", params.TrackId)

	return RemoveTrackResponse{
		Queue:  queueFromDomain(rm),
		Player: playerFromDomain(rm.Player),
		Conns:  s.getConns(rm),
	}, nil
}

type ReorderQueueParams struct {
	TrackIds []string
	SenderId string
	RoomId   string
}

type ReorderQueueResponse struct {
	Queue             []Track
	CurrentTrackIndex int
	Conns             []*websocket.Conn
}

func (s *service) ReorderQueue(ctx context.Context, params *ReorderQueueParams) (ReorderQueueResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return ReorderQueueResponse{}, err
	}

	if rm.Member(params.SenderId) == nil {
		return ReorderQueueResponse{}, ErrMemberNotFound
	}

	rm.ReorderQueue(params.TrackIds)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return ReorderQueueResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	return ReorderQueueResponse{
		Queue:             queueFromDomain(rm),
		CurrentTrackIndex: rm.Player.CurrentTrackIndex,
		Conns:             s.getConns(rm),
	}, nil
}

type ShuffleQueueParams struct {
	SenderId string
	RoomId   string
}

type ShuffleQueueResponse struct {
	Queue             []Track
	CurrentTrackIndex int
	Conns             []*websocket.Conn
}

func (s *service) ShuffleQueue(ctx context.Context, params *ShuffleQueueParams) (ShuffleQueueResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return ShuffleQueueResponse{}, err
	}

	if rm.Member(params.SenderId) == nil {
		return ShuffleQueueResponse{}, ErrMemberNotFound
	}

	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	rm.ShuffleQueue(rng)

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return ShuffleQueueResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	return ShuffleQueueResponse{
		Queue:             queueFromDomain(rm),
		CurrentTrackIndex: rm.Player.CurrentTrackIndex,
		Conns:             s.getConns(rm),
	}, nil
}

type PlayTrackParams struct {
	TrackId  string
	SenderId string
	RoomId   string
}

type PlayTrackResponse struct {
	Player Player
	Conns  []*websocket.Conn
}

func (s *service) PlayTrack(ctx context.Context, params *PlayTrackParams) (PlayTrackResponse, error) {
	unlock := s.lockRoom(params.RoomId)
	defer unlock()

	rm, err := s.getRoom(ctx, params.RoomId)
	if err != nil {
		return PlayTrackResponse{}, err
	}

	if rm.Member(params.SenderId) == nil {
		return PlayTrackResponse{}, ErrMemberNotFound
	}

	if !rm.PlayTrack(s.now(), params.TrackId) {
		return PlayTrackResponse{}, ErrTrackNotFound
	}

	if err := s.roomRepo.SetRoom(ctx, rm); err != nil {
		return PlayTrackResponse{}, fmt.Errorf("failed to set room: %w", err)
	}

	return PlayTrackResponse{
		Player: playerFromDomain(rm.Player),
		Conns:  s.getConns(rm),
	}, nil
}
