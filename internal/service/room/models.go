package room

import "github.com/listenroom/server/internal/domain"

type Member struct {
	MemberId string `json:"member_id"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"is_admin"`
}

type Track struct {
	Id        string   `json:"id"`
	URL       string   `json:"url"`
	StreamURL string   `json:"stream_url"`
	Title     string   `json:"title"`
	Author    *string  `json:"author"`
	Thumbnail *string  `json:"thumbnail"`
	Duration  *float64 `json:"duration"`
	AddedBy   string   `json:"added_by"`
	Source    string   `json:"source"`
}

type Player struct {
	CurrentTrackIndex int     `json:"current_track_index"`
	IsPlaying         bool    `json:"is_playing"`
	Timestamp         float64 `json:"timestamp"`
	LastUpdated       float64 `json:"last_updated"`
	StartTime         float64 `json:"start_time"`
	LoopMode          string  `json:"loop_mode"`
}

type RoomState struct {
	Id          string   `json:"id"`
	HasPassword bool     `json:"has_password"`
	AdminId     *string  `json:"admin_id"`
	Members     []Member `json:"members"`
	Queue       []Track  `json:"queue"`
	Player      Player   `json:"player"`
}

// SyncPulse is what non-host members receive on every adopted host report:
// enough to compute their drift against the host's clock.
type SyncPulse struct {
	Timestamp float64 `json:"timestamp"`
	IsPlaying bool    `json:"is_playing"`
}

type SyncTarget struct {
	Timestamp float64 `json:"timestamp"`
	IsPlaying bool    `json:"is_playing"`
}

func memberFromSession(session domain.Session, rm *domain.Room) Member {
	return Member{
		MemberId: session.MemberId,
		Nickname: session.Nickname,
		IsAdmin:  rm.IsAdmin(session.MemberId),
	}
}

func trackFromDomain(track domain.Track) Track {
	return Track{
		Id:        track.Id,
		URL:       track.URL,
		StreamURL: track.StreamURL,
		Title:     track.Title,
		Author:    track.Author,
		Thumbnail: track.Thumbnail,
		Duration:  track.Duration,
		AddedBy:   track.AddedBy,
		Source:    track.Source,
	}
}

func playerFromDomain(player domain.Player) Player {
	return Player{
		CurrentTrackIndex: player.CurrentTrackIndex,
		IsPlaying:         player.IsPlaying,
		Timestamp:         player.Timestamp,
		LastUpdated:       player.LastUpdated,
		StartTime:         player.StartTime,
		LoopMode:          string(player.LoopMode),
	}
}

func roomStateFromDomain(rm *domain.Room) RoomState {
	members := make([]Member, 0, len(rm.Members))
	for _, session := range rm.Members {
		members = append(members, memberFromSession(session, rm))
	}

	queue := make([]Track, 0, len(rm.Queue))
	for _, track := range rm.Queue {
		queue = append(queue, trackFromDomain(track))
	}

	return RoomState{
		Id:          rm.Id,
		HasPassword: rm.HasPassword(),
		AdminId:     rm.AdminId,
		Members:     members,
		Queue:       queue,
		Player:      playerFromDomain(rm.Player),
	}
}

func queueFromDomain(rm *domain.Room) []Track {
	queue := make([]Track, 0, len(rm.Queue))
	for _, track := range rm.Queue {
		queue = append(queue, trackFromDomain(track))
	}

	return queue
}
