package domain

type LoopMode string

const (
	LoopOff   LoopMode = "off"
	LoopQueue LoopMode = "queue"
	LoopTrack LoopMode = "track"
)

// Trigger says what caused a track advance. Only an automatic end-of-track
// advance honors per-track loop; a manual skip always moves on.
type Trigger int

const (
	TriggerManual Trigger = iota
	TriggerAuto
)

// Player is the canonical playback clock of a room. While playing,
// elapsed = server_now - StartTime; StartTime is anchored when the state is
// set, never re-derived afterwards. All times are unix seconds.
type Player struct {
	CurrentTrackIndex int      `json:"current_track_index"`
	IsPlaying         bool     `json:"is_playing"`
	Timestamp         float64  `json:"timestamp"`
	LastUpdated       float64  `json:"last_updated"`
	StartTime         float64  `json:"start_time"`
	LoopMode          LoopMode `json:"loop_mode"`
}

func NewPlayer() Player {
	return Player{LoopMode: LoopOff}
}

func (r *Room) Play(now float64, timestamp float64, index *int) {
	r.Player.IsPlaying = true
	r.Player.Timestamp = timestamp
	r.Player.StartTime = now - timestamp
	if index != nil {
		r.Player.CurrentTrackIndex = *index
	}
	r.Player.LastUpdated = now
}

func (r *Room) Pause(now float64, timestamp float64) {
	r.Player.IsPlaying = false
	r.Player.Timestamp = timestamp
	r.Player.LastUpdated = now
}

func (r *Room) Seek(now float64, timestamp float64) {
	r.Player.Timestamp = timestamp
	if r.Player.IsPlaying {
		r.Player.StartTime = now - timestamp
	}
	r.Player.LastUpdated = now
}

func (r *Room) SetLoopMode(now float64, mode LoopMode) {
	r.Player.LoopMode = mode
	r.Player.LastUpdated = now
}

// Next advances the queue. An auto advance with per-track loop restarts the
// same track; otherwise the next track starts, the queue wraps under queue
// loop, and an exhausted queue stops with the index left in place.
func (r *Room) Next(now float64, trigger Trigger) {
	p := &r.Player
	switch {
	case trigger == TriggerAuto && p.LoopMode == LoopTrack:
		p.Timestamp = 0
		p.IsPlaying = true
		p.StartTime = now
	case p.CurrentTrackIndex+1 < len(r.Queue):
		p.CurrentTrackIndex++
		p.Timestamp = 0
		p.IsPlaying = true
		p.StartTime = now
	case p.LoopMode == LoopQueue:
		p.CurrentTrackIndex = 0
		p.Timestamp = 0
		p.IsPlaying = true
		p.StartTime = now
	default:
		p.IsPlaying = false
		p.Timestamp = 0
	}
	p.LastUpdated = now
}

func (r *Room) Prev(now float64) {
	if r.Player.CurrentTrackIndex == 0 {
		return
	}

	r.Player.CurrentTrackIndex--
	r.Player.Timestamp = 0
	r.Player.IsPlaying = true
	r.Player.StartTime = now
	r.Player.LastUpdated = now
}

// PlayTrack jumps to a queue entry by id and starts it from zero.
func (r *Room) PlayTrack(now float64, trackId string) bool {
	idx := r.trackIndex(trackId)
	if idx == -1 {
		return false
	}

	r.Player.CurrentTrackIndex = idx
	r.Player.IsPlaying = true
	r.Player.Timestamp = 0
	r.Player.StartTime = now
	r.Player.LastUpdated = now

	return true
}

// AdoptHostReport applies the host's periodic clock reading. A report landing
// within guard seconds of the last update is discarded whole, so a stale host
// clock cannot clobber a just-applied seek or skip.
func (r *Room) AdoptHostReport(now float64, timestamp float64, isPlaying bool, guard float64) bool {
	if now-r.Player.LastUpdated < guard {
		return false
	}

	r.adoptHostState(now, timestamp, isPlaying)

	return true
}

// AdoptHostState applies a host reading unconditionally. Used for
// resync-on-join, where the requester has no prior state to protect.
func (r *Room) AdoptHostState(now float64, timestamp float64, isPlaying bool) {
	r.adoptHostState(now, timestamp, isPlaying)
}

func (r *Room) adoptHostState(now float64, timestamp float64, isPlaying bool) {
	r.Player.Timestamp = timestamp
	r.Player.IsPlaying = isPlaying
	if isPlaying {
		r.Player.StartTime = now - timestamp
	}
	r.Player.LastUpdated = now
}
