package domain

import "math/rand/v2"

// Track is one queue entry. StreamURL is the resolved asset; URL is what the
// member submitted.
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

func (r Room) trackIndex(trackId string) int {
	for i := range r.Queue {
		if r.Queue[i].Id == trackId {
			return i
		}
	}

	return -1
}

// AddTrack appends and reports whether the queue was empty before the add, in
// which case the current index has been pinned to 0.
func (r *Room) AddTrack(track Track) bool {
	wasEmpty := len(r.Queue) == 0
	r.Queue = append(r.Queue, track)
	if wasEmpty {
		r.Player.CurrentTrackIndex = 0
	}

	return wasEmpty
}

// RemoveTrack drops a track by id and repairs the current index:
// removals before the playing track shift it left, removing the playing track
// itself leaves the index naming whatever slid into its slot, and an index
// that fell off the end wraps to 0. An emptied queue stops playback.
func (r *Room) RemoveTrack(trackId string) bool {
	removed := r.trackIndex(trackId)
	if removed == -1 {
		return false
	}

	current := r.Player.CurrentTrackIndex
	r.Queue = append(r.Queue[:removed], r.Queue[removed+1:]...)

	switch {
	case removed < current:
		r.Player.CurrentTrackIndex = max(0, current-1)
	case removed == current:
		if len(r.Queue) == 0 {
			r.Player.IsPlaying = false
			r.Player.CurrentTrackIndex = 0
		} else if current >= len(r.Queue) {
			r.Player.CurrentTrackIndex = 0
		}
	}

	return true
}

// ReorderQueue rebuilds the queue to the given id order. Ids unknown to the
// room are dropped silently, as are current tracks omitted from the new order.
// The playing track is tracked by id across the rebuild; if it is gone the
// index resets to 0 and playback stops.
func (r *Room) ReorderQueue(orderedIds []string) {
	currentTrackId := ""
	if r.Player.CurrentTrackIndex >= 0 && r.Player.CurrentTrackIndex < len(r.Queue) {
		currentTrackId = r.Queue[r.Player.CurrentTrackIndex].Id
	}

	byId := make(map[string]Track, len(r.Queue))
	for _, track := range r.Queue {
		byId[track.Id] = track
	}

	reordered := make([]Track, 0, len(r.Queue))
	for _, id := range orderedIds {
		if track, ok := byId[id]; ok {
			reordered = append(reordered, track)
		}
	}
	r.Queue = reordered

	if currentTrackId != "" {
		if idx := r.trackIndex(currentTrackId); idx != -1 {
			r.Player.CurrentTrackIndex = idx
		} else {
			r.Player.CurrentTrackIndex = 0
			r.Player.IsPlaying = false
		}
	}
}

// ShuffleQueue pins the playing track to position 0 and permutes the rest
// uniformly. No-op on an empty queue.
func (r *Room) ShuffleQueue(rng *rand.Rand) {
	if len(r.Queue) == 0 {
		return
	}

	current := r.Player.CurrentTrackIndex
	if current < 0 || current >= len(r.Queue) {
		rng.Shuffle(len(r.Queue), func(i, j int) {
			r.Queue[i], r.Queue[j] = r.Queue[j], r.Queue[i]
		})
		r.Player.CurrentTrackIndex = 0
		return
	}

	tail := make([]Track, 0, len(r.Queue)-1)
	tail = append(tail, r.Queue[:current]...)
	tail = append(tail, r.Queue[current+1:]...)
	rng.Shuffle(len(tail), func(i, j int) {
		tail[i], tail[j] = tail[j], tail[i]
	})

	r.Queue = append([]Track{r.Queue[current]}, tail...)
	r.Player.CurrentTrackIndex = 0
}
