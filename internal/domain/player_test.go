package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const syncGuard = 1.5

func TestPlayAnchorsStartTime(t *testing.T) {
	r := testRoom("a", "b")

	r.Play(100, 30, nil)
	assert.True(t, r.Player.IsPlaying)
	assert.Equal(t, 30.0, r.Player.Timestamp)
	assert.Equal(t, 70.0, r.Player.StartTime)
	assert.Equal(t, 100.0, r.Player.LastUpdated)
}

func TestPlayWithIndex(t *testing.T) {
	r := testRoom("a", "b", "c")

	idx := 2
	r.Play(100, 0, &idx)
	assert.Equal(t, 2, r.Player.CurrentTrackIndex)
}

func TestPauseKeepsStaleStartTime(t *testing.T) {
	r := testRoom("a")
	r.Play(100, 10, nil)

	r.Pause(120, 30)
	assert.False(t, r.Player.IsPlaying)
	assert.Equal(t, 30.0, r.Player.Timestamp)
	assert.Equal(t, 90.0, r.Player.StartTime, "start time is irrelevant while paused and left as-is")
}

func TestSeekWhilePlayingReanchors(t *testing.T) {
	r := testRoom("a")
	r.Play(100, 0, nil)

	r.Seek(150, 40)
	assert.Equal(t, 40.0, r.Player.Timestamp)
	assert.Equal(t, 110.0, r.Player.StartTime)
}

func TestSeekWhilePausedDoesNotReanchor(t *testing.T) {
	r := testRoom("a")
	r.Pause(100, 5)
	before := r.Player.StartTime

	r.Seek(150, 40)
	assert.Equal(t, 40.0, r.Player.Timestamp)
	assert.Equal(t, before, r.Player.StartTime)
}

func TestNextManualAdvances(t *testing.T) {
	r := testRoom("a", "b", "c")

	r.Next(100, TriggerManual)
	assert.Equal(t, 1, r.Player.CurrentTrackIndex)
	assert.True(t, r.Player.IsPlaying)
	assert.Equal(t, 0.0, r.Player.Timestamp)
	assert.Equal(t, 100.0, r.Player.StartTime)
}

func TestNextAutoWithTrackLoopRestarts(t *testing.T) {
	r := testRoom("a", "b")
	r.SetLoopMode(90, LoopTrack)

	r.Next(100, TriggerAuto)
	assert.Equal(t, 0, r.Player.CurrentTrackIndex, "per-track loop restarts the same track")
	assert.True(t, r.Player.IsPlaying)
	assert.Equal(t, 0.0, r.Player.Timestamp)
}

func TestNextManualIgnoresTrackLoop(t *testing.T) {
	r := testRoom("a", "b")
	r.SetLoopMode(90, LoopTrack)

	r.Next(100, TriggerManual)
	assert.Equal(t, 1, r.Player.CurrentTrackIndex, "a manual skip always advances")
}

func TestNextAtQueueEndWithQueueLoopWraps(t *testing.T) {
	r := testRoom("a", "b")
	r.Player.CurrentTrackIndex = 1
	r.SetLoopMode(90, LoopQueue)

	r.Next(100, TriggerManual)
	assert.Equal(t, 0, r.Player.CurrentTrackIndex)
	assert.True(t, r.Player.IsPlaying)
}

func TestNextAtQueueEndStops(t *testing.T) {
	r := testRoom("a", "b")
	r.Player.CurrentTrackIndex = 1
	r.Player.IsPlaying = true

	r.Next(100, TriggerManual)
	assert.Equal(t, 1, r.Player.CurrentTrackIndex, "index stays put when the queue is exhausted")
	assert.False(t, r.Player.IsPlaying)
	assert.Equal(t, 0.0, r.Player.Timestamp)
}

func TestPrev(t *testing.T) {
	r := testRoom("a", "b")
	r.Player.CurrentTrackIndex = 1

	r.Prev(100)
	assert.Equal(t, 0, r.Player.CurrentTrackIndex)
	assert.True(t, r.Player.IsPlaying)

	r.Prev(110)
	assert.Equal(t, 0, r.Player.CurrentTrackIndex, "prev at the head is a no-op")
}

func TestPlayTrack(t *testing.T) {
	r := testRoom("a", "b", "c")

	require.True(t, r.PlayTrack(100, "c"))
	assert.Equal(t, 2, r.Player.CurrentTrackIndex)
	assert.True(t, r.Player.IsPlaying)
	assert.Equal(t, 0.0, r.Player.Timestamp)
	assert.Equal(t, 100.0, r.Player.StartTime)

	assert.False(t, r.PlayTrack(100, "ghost"))
}

func TestHostReportWithinGuardIsDiscarded(t *testing.T) {
	r := testRoom("a")
	r.Seek(100, 50)
	before := r.Player

	adopted := r.AdoptHostReport(101, 10, true, syncGuard)
	assert.False(t, adopted)
	assert.Equal(t, before, r.Player, "player state must be bit-identical after a discarded report")
}

func TestHostReportPastGuardIsAdopted(t *testing.T) {
	r := testRoom("a")
	r.Seek(100, 50)

	adopted := r.AdoptHostReport(102, 61.5, true, syncGuard)
	require.True(t, adopted)
	assert.True(t, r.Player.IsPlaying)
	assert.Equal(t, 61.5, r.Player.Timestamp)
	assert.Equal(t, 102-61.5, r.Player.StartTime)
	assert.Equal(t, 102.0, r.Player.LastUpdated)
}

func TestHostReportPausedSkipsStartTime(t *testing.T) {
	r := testRoom("a")
	r.Play(100, 0, nil)
	before := r.Player.StartTime

	require.True(t, r.AdoptHostReport(110, 9.7, false, syncGuard))
	assert.False(t, r.Player.IsPlaying)
	assert.Equal(t, 9.7, r.Player.Timestamp)
	assert.Equal(t, before, r.Player.StartTime)
}

func TestAdoptHostStateIgnoresGuard(t *testing.T) {
	r := testRoom("a")
	r.Seek(100, 50)

	r.AdoptHostState(100.1, 12, true)
	assert.Equal(t, 12.0, r.Player.Timestamp, "resync-on-join has no prior state to protect")
	assert.Equal(t, 100.1-12, r.Player.StartTime)
}
