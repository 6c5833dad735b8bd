// Package playback samples the playback position of a video for click
// metadata. Nothing on the query path can seek.
package playback

import (
	"math"
	"time"
)

// Player is the read-only view of a media element.
type Player interface {
	CurrentTime() float64
	Paused() bool
}

// Element is a full playback primitive, including the ability to seek.
type Element interface {
	Player
	Seek(seconds float64)
}

type readOnly struct {
	p Player
}

func (r readOnly) CurrentTime() float64 { return r.p.CurrentTime() }
func (r readOnly) Paused() bool         { return r.p.Paused() }

// ReadOnly hides Seek so an annotator handed an Element cannot move playback.
func ReadOnly(e Element) Player {
	return readOnly{p: e}
}

// Snapshot is the playback state a host reports along with a pointer event.
type Snapshot struct {
	Time     float64
	IsPaused bool
}

func (s Snapshot) CurrentTime() float64 { return s.Time }
func (s Snapshot) Paused() bool         { return s.IsPaused }

// Timing is the temporal metadata attached to one click.
type Timing struct {
	FrameTime  float64
	FrameIndex *int
	UnixTime   int64 // milliseconds since epoch
}

// Annotator stamps clicks with playback time and wall-clock time.
type Annotator struct {
	// FrameRate in frames per second; 0 means unknown and leaves FrameIndex nil.
	FrameRate float64
	Now       func() time.Time
}

func NewAnnotator(frameRate float64) *Annotator {
	return &Annotator{FrameRate: frameRate, Now: time.Now}
}

// Annotate reads p once. Non-finite or negative positions are reported as 0.
func (a *Annotator) Annotate(p Player) Timing {
	t := p.CurrentTime()
	if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		t = 0
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	return Timing{
		FrameTime:  t,
		FrameIndex: FrameIndex(t, a.FrameRate),
		UnixTime:   now().UnixMilli(),
	}
}

// FrameIndex estimates floor(seconds * fps), or nil when fps is unknown.
// The result is clamped to the int32 range.
func FrameIndex(seconds, fps float64) *int {
	if !(fps > 0) || math.IsInf(fps, 0) || math.IsNaN(seconds) {
		return nil
	}
	v := math.Floor(seconds * fps)
	v = math.Max(math.MinInt32, math.Min(math.MaxInt32, v))
	idx := int(v)
	return &idx
}
