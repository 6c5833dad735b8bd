package playback

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeElement counts seeks so tests can prove the query path has none.
type fakeElement struct {
	position float64
	paused   bool
	seeks    int
	reads    int
}

func (f *fakeElement) CurrentTime() float64 { f.reads++; return f.position }
func (f *fakeElement) Paused() bool         { return f.paused }
func (f *fakeElement) Seek(seconds float64) { f.seeks++; f.position = seconds }

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestAnnotateDoesNotMovePlayback(t *testing.T) {
	el := &fakeElement{position: 12.5, paused: true}
	a := &Annotator{FrameRate: 30, Now: fixedClock(1700000000000)}

	timing := a.Annotate(ReadOnly(el))

	assert.InDelta(t, 12.5, timing.FrameTime, 1e-9)
	assert.Equal(t, 0, el.seeks)
	assert.Equal(t, 12.5, el.position)
	assert.Equal(t, 1, el.reads)

	// A second click still sees the same position.
	timing = a.Annotate(ReadOnly(el))
	assert.InDelta(t, 12.5, timing.FrameTime, 1e-9)
	assert.Equal(t, 0, el.seeks)
}

func TestReadOnlyHidesSeek(t *testing.T) {
	p := ReadOnly(&fakeElement{position: 3})
	_, canSeek := p.(Element)
	assert.False(t, canSeek)
}

func TestAnnotateFrameIndex(t *testing.T) {
	a := &Annotator{FrameRate: 30, Now: fixedClock(0)}
	timing := a.Annotate(Snapshot{Time: 12.5, IsPaused: true})
	require.NotNil(t, timing.FrameIndex)
	assert.Equal(t, 375, *timing.FrameIndex)

	timing = (&Annotator{FrameRate: 29.97, Now: fixedClock(0)}).Annotate(Snapshot{Time: 1})
	require.NotNil(t, timing.FrameIndex)
	assert.Equal(t, 29, *timing.FrameIndex)
}

func TestAnnotateUnknownFrameRate(t *testing.T) {
	timing := NewAnnotator(0).Annotate(Snapshot{Time: 4.2})
	assert.Nil(t, timing.FrameIndex)
	assert.InDelta(t, 4.2, timing.FrameTime, 1e-9)

	assert.Nil(t, FrameIndex(4.2, -1))
	assert.Nil(t, FrameIndex(4.2, math.Inf(1)))
}

func TestAnnotateUnixTime(t *testing.T) {
	timing := (&Annotator{Now: fixedClock(1700000000123)}).Annotate(Snapshot{})
	assert.Equal(t, int64(1700000000123), timing.UnixTime)

	before := time.Now().UnixMilli()
	timing = (&Annotator{}).Annotate(Snapshot{})
	assert.GreaterOrEqual(t, timing.UnixTime, before)
}

func TestAnnotateSanitisesPosition(t *testing.T) {
	a := &Annotator{FrameRate: 25, Now: fixedClock(0)}
	for _, v := range []float64{math.NaN(), math.Inf(1), -3} {
		timing := a.Annotate(Snapshot{Time: v})
		assert.Equal(t, 0.0, timing.FrameTime)
		require.NotNil(t, timing.FrameIndex)
		assert.Equal(t, 0, *timing.FrameIndex)
	}
}

func TestSeekFor(t *testing.T) {
	tests := []struct {
		name string
		prev string
		next Cue
		want *float64
	}{
		{"first mount without start", "", Cue{Source: "a.mp4"}, nil},
		{"first mount with start", "", Cue{Source: "a.mp4", StartTime: 7}, ptr(7)},
		{"re-render keeps position", "a.mp4", Cue{Source: "a.mp4", StartTime: 7}, nil},
		{"new source with start", "a.mp4", Cue{Source: "b.mp4", StartTime: 2.5}, ptr(2.5)},
		{"new source negative start", "a.mp4", Cue{Source: "b.mp4", StartTime: -1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SeekFor(tt.prev, tt.next))
		})
	}
}

func ptr(f float64) *float64 { return &f }

func TestFrameIndexClampsHugeTimes(t *testing.T) {
	idx := FrameIndex(1e300, 30)
	require.NotNil(t, idx)
	assert.Equal(t, math.MaxInt32, *idx)

	idx = FrameIndex(-1e300, 30)
	require.NotNil(t, idx)
	assert.Equal(t, math.MinInt32, *idx)

	idx = NewAnnotator(60).Annotate(Snapshot{Time: math.MaxFloat64}).FrameIndex
	require.NotNil(t, idx)
	assert.Equal(t, math.MaxInt32, *idx)

	assert.Nil(t, FrameIndex(math.NaN(), 30))
}
