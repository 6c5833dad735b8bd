package metrics

import (
	"testing"

	"video-coords/server/internal/models"

	"github.com/stretchr/testify/assert"
)

func click(x, y int, frame float64, unix int64) models.ClickEvent {
	return models.ClickEvent{X: x, Y: y, FrameTime: frame, Width: 1280, Height: 720, UnixTime: unix}
}

func TestSummarizeEmptyLedger(t *testing.T) {
	s := Summarize(nil)
	assert.True(t, s["click_count"].Calculated)
	assert.Zero(t, s["click_count"].Value)
	for _, key := range []string{"frame_span", "centroid_x", "spread", "average_interval", "interval_variability"} {
		assert.False(t, s[key].Calculated, key)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.ClickEvent{
		click(0, 0, 10, 1000),
		click(1280, 720, 12.5, 2000),
		click(640, 360, 11, 3000),
		click(640, 360, 11, 4000),
	})

	assert.Equal(t, 4.0, s["click_count"].Value)
	assert.InDelta(t, 2.5, s["frame_span"].Value, 1e-9)
	assert.InDelta(t, 0.5, s["centroid_x"].Value, 1e-9)
	assert.InDelta(t, 0.5, s["centroid_y"].Value, 1e-9)
	assert.InDelta(t, 1000, s["average_interval"].Value, 1e-9)
	assert.Equal(t, 3, s["average_interval"].SampleSize)

	assert.True(t, s["interval_variability"].Calculated)
	assert.InDelta(t, 0, s["interval_variability"].Value, 1e-9)

	// Two clicks at the corners are sqrt(0.5) from the centre, two on it.
	assert.InDelta(t, 0.70710678/2, s["spread"].Value, 1e-6)
}

func TestCentroidSkipsClicksWithoutSize(t *testing.T) {
	s := Summarize([]models.ClickEvent{{X: 5, Y: 5}, click(640, 180, 0, 0)})
	assert.Equal(t, 1, s["centroid_x"].SampleSize)
	assert.InDelta(t, 0.5, s["centroid_x"].Value, 1e-9)
	assert.InDelta(t, 0.25, s["centroid_y"].Value, 1e-9)
	assert.False(t, s["spread"].Calculated)
}
