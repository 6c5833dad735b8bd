package mapping

import (
	"errors"
	"testing"

	"video-coords/server/internal/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolve(t *testing.T, mode geometry.Mode, s geometry.Surface) geometry.VideoGeometry {
	t.Helper()
	g, err := geometry.NewResolver(mode).Resolve(s)
	require.NoError(t, err)
	return g
}

func TestMapScalesDisplayToNative(t *testing.T) {
	g := resolve(t, geometry.ModeStretch, geometry.Surface{NativeWidth: 1280, NativeHeight: 720, Width: 640, Height: 360})

	pt, err := Map(Pointer{X: 320, Y: 180}, g)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 640, Y: 360}, pt)
}

func TestMapBottomRightIsNativeCorner(t *testing.T) {
	surfaces := []geometry.Surface{
		{NativeWidth: 1280, NativeHeight: 720, Width: 640, Height: 360},
		{NativeWidth: 1280, NativeHeight: 720, Width: 400, Height: 300},
		{NativeWidth: 320, NativeHeight: 240, Width: 1024, Height: 768},
	}
	for _, s := range surfaces {
		g := resolve(t, geometry.ModeStretch, s)
		pt, err := Map(Pointer{X: s.Width, Y: s.Height}, g)
		require.NoError(t, err)
		assert.Equal(t, Point{X: s.NativeWidth, Y: s.NativeHeight}, pt)
		assert.NotEqual(t, Point{X: int(s.Width), Y: int(s.Height)}, pt)
	}
}

func TestMapClamps(t *testing.T) {
	g := resolve(t, geometry.ModeStretch, geometry.Surface{NativeWidth: 1280, NativeHeight: 720, Width: 640, Height: 360})

	tests := []struct {
		name string
		in   Pointer
		want Point
	}{
		{"negative", Pointer{X: -15, Y: -3}, Point{X: 0, Y: 0}},
		{"beyond", Pointer{X: 700, Y: 500}, Point{X: 1280, Y: 720}},
		{"mixed", Pointer{X: -1, Y: 400}, Point{X: 0, Y: 720}},
		{"origin", Pointer{X: 0, Y: 0}, Point{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, err := Map(tt.in, g)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pt)
		})
	}
}

func TestMapRounds(t *testing.T) {
	g := resolve(t, geometry.ModeStretch, geometry.Surface{NativeWidth: 1920, NativeHeight: 1080, Width: 400, Height: 300})

	// 100.3 * 4.8 = 481.44, 50.5 * 3.6 = 181.8
	pt, err := Map(Pointer{X: 100.3, Y: 50.5}, g)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 481, Y: 182}, pt)
}

func TestMapLetterbox(t *testing.T) {
	// 1280x720 inside 400x300: content 400x225 with 37.5px bars top and bottom.
	g := resolve(t, geometry.ModeLetterbox, geometry.Surface{NativeWidth: 1280, NativeHeight: 720, Width: 400, Height: 300})

	pt, err := Map(Pointer{X: 200, Y: 150}, g)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 640, Y: 360}, pt)

	// Clicks on the bars clamp onto the frame edge.
	pt, err = Map(Pointer{X: 200, Y: 10}, g)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 640, Y: 0}, pt)

	pt, err = Map(Pointer{X: 400, Y: 290}, g)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 1280, Y: 720}, pt)
}

func TestFromClientSubtractsOffset(t *testing.T) {
	g := resolve(t, geometry.ModeStretch, geometry.Surface{NativeWidth: 1280, NativeHeight: 720, Left: 100, Top: 50, Width: 640, Height: 360})

	pt, err := FromClient(420, 230, g)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 640, Y: 360}, pt)
}

func TestToRenderedInvertsMap(t *testing.T) {
	g := resolve(t, geometry.ModeLetterbox, geometry.Surface{NativeWidth: 640, NativeHeight: 480, Width: 800, Height: 480})

	p := ToRendered(Point{X: 320, Y: 240}, g)
	assert.InDelta(t, 400, p.X, 1e-9)
	assert.InDelta(t, 240, p.Y, 1e-9)
}

func TestMapUnavailableGeometry(t *testing.T) {
	_, err := Map(Pointer{X: 1, Y: 1}, geometry.VideoGeometry{NativeWidth: 1280, NativeHeight: 720})
	require.Error(t, err)
	assert.True(t, errors.Is(err, geometry.ErrGeometryUnavailable))

	_, err = Map(Pointer{X: 1, Y: 1}, geometry.VideoGeometry{ContentWidth: 640, ContentHeight: 360})
	assert.True(t, errors.Is(err, geometry.ErrGeometryUnavailable))
}
