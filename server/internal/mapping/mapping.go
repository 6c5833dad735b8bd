// Package mapping converts pointer positions on a rendered video into native
// resolution pixel coordinates.
package mapping

import (
	"fmt"
	"math"

	"video-coords/server/internal/geometry"
)

// Pointer is a position relative to the rendered box's top-left corner.
type Pointer struct {
	X float64
	Y float64
}

// Point is a native-resolution pixel coordinate.
type Point struct {
	X int
	Y int
}

// Map scales p into native pixels using independent horizontal and vertical
// factors. Letterbox padding, if any, is removed first. Positions outside the
// content box are clamped to [0, NativeWidth] x [0, NativeHeight].
func Map(p Pointer, g geometry.VideoGeometry) (Point, error) {
	if g.NativeWidth <= 0 || g.NativeHeight <= 0 || !(g.ContentWidth > 0) || !(g.ContentHeight > 0) {
		return Point{}, fmt.Errorf("%w: cannot scale %dx%d onto %gx%g",
			geometry.ErrGeometryUnavailable, g.NativeWidth, g.NativeHeight, g.ContentWidth, g.ContentHeight)
	}

	scaleX, scaleY := g.Scale()
	x := scale(p.X-g.ContentX, scaleX, g.NativeWidth)
	y := scale(p.Y-g.ContentY, scaleY, g.NativeHeight)

	return Point{X: x, Y: y}, nil
}

// FromClient maps a pointer reported in event space (clientX/clientY).
func FromClient(clientX, clientY float64, g geometry.VideoGeometry) (Point, error) {
	x, y := g.Relative(clientX, clientY)
	return Map(Pointer{X: x, Y: y}, g)
}

// ToRendered is the inverse of Map, used to place markers over the element.
func ToRendered(pt Point, g geometry.VideoGeometry) Pointer {
	scaleX, scaleY := g.Scale()
	return Pointer{
		X: float64(pt.X)/scaleX + g.ContentX,
		Y: float64(pt.Y)/scaleY + g.ContentY,
	}
}

func scale(v, factor float64, max int) int {
	scaled := math.Round(v * factor)
	switch {
	case math.IsNaN(scaled) || scaled < 0:
		return 0
	case scaled > float64(max):
		return max
	}
	return int(scaled)
}
