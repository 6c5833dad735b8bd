// Package geometry relates a video's native resolution to the box it is
// rendered in on screen.
package geometry

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrGeometryUnavailable is returned while the native size or the layout of the
// video surface is not known yet. Clicks resolved against it must be dropped.
var ErrGeometryUnavailable = errors.New("video geometry unavailable")

// Mode selects how the native frame is laid out inside the rendered box.
type Mode string

const (
	// ModeStretch scales each axis independently to fill the rendered box.
	ModeStretch Mode = "stretch"
	// ModeLetterbox scales uniformly and centres the frame, leaving bars on one axis.
	ModeLetterbox Mode = "letterbox"
)

// ParseMode maps a config value onto a Mode. Empty means stretch.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeStretch:
		return ModeStretch, nil
	case ModeLetterbox:
		return ModeLetterbox, nil
	}
	return "", fmt.Errorf("unknown geometry mode %q", s)
}

// Surface is a snapshot of the live video element taken when a pointer event
// arrives. Left/Top/Width/Height are the element's bounding box in the same
// coordinate space the pointer is reported in.
type Surface struct {
	NativeWidth  int
	NativeHeight int
	Left         float64
	Top          float64
	Width        float64
	Height       float64
}

// VideoGeometry is derived per click and never persisted.
type VideoGeometry struct {
	NativeWidth    int
	NativeHeight   int
	RenderedWidth  float64
	RenderedHeight float64
	OffsetX        float64
	OffsetY        float64

	// Content is the part of the rendered box that shows video pixels,
	// relative to the box's top-left corner. In stretch mode it is the whole box.
	ContentX      float64
	ContentY      float64
	ContentWidth  float64
	ContentHeight float64
}

// Relative converts a pointer position in event space into one relative to the
// rendered box.
func (g VideoGeometry) Relative(clientX, clientY float64) (float64, float64) {
	return clientX - g.OffsetX, clientY - g.OffsetY
}

// Scale returns the native pixels per rendered content pixel on each axis.
func (g VideoGeometry) Scale() (float64, float64) {
	return float64(g.NativeWidth) / g.ContentWidth, float64(g.NativeHeight) / g.ContentHeight
}

// Letterboxed reports whether the content box leaves bars inside the rendered box.
func (g VideoGeometry) Letterboxed() bool {
	return g.ContentX > 0 || g.ContentY > 0
}

// Resolver builds a VideoGeometry from the surface as it is right now.
type Resolver struct {
	Mode Mode
}

func NewResolver(mode Mode) *Resolver {
	return &Resolver{Mode: mode}
}

// Resolve must be called with a snapshot taken at click time: native size only
// becomes known after metadata loads and layout changes on resize.
func (r *Resolver) Resolve(s Surface) (VideoGeometry, error) {
	if s.NativeWidth <= 0 || s.NativeHeight <= 0 {
		return VideoGeometry{}, fmt.Errorf("%w: native size %dx%d not loaded", ErrGeometryUnavailable, s.NativeWidth, s.NativeHeight)
	}
	if !(s.Width > 0) || !(s.Height > 0) || math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0) {
		return VideoGeometry{}, fmt.Errorf("%w: rendered box %gx%g not laid out", ErrGeometryUnavailable, s.Width, s.Height)
	}

	g := VideoGeometry{
		NativeWidth:    s.NativeWidth,
		NativeHeight:   s.NativeHeight,
		RenderedWidth:  s.Width,
		RenderedHeight: s.Height,
		OffsetX:        s.Left,
		OffsetY:        s.Top,
		ContentWidth:   s.Width,
		ContentHeight:  s.Height,
	}

	if r.Mode == ModeLetterbox {
		scale := math.Min(s.Width/float64(s.NativeWidth), s.Height/float64(s.NativeHeight))
		g.ContentWidth = float64(s.NativeWidth) * scale
		g.ContentHeight = float64(s.NativeHeight) * scale
		g.ContentX = (s.Width - g.ContentWidth) / 2
		g.ContentY = (s.Height - g.ContentHeight) / 2
	}

	return g, nil
}
