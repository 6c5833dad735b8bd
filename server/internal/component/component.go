// Package component ties the geometry, mapping, playback and ledger packages
// into the click handler of one rendered video.
package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"video-coords/server/internal/emitter"
	"video-coords/server/internal/geometry"
	"video-coords/server/internal/ledger"
	"video-coords/server/internal/mapping"
	"video-coords/server/internal/models"
	"video-coords/server/internal/playback"
)

var (
	// ErrInvalidPointerTarget is returned for events whose target is not the
	// video surface. Hosts drop these silently.
	ErrInvalidPointerTarget = errors.New("pointer target is not the video surface")

	// ErrPlaybackActive is returned for clicks on a playing video when only
	// paused frames may be annotated.
	ErrPlaybackActive = errors.New("video is playing")

	// ErrNotMounted is returned when no component exists for an identity.
	ErrNotMounted = errors.New("component not mounted")
)

// TargetVideo is the only pointer target clicks are recorded for.
const TargetVideo = "video"

// State of the click handling machine.
type State int

const (
	Idle State = iota
	Ready
	Recording
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Settings are read on every click so configuration reloads apply at once.
type Settings struct {
	Mode          geometry.Mode
	FrameRate     float64
	RequirePaused bool
}

// Click is one pointer event together with the surface and playback state
// sampled at the moment it happened.
type Click struct {
	Target   string
	ClientX  float64
	ClientY  float64
	Surface  geometry.Surface
	Playback playback.Snapshot
}

// ClickFromReport converts the wire form of a click.
func ClickFromReport(r models.ClickReport) Click {
	return Click{
		Target:  r.Target,
		ClientX: r.ClientX,
		ClientY: r.ClientY,
		Surface: geometry.Surface{
			NativeWidth:  r.VideoWidth,
			NativeHeight: r.VideoHeight,
			Left:         r.Rect.Left,
			Top:          r.Rect.Top,
			Width:        r.Rect.Width,
			Height:       r.Rect.Height,
		},
		Playback: playback.Snapshot{Time: r.CurrentTime, IsPaused: r.Paused},
	}
}

// Component owns the ledger of one rendered video. All of its methods are
// serialised: a click arriving while another is being recorded waits for it.
type Component struct {
	mu sync.Mutex

	id        ledger.Identity
	cue       playback.Cue
	width     *int
	height    *int
	frameRate float64

	state        State
	nativeWidth  int
	nativeHeight int

	ledger   *ledger.Ledger
	store    ledger.Store
	emit     emitter.Emitter
	settings func() Settings
	now      func() time.Time
	lastSeen time.Time
	released bool
}

func (c *Component) ID() ledger.Identity {
	return c.id
}

func (c *Component) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Source returns the source the component was mounted with.
func (c *Component) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cue.Source
}

// Clicks returns the ledger in insertion order.
func (c *Component) Clicks() []models.ClickEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Snapshot()
}

// View describes the component for a render response.
func (c *Component) View(seekTo *float64) models.ComponentView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return models.ComponentView{
		Key:    c.id.Key,
		Src:    c.cue.Source,
		Width:  c.width,
		Height: c.height,
		SeekTo: seekTo,
		State:  c.state.String(),
		Clicks: c.ledger.Snapshot(),
	}
}

// LoadedMetadata records the native size once the video's metadata is known.
func (c *Component) LoadedMetadata(width, height int) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return c.state, fmt.Errorf("%w: %s", ErrNotMounted, c.id)
	}
	c.touch()
	c.observe(width, height)
	return c.state, nil
}

// HandleClick runs one click through geometry, mapping and annotation and
// appends the result. On any error the ledger is left untouched.
func (c *Component) HandleClick(ctx context.Context, click Click) ([]models.ClickEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return nil, fmt.Errorf("%w: %s", ErrNotMounted, c.id)
	}
	c.touch()

	if click.Target != TargetVideo {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPointerTarget, click.Target)
	}

	settings := c.settings()
	if settings.RequirePaused && !click.Playback.Paused() {
		return nil, ErrPlaybackActive
	}

	// Geometry is always taken from this click's snapshot, never from mount.
	c.observe(click.Surface.NativeWidth, click.Surface.NativeHeight)
	g, err := geometry.NewResolver(settings.Mode).Resolve(click.Surface)
	if err != nil {
		return nil, err
	}

	c.state = Recording
	defer func() { c.state = Ready }()

	pt, err := mapping.FromClient(click.ClientX, click.ClientY, g)
	if err != nil {
		return nil, err
	}

	frameRate := c.frameRate
	if frameRate <= 0 {
		frameRate = settings.FrameRate
	}
	timing := (&playback.Annotator{FrameRate: frameRate, Now: c.now}).Annotate(click.Playback)

	event := c.ledger.Stamp(models.ClickEvent{
		X:          pt.X,
		Y:          pt.Y,
		FrameTime:  timing.FrameTime,
		FrameIndex: timing.FrameIndex,
		Width:      g.NativeWidth,
		Height:     g.NativeHeight,
		UnixTime:   timing.UnixTime,
	})

	if err := c.store.Append(ctx, c.id, c.ledger.Len(), event); err != nil {
		return nil, fmt.Errorf("persist click %d of %s: %w", c.ledger.Len(), c.id, err)
	}

	clicks := c.ledger.Append(event)
	c.emit.Emit(c.id, clicks)
	return clicks, nil
}

// observe moves Idle to Ready once a native size is known.
func (c *Component) observe(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.nativeWidth, c.nativeHeight = width, height
	if c.state == Idle {
		c.state = Ready
	}
}

// rerender applies a render pass for the source the component already has.
func (c *Component) rerender(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	c.width, c.height = cfg.Width, cfg.Height
	c.cue.StartTime = cfg.StartTime
	if cfg.FrameRate > 0 {
		c.frameRate = cfg.FrameRate
	}
}

// release detaches the component from its identity. It waits for a click in
// progress; every later call fails with ErrNotMounted.
func (c *Component) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
}

func (c *Component) touch() {
	c.lastSeen = c.now()
}

func (c *Component) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}
