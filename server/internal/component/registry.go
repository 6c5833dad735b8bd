package component

import (
	"context"
	"fmt"
	"sync"
	"time"

	"video-coords/server/internal/emitter"
	"video-coords/server/internal/ledger"
	"video-coords/server/internal/playback"

	"go.uber.org/zap"
)

// Config is one render pass from the host. Width and Height only size the
// rendered box.
type Config struct {
	Source    string
	Width     *int
	Height    *int
	StartTime float64
	FrameRate float64
}

// Registry owns every mounted component, keyed by identity. A component is
// created on first mount and lives until it is released, rekeyed by a new
// source, or evicted after its session can no longer reach it.
type Registry struct {
	log      *zap.Logger
	store    ledger.Store
	emit     emitter.Emitter
	settings func() Settings
	now      func() time.Time

	mu         sync.Mutex
	components map[ledger.Identity]*Component
}

func NewRegistry(log *zap.Logger, store ledger.Store, emit emitter.Emitter, settings func() Settings) *Registry {
	return &Registry{
		log:        log,
		store:      store,
		emit:       emit,
		settings:   settings,
		now:        time.Now,
		components: make(map[ledger.Identity]*Component),
	}
}

// WithClock replaces the wall clock used for click timestamps and idleness.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Mount performs a render pass. Re-rendering the same source keeps the ledger
// and returns a nil seek so playback stays where it is; a different source
// tears the old ledger down and starts a fresh one.
func (r *Registry) Mount(ctx context.Context, id ledger.Identity, cfg Config) (*Component, *float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := ""
	if c, ok := r.components[id]; ok {
		previous = c.Source()
		if previous == cfg.Source {
			c.rerender(cfg)
			return c, nil, nil
		}
		r.log.Info("Source changed, starting a new ledger",
			zap.Stringer("component", id),
			zap.Int("discarded_clicks", len(c.Clicks())))
		c.release()
		delete(r.components, id)
		r.emit.Close(id)
	}

	events, err := r.store.Mount(ctx, id, ledger.SourceDigest(cfg.Source))
	if err != nil {
		return nil, nil, fmt.Errorf("mount %s: %w", id, err)
	}

	c := &Component{
		id:        id,
		cue:       playback.Cue{Source: cfg.Source, StartTime: cfg.StartTime},
		width:     cfg.Width,
		height:    cfg.Height,
		frameRate: cfg.FrameRate,
		state:     Idle,
		ledger:    ledger.New(events),
		store:     r.store,
		emit:      r.emit,
		settings:  r.settings,
		now:       r.now,
	}
	c.touch()
	r.components[id] = c

	r.log.Debug("Component mounted", zap.Stringer("component", id), zap.Int("restored_clicks", len(events)))
	return c, playback.SeekFor(previous, c.cue), nil
}

// Get returns the mounted component for id.
func (r *Registry) Get(id ledger.Identity) (*Component, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.components[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMounted, id)
	}
	return c, nil
}

// Release tears an identity down, deleting its ledger everywhere.
func (r *Registry) Release(ctx context.Context, id ledger.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.components[id]; ok {
		c.release()
		delete(r.components, id)
	}
	r.emit.Close(id)
	if err := r.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("release %s: %w", id, err)
	}
	r.log.Debug("Component released", zap.Stringer("component", id))
	return nil
}

// Evict drops components idle for longer than ttl. With purge false the store
// keeps their rows, so a later mount of the same source resumes the ledger;
// with purge true the ledger is deleted as on Release.
func (r *Registry) Evict(ctx context.Context, ttl time.Duration, purge bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	evicted := 0
	for id, c := range r.components {
		if !c.idleSince().Before(cutoff) {
			continue
		}
		c.release()
		delete(r.components, id)
		r.emit.Close(id)
		evicted++
		if purge {
			if err := r.store.Delete(ctx, id); err != nil {
				return evicted, fmt.Errorf("evict %s: %w", id, err)
			}
		}
	}
	return evicted, nil
}

// Len is the number of mounted components.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.components)
}
