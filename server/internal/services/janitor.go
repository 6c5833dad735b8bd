package services

import (
	"context"
	"time"

	"video-coords/server/internal/emitter"

	"go.uber.org/zap"
)

// Evicter drops components that have been idle for longer than ttl.
type Evicter interface {
	Evict(ctx context.Context, ttl time.Duration, purge bool) (int, error)
}

// Janitor sweeps idle components out of memory. With purge set their ledgers
// are deleted from the store too; that is what the memory store needs, since
// nothing else could ever reach them again.
type Janitor struct {
	log     *zap.Logger
	evicter Evicter
	hub     *emitter.Hub
	ttl     time.Duration
	every   time.Duration
	purge   bool
}

func NewJanitor(log *zap.Logger, evicter Evicter, hub *emitter.Hub, ttl, every time.Duration, purge bool) *Janitor {
	return &Janitor{
		log:     log,
		evicter: evicter,
		hub:     hub,
		ttl:     ttl,
		every:   every,
		purge:   purge,
	}
}

// Run sweeps on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	if j.ttl <= 0 || j.every <= 0 {
		j.log.Info("Idle component eviction disabled")
		return nil
	}
	j.log.Info("Starting janitor...", zap.Duration("idle_ttl", j.ttl), zap.Duration("every", j.every), zap.Bool("purge", j.purge))

	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one eviction pass.
func (j *Janitor) Sweep(ctx context.Context) int {
	evicted, err := j.evicter.Evict(ctx, j.ttl, j.purge)
	if err != nil {
		j.log.Error("Failed to evict idle components", zap.Int("evicted", evicted), zap.Error(err))
	}

	fields := []zap.Field{zap.Int("evicted", evicted)}
	if j.hub != nil {
		stats := j.hub.Stats()
		fields = append(fields,
			zap.Uint64("emitted", stats.Emitted),
			zap.Uint64("delivered", stats.Delivered),
			zap.Uint64("replaced", stats.Replaced),
			zap.Int("subscribers", stats.Subscribers),
		)
	}
	j.log.Debug("Janitor sweep", fields...)
	return evicted
}
