package world

import (
	"sync/atomic"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
)

// WorldStats is a snapshot taken after each frame.
type WorldStats struct {
	Frame     uint64
	DeltaTime float64
	SimTime   float64
	FrameTime time.Duration
	FPS       float64
	Storage   ecs.StorageStats
	Systems   []SystemStats
}

// SystemStats is a system's execution statistics together with its phase.
type SystemStats struct {
	Phase Phase
	ecs.SystemStats
}

// statsTracker publishes snapshots atomically so readers on other goroutines
// (the HTTP addon, the metrics collector) never see a partial one.
type statsTracker struct {
	current atomic.Pointer[WorldStats]
}

func (w *World) initStats() error {
	if !enabled(w.flags, addon.Stats) {
		return nil
	}
	w.stats = &statsTracker{}
	w.stats.record(w, 0, 0)
	return nil
}

func (t *statsTracker) record(w *World, dt float64, frameTime time.Duration) *WorldStats {
	snap := &WorldStats{
		DeltaTime: dt,
		FrameTime: frameTime,
		Storage:   *w.storage.CollectStats(),
	}
	if dt > 0 {
		snap.FPS = 1 / dt
	}
	if p := w.pipeline; p != nil {
		snap.Frame = p.frame
		snap.SimTime = p.simTime
		for i, s := range p.phases {
			for _, st := range s.GetStats().Systems {
				snap.Systems = append(snap.Systems, SystemStats{Phase: Phase(i), SystemStats: st})
			}
		}
	}
	t.current.Store(snap)
	return snap
}

func (t *statsTracker) load() *WorldStats {
	return t.current.Load()
}

// Stats returns the latest snapshot.
func (w *World) Stats() (WorldStats, error) {
	if err := w.gate("Stats", addon.Stats); err != nil {
		return WorldStats{}, err
	}
	return *w.stats.load(), nil
}
