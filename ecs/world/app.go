package world

import (
	"context"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// AppDesc configures RunApp.
type AppDesc struct {
	// TargetFPS caps the frame rate. Zero runs frames back to back.
	TargetFPS float64
	// Frames stops the loop after this many frames. Zero runs until the
	// context is done or Quit is called.
	Frames int
	// DeltaTime is passed to Progress. Zero measures it from the clock.
	DeltaTime float64
}

// RunApp drives Progress until ctx is done, Quit is called or the frame
// budget is spent. A cancelled context is a normal stop and returns nil.
func (w *World) RunApp(ctx context.Context, desc AppDesc) error {
	if err := w.gate("RunApp", addon.App); err != nil {
		return err
	}

	var limiter *rate.Limiter
	if desc.TargetFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(desc.TargetFPS), 1)
	}
	log := w.log.WithFields(logrus.Fields{"target_fps": desc.TargetFPS, "frames": desc.Frames})
	log.Info("app loop started")

	for n := 0; desc.Frames <= 0 || n < desc.Frames; n++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				log.WithError(err).Debug("app loop stopped")
				return nil
			}
		} else if ctx.Err() != nil {
			return nil
		}

		running, err := w.Progress(desc.DeltaTime)
		if err != nil {
			return err
		}
		if !running {
			log.Info("app loop quit")
			return nil
		}
	}
	log.Info("app loop finished")
	return nil
}
