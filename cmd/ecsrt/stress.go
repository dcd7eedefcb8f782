package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/plus3/ecsrt/internal/demo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type stressOptions struct {
	Duration       time.Duration
	GCPauseMetrics bool
	Demo           demo.Options
}

func newStressCommand(c *cli) *cobra.Command {
	o := stressOptions{Demo: demo.Options{Bounds: demo.Bounds{Width: 4000, Height: 4000}}}
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run the particle demo flat out and report frame timings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := c.stress(ctx, o)
			if err != nil {
				return err
			}
			return r.Generate(cmd.OutOrStdout())
		},
	}
	cmd.Flags().DurationVarP(&o.Duration, "duration", "d", 10*time.Second, "total run time")
	cmd.Flags().IntVar(&o.Demo.Entities, "entities", 10000, "initial particle count")
	cmd.Flags().IntVar(&o.Demo.Batch, "batch", 500, "particles emitted per emitter run")
	cmd.Flags().Uint64Var(&o.Demo.Seed, "seed", 1, "random seed")
	cmd.Flags().BoolVar(&o.GCPauseMetrics, "gc-pause-metrics", false, "include GC pause totals in the report")
	return cmd
}

func (c *cli) stress(ctx context.Context, o stressOptions) (*Report, error) {
	flags, err := c.cfg.Flags()
	if err != nil {
		return nil, err
	}
	for _, id := range []addon.ID{addon.Pipeline, addon.System} {
		if on, _ := flags.IsEnabled(id); !on {
			return nil, &world.SubsystemDisabledError{Op: "stress", Addon: id}
		}
	}
	opts, err := c.cfg.WorldOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, world.WithModules(demo.Module(o.Demo)))

	log := c.log.WithFields(logrus.Fields{"entities": o.Demo.Entities, "duration": o.Duration})
	log.Info("populating world")
	w, err := world.Build(flags, opts...)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Duration:       o.Duration,
		Entities:       o.Demo.Entities,
		Addons:         flags.String(),
		GCPauseMetrics: o.GCPauseMetrics,
	}
	if systems, err := w.Systems(); err == nil {
		for _, names := range systems {
			report.Systems += len(names)
		}
	}
	runtime.ReadMemStats(&report.MemStatsStart)

	log.Info("running")
	ctx, cancel := context.WithTimeout(ctx, o.Duration)
	defer cancel()

	start := time.Now()
	last := start
	var runErr error
Loop:
	for {
		select {
		case <-ctx.Done():
			break Loop
		default:
		}
		now := time.Now()
		dt := now.Sub(last).Seconds()
		last = now
		if dt <= 0 {
			dt = 1.0 / 60
		}

		running, err := w.Progress(dt)
		report.UpdateTime.Samples = append(report.UpdateTime.Samples, time.Since(now))
		report.TotalUpdates++
		if err != nil {
			runErr = err
			break
		}
		if !running {
			break
		}
	}

	report.TotalTime = time.Since(start)
	report.UpdateTime.Finalize()
	runtime.ReadMemStats(&report.MemStatsEnd)
	if stats, err := w.Stats(); err == nil {
		report.World = &stats
	}
	if storage, err := w.Storage(); err == nil {
		report.FinalEntities = storage.EntityCount()
	}
	log.WithField("updates", report.TotalUpdates).Info("finished")

	return report, errors.Join(runErr, w.Close())
}
