package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/plus3/ecsrt/internal/demo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCommand(c *cli) *cobra.Command {
	var (
		frames    int
		particles demo.Options
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build a world, run the particle demo and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("frames") {
				c.cfg.App.Frames = frames
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, cmd.OutOrStdout(), particles)
		},
	}
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "stop after this many frames (0 runs until interrupted)")
	cmd.Flags().IntVar(&particles.Entities, "entities", 1000, "initial particle count")
	cmd.Flags().IntVar(&particles.Batch, "batch", 50, "particles emitted per emitter run")
	cmd.Flags().Uint64Var(&particles.Seed, "seed", 1, "random seed")
	particles.Bounds = demo.Bounds{Width: 800, Height: 600}
	return cmd
}

func (c *cli) run(ctx context.Context, out io.Writer, particles demo.Options) error {
	flags, err := c.cfg.Flags()
	if err != nil {
		return err
	}
	opts, err := c.cfg.WorldOptions()
	if err != nil {
		return err
	}
	opts = append(opts, world.WithModules(demo.Module(particles)))

	w, err := world.Build(flags, opts...)
	if err != nil {
		return err
	}
	c.log.WithField("addons", flags.String()).Info("world built")

	runErr := c.drive(ctx, w)
	report(out, w)
	return errors.Join(runErr, w.Close())
}

// drive runs the app loop when the app addon is enabled and falls back to a
// fixed-step Progress loop otherwise.
func (c *cli) drive(ctx context.Context, w *world.World) error {
	desc := c.cfg.AppDesc()
	if on, _ := w.IsEnabled(addon.App); on {
		return w.RunApp(ctx, desc)
	}
	if on, _ := w.IsEnabled(addon.Pipeline); !on {
		c.log.Warn("pipeline addon disabled, nothing to run")
		return nil
	}
	if desc.Frames <= 0 {
		return errors.New("the app addon is disabled: set --frames to bound the run")
	}

	dt := 1.0 / 60
	if desc.TargetFPS > 0 {
		dt = 1 / desc.TargetFPS
	}
	c.log.WithFields(logrus.Fields{"frames": desc.Frames, "dt": dt}).Info("stepping pipeline")
	for range desc.Frames {
		if ctx.Err() != nil {
			return nil
		}
		running, err := w.Progress(dt)
		if err != nil {
			return err
		}
		if !running {
			return nil
		}
	}
	return nil
}

func report(out io.Writer, w *world.World) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	if frame, err := w.Frame(); err == nil {
		fmt.Fprintf(tw, "frames\t%d\n", frame)
	}
	if storage, err := w.Storage(); err == nil {
		fmt.Fprintf(tw, "entities\t%d\n", storage.EntityCount())
	}

	stats, err := w.Stats()
	if err == nil {
		fmt.Fprintf(tw, "sim time\t%.3fs\n", stats.SimTime)
		fmt.Fprintf(tw, "fps\t%.1f\n", stats.FPS)
		fmt.Fprintf(tw, "archetypes\t%d\n", stats.Storage.ArchetypeCount)
		for _, s := range stats.Systems {
			fmt.Fprintf(tw, "system %s\t%s runs=%d last=%s\n", s.Name, s.Phase, s.ExecutionCount, s.LastDuration)
		}
	}

	if alerts, err := w.Alerts(); err == nil {
		for _, a := range alerts {
			fmt.Fprintf(tw, "alert %s\t%s %s %g (value %g)\n", a.Rule.Name, a.Rule.Metric, a.Rule.Op, a.Rule.Threshold, a.Value)
		}
	}
}
