// Command ecsrt-view runs the particle demo in a window with the debug
// overlay. Press F1 to hide or show the panels.
package main

import (
	"os"

	debugui_ebiten "github.com/plus3/ecsrt/ecs/debugui/ebiten"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/plus3/ecsrt/internal/config"
	"github.com/plus3/ecsrt/internal/demo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath string
		envFile    string
		width      int
		height     int
		particles  = demo.Options{Bounds: demo.Bounds{Width: 1280, Height: 720}}
	)
	log := logrus.New()

	root := &cobra.Command{
		Use:          "ecsrt-view",
		Short:        "Run the particle demo with the debug overlay",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.LoadEnv(&cfg, envFile); err != nil {
				return err
			}
			flags, err := cfg.Flags()
			if err != nil {
				return err
			}
			opts, err := cfg.WorldOptions()
			if err != nil {
				return err
			}
			opts = append(opts, world.WithModules(demo.Module(particles)))

			w, err := world.Build(flags, opts...)
			if err != nil {
				return err
			}
			log.WithField("addons", flags.String()).Info("opening window")
			return debugui_ebiten.Run(w, "ecsrt", width, height)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "YAML or JSON config file")
	root.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file overlaid before the process environment")
	root.Flags().IntVar(&width, "width", 1280, "window width")
	root.Flags().IntVar(&height, "height", 720, "window height")
	root.Flags().IntVar(&particles.Entities, "entities", 500, "initial particle count")
	root.Flags().IntVar(&particles.Batch, "batch", 25, "particles emitted per emitter run")
	root.Flags().Uint64Var(&particles.Seed, "seed", 1, "random seed")

	if err := root.Execute(); err != nil {
		log.WithError(err).Error("ecsrt-view failed")
		os.Exit(1)
	}
}
