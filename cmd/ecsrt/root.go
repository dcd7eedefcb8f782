package main

import (
	"os"

	"github.com/plus3/ecsrt/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cli holds state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE.
type cli struct {
	configPath string
	envFile    string
	logLevel   string

	cfg config.Config
	log *logrus.Logger
}

func newRootCommand() *cobra.Command {
	c := &cli{log: logrus.New()}
	c.log.SetOutput(os.Stderr)
	c.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:          "ecsrt",
		Short:        "ECS runtime CLI",
		Long:         "ecsrt validates addon configurations and runs worlds built from them.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML or JSON config file")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file overlaid before the process environment")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "CLI log level (overrides the config)")

	root.AddCommand(newAddonsCommand(c))
	root.AddCommand(newCheckCommand(c))
	root.AddCommand(newRunCommand(c))
	root.AddCommand(newStressCommand(c))

	return root
}

func (c *cli) load() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if err := config.LoadEnv(&cfg, c.envFile); err != nil {
		return err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	c.log.SetLevel(level)
	c.cfg = cfg
	c.log.WithFields(logrus.Fields{
		"config": c.configPath,
		"preset": cfg.Preset,
	}).Debug("configuration loaded")
	return nil
}
