package main

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/spf13/cobra"
)

func newCheckCommand(c *cli) *cobra.Command {
	var build bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the addon configuration",
		Long: "check validates the dependency table and the runtime options. " +
			"With --build it also builds the world once and tears it down.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if err := c.check(build); err != nil {
				var merr *multierror.Error
				if errors.As(err, &merr) {
					for _, e := range merr.Errors {
						fmt.Fprintln(out, "error:", e)
					}
				} else {
					fmt.Fprintln(out, "error:", err)
				}
				return errors.New("configuration is invalid")
			}
			fmt.Fprintln(out, "ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&build, "build", false, "build and tear down the world")
	return cmd
}

// check collects every problem it can find instead of stopping at the first.
func (c *cli) check(build bool) error {
	var result *multierror.Error

	flags, err := c.cfg.Flags()
	if err != nil {
		return err
	}
	c.log.WithField("addons", flags.String()).Debug("checking")

	var deps *addon.DependencyError
	if err := flags.Validate(); errors.As(err, &deps) {
		for _, v := range deps.Violations {
			result = multierror.Append(result, fmt.Errorf("%s requires %s", v.Addon, v.Requires))
		}
	}

	opts, err := c.cfg.WorldOptions()
	if err != nil {
		result = multierror.Append(result, err)
	}

	known := make(map[string]bool)
	for _, name := range world.MetricNames() {
		known[name] = true
	}
	for _, a := range c.cfg.Alerts {
		if !known[a.Metric] {
			result = multierror.Append(result, fmt.Errorf("alert %q: unknown metric %q", a.Name, a.Metric))
		}
	}

	if build && result.ErrorOrNil() == nil {
		w, err := world.Build(flags, opts...)
		if err != nil {
			return multierror.Append(result, err)
		}
		if err := w.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
