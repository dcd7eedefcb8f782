package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/spf13/cobra"
)

func newAddonsCommand(c *cli) *cobra.Command {
	var enabledOnly bool
	cmd := &cobra.Command{
		Use:   "addons",
		Short: "List addons and whether the configuration enables them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags, err := c.cfg.Flags()
			if err != nil {
				return err
			}
			values := flags.Values()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ADDON\tENABLED\tREQUIRES\tDESCRIPTION")
			for _, id := range addon.Known() {
				if enabledOnly && !values[id] {
					continue
				}
				reqs := addon.Requires(id)
				names := make([]string, len(reqs))
				for i, r := range reqs {
					names[i] = string(r)
				}
				requires := strings.Join(names, ",")
				if requires == "" {
					requires = "-"
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\t%s\n", id, values[id], requires, addon.Describe(id))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&enabledOnly, "enabled", false, "only list enabled addons")
	return cmd
}
