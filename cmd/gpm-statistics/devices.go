package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sartorproj/gopowerstats/history"
	"github.com/sartorproj/gopowerstats/internal/render"
	"github.com/sartorproj/gopowerstats/smoothing"
)

func newDevicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List UPower power devices",
		Long:  `The 'devices' command prints the object path of every power device UPower knows about.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.load(cmd, smoothing.HistoryConfig()); err != nil {
				return err
			}
			bus, err := a.connect()
			if err != nil {
				return err
			}
			defer bus.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), busTimeout)
			defer cancel()
			paths, err := history.EnumerateDevices(ctx, history.Manager(bus))
			if err != nil {
				return err
			}

			names := make([]string, len(paths))
			for i, p := range paths {
				names[i] = string(p)
			}
			return render.Devices(a.out, names)
		},
	}
}
