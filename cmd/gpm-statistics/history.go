package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/gopowerstats/history"
	"github.com/sartorproj/gopowerstats/internal/config"
	"github.com/sartorproj/gopowerstats/internal/render"
	"github.com/sartorproj/gopowerstats/smoothing"
)

func newHistoryCmd(a *app) *cobra.Command {
	preset := smoothing.HistoryConfig()
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Smooth the battery history recorded by UPower",
		Long: `The 'history' command fetches charge, rate or time estimates for the
last --timespan from UPower and prints them smoothed with the history preset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlag(config.KeyHistoryType, cmd.Flags().Lookup(typeFlag)); err != nil {
				return err
			}
			cfg, err := a.load(cmd, preset)
			if err != nil {
				return err
			}
			kind, err := history.ParseHistoryType(cfg.HistoryType)
			if err != nil {
				return err
			}

			bus, err := a.connect()
			if err != nil {
				return err
			}
			defer bus.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), busTimeout)
			defer cancel()
			dev, err := a.device(ctx, bus, cfg.Device)
			if err != nil {
				return err
			}
			points, err := dev.GetHistory(ctx, kind, cfg.Timespan, cfg.Resolution)
			if err != nil {
				return err
			}

			series := history.ToSeries(string(kind), points)
			smoothed, res := smoothing.New(cfg.Config, a.logger).SmoothSeries(series)
			return render.Series(a.out, cfg.Format, res, series, smoothed)
		},
	}
	flags := cmd.Flags()
	flags.String(config.KeyDevice, "", "UPower device object path (default first battery)")
	flags.String(typeFlag, string(history.HistoryCharge), "charge, rate, time-full or time-empty")
	flags.Duration(config.KeyTimespan, 6*time.Hour, "how far back to read")
	flags.Uint32(config.KeyResolution, 150, "maximum number of samples")
	addSmoothingFlags(cmd, preset)
	return cmd
}
