package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sartorproj/gopowerstats/history"
	"github.com/sartorproj/gopowerstats/internal/config"
	"github.com/sartorproj/gopowerstats/internal/render"
	"github.com/sartorproj/gopowerstats/smoothing"
)

func newStatsCmd(a *app) *cobra.Command {
	preset := smoothing.StatisticsConfig()
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Smooth the battery charge or discharge profile",
		Long: `The 'stats' command fetches the charging or discharging profile UPower
keeps for a battery, one sample per percent, and prints it smoothed with the
statistics preset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.v.BindPFlag(config.KeyStatsType, cmd.Flags().Lookup(typeFlag)); err != nil {
				return err
			}
			cfg, err := a.load(cmd, preset)
			if err != nil {
				return err
			}
			kind, err := history.ParseStatsType(cfg.StatsType)
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
			points, err := dev.GetStatistics(ctx, kind)
			if err != nil {
				return err
			}

			series := history.StatsToSeries(string(kind), points)
			smoothed, res := smoothing.New(cfg.Config, a.logger).SmoothSeries(series)
			return render.Series(a.out, cfg.Format, res, series, smoothed)
		},
	}
	flags := cmd.Flags()
	flags.String(config.KeyDevice, "", "UPower device object path (default first battery)")
	flags.String(typeFlag, string(history.StatsCharging), "charging or discharging")
	addSmoothingFlags(cmd, preset)
	return cmd
}
