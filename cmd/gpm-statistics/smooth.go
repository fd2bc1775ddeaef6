package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sartorproj/gopowerstats/internal/config"
	"github.com/sartorproj/gopowerstats/internal/render"
	"github.com/sartorproj/gopowerstats/smoothing"
	"github.com/sartorproj/gopowerstats/timeseries"
)

func newSmoothCmd(a *app) *cobra.Command {
	preset := smoothing.HistoryConfig()
	cmd := &cobra.Command{
		Use:   "smooth FILE",
		Short: "Smooth samples from a CSV file",
		Long: `The 'smooth' command loads a time,value[,state] CSV file, puts the rows
in time order, removes glitches, smooths the value column and prints raw and
smoothed values side by side. --width keeps only the most recent samples,
--max-samples thins the output evenly and --at prints the smoothed value
interpolated at one time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd, preset)
			if err != nil {
				return err
			}

			opts := timeseries.DefaultCSVOptions()
			opts.ValueColumn = cfg.Column
			series, err := timeseries.LoadCSV(args[0], opts)
			if err != nil {
				return err
			}
			a.logger.Debug("loaded samples", "file", args[0], "samples", series.Len())

			if series.HasTimestamps() {
				if err := series.SortByTime(); err != nil {
					return err
				}
			}
			if cfg.Width > 0 {
				if series, err = series.LimitWidth(cfg.Width); err != nil {
					return fmt.Errorf("--%s: %w", config.KeyWidth, err)
				}
				a.logger.Debug("limited width", "width", cfg.Width, "samples", series.Len())
			}
			if cfg.Verbose {
				series.Float32().Log(a.logger)
			}

			smoothed, res := smoothing.New(cfg.Config, a.logger).SmoothSeries(series)

			var at string
			if cfg.At != "" {
				if at, err = interpolate(smoothed, cfg.At); err != nil {
					return fmt.Errorf("--%s: %w", config.KeyAt, err)
				}
			}

			if cfg.MaxSamples > 0 && series.Len() > cfg.MaxSamples {
				series = series.LimitSize(cfg.MaxSamples)
				smoothed = smoothed.LimitSize(cfg.MaxSamples)
				a.logger.Debug("limited size", "samples", series.Len())
			}

			if err := render.Series(a.out, cfg.Format, res, series, smoothed); err != nil {
				return err
			}
			if at == "" {
				return nil
			}
			if cfg.Format == config.FormatCSV {
				a.logger.Info(at)
				return nil
			}
			_, err = fmt.Fprintln(a.out, at)
			return err
		},
	}
	flags := cmd.Flags()
	flags.String(config.KeyColumn, "value", "CSV column holding the samples")
	flags.Duration(config.KeyWidth, 0, "keep only samples this close to the newest (0 keeps all)")
	flags.Int(config.KeyMaxSamples, 0, "thin the output to at most this many samples (0 keeps all)")
	flags.String(config.KeyAt, "", "print the smoothed value interpolated at this time")
	addSmoothingFlags(cmd, preset)
	return cmd
}

// interpolate describes the value of s at the time given in field.
func interpolate(s *timeseries.Series, field string) (string, error) {
	t, err := timeseries.ParseTime(field, "")
	if err != nil {
		return "", err
	}
	v, err := s.Interpolate(t)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s at %s: %.2f", s.Name, t.Format(time.RFC3339), v), nil
}
