package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/godbus/dbus/v5"
	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sartorproj/gopowerstats/history"
	"github.com/sartorproj/gopowerstats/internal/config"
	"github.com/sartorproj/gopowerstats/smoothing"
)

// busTimeout bounds every UPower round trip.
const busTimeout = 10 * time.Second

// typeFlag is --type on history and stats. Each binds it to its own key,
// history-type or stats-type, since the two accept different names.
const typeFlag = "type"

// busConn is a bus connection the commands can close.
type busConn interface {
	history.Bus
	Close() error
}

// app carries the state shared by one invocation of the command tree.
type app struct {
	v       *viper.Viper
	out     io.Writer
	errOut  io.Writer
	logger  *log.Logger
	connect func() (busConn, error)
}

func newApp(out, errOut io.Writer) *app {
	return &app{
		v:      config.New(),
		out:    out,
		errOut: errOut,
		logger: log.NewWithOptions(errOut, log.Options{Prefix: "gpm-statistics"}),
		connect: func() (busConn, error) {
			conn, err := history.Connect()
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	}
}

// load binds the command's flags and resolves the configuration on top
// of the smoothing preset.
func (a *app) load(cmd *cobra.Command, preset smoothing.Config) (config.Config, error) {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(a.v, preset)
	if err != nil {
		return config.Config{}, err
	}
	if cfg.Verbose {
		a.logger.SetLevel(log.DebugLevel)
		pp.Fprintln(a.errOut, cfg)
	}
	a.logger.Debug("loaded config", "file", a.v.ConfigFileUsed(), "format", cfg.Format)
	return cfg, nil
}

// device resolves the configured device, or the first battery.
func (a *app) device(ctx context.Context, bus history.Bus, name string) (*history.Client, error) {
	if name != "" {
		return history.Device(bus, dbus.ObjectPath(name)), nil
	}
	paths, err := history.EnumerateDevices(ctx, history.Manager(bus))
	if err != nil {
		return nil, err
	}
	path, err := history.FindBattery(paths)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using device", "path", path)
	return history.Device(bus, path), nil
}

func addSmoothingFlags(cmd *cobra.Command, preset smoothing.Config) {
	flags := cmd.Flags()
	flags.Int(config.KeyKernelLength, preset.KernelLength, "Gaussian kernel length (odd)")
	flags.Float32(config.KeySigma, preset.Sigma, "Gaussian kernel sigma")
	flags.Bool(config.KeyRemoveOutliers, preset.RemoveOutliers, "replace glitches before smoothing")
	flags.Int(config.KeyOutlierWindow, preset.OutlierWindow, "outlier window length (odd)")
	flags.Float32(config.KeyOutlierSigma, preset.OutlierSigma, "window std dev that marks a glitch")
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "gpm-statistics",
		Short: "Smoothed battery history and statistics",
		Long: `gpm-statistics reads battery history and charge profiles from UPower,
or samples from a CSV file, removes glitches, smooths them with a Gaussian
kernel and prints the result as a table or CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)

	flags := root.PersistentFlags()
	flags.String(config.KeyConfig, "", "config file (default "+config.DefaultPath()+")")
	flags.BoolP(config.KeyVerbose, "v", false, "dump the resolved config and log debug output")
	flags.String(config.KeyFormat, config.FormatTable, "output format: table or csv")

	root.AddCommand(
		newSmoothCmd(a),
		newHistoryCmd(a),
		newStatsCmd(a),
		newDevicesCmd(a),
		newKernelCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	a := newApp(out, errOut)
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		a.logger.Error(err)
		return 1
	}
	return 0
}
