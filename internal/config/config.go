// Package config loads gpm-statistics settings from flags, environment and file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sartorproj/gopowerstats/smoothing"
)

const (
	// EnvPrefix is prepended to every environment override, e.g. GPM_STATS_SIGMA.
	EnvPrefix = "GPM_STATS"

	appName = "gpm-statistics"
)

// Keys shared by flags, environment and the config file.
const (
	KeyConfig         = "config"
	KeyVerbose        = "verbose"
	KeyFormat         = "format"
	KeyKernelLength   = "kernel-length"
	KeySigma          = "sigma"
	KeyRemoveOutliers = "remove-outliers"
	KeyOutlierWindow  = "outlier-window"
	KeyOutlierSigma   = "outlier-sigma"
	KeyDevice         = "device"
	KeyHistoryType    = "history-type"
	KeyStatsType      = "stats-type"
	KeyTimespan       = "timespan"
	KeyResolution     = "resolution"
	KeyColumn         = "column"
	KeyWidth          = "width"
	KeyMaxSamples     = "max-samples"
	KeyAt             = "at"
)

// Output formats.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
)

// Config is the resolved configuration for one command run.
type Config struct {
	smoothing.Config `mapstructure:",squash"`

	Verbose     bool          `mapstructure:"verbose"`
	Format      string        `mapstructure:"format"`
	Device      string        `mapstructure:"device"`
	HistoryType string        `mapstructure:"history-type"`
	StatsType   string        `mapstructure:"stats-type"`
	Timespan    time.Duration `mapstructure:"timespan"`
	Resolution  uint32        `mapstructure:"resolution"`
	Column      string        `mapstructure:"column"`
	Width       time.Duration `mapstructure:"width"`       // 0 keeps every sample
	MaxSamples  int           `mapstructure:"max-samples"` // 0 keeps every sample
	At          string        `mapstructure:"at"`
}

// New returns a viper instance reading GPM_STATS_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyFormat, FormatTable)
	v.SetDefault(KeyHistoryType, "charge")
	v.SetDefault(KeyStatsType, "charging")
	v.SetDefault(KeyTimespan, 6*time.Hour)
	v.SetDefault(KeyResolution, 150)
	v.SetDefault(KeyColumn, "value")
	return v
}

// DefaultPath returns $XDG_CONFIG_HOME/gpm-statistics/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appName, "config.yaml")
}

// Load reads the config file, if any, and decodes v. Smoothing keys not
// set anywhere take their values from preset.
func Load(v *viper.Viper, preset smoothing.Config) (Config, error) {
	v.SetDefault(KeyKernelLength, preset.KernelLength)
	v.SetDefault(KeySigma, preset.Sigma)
	v.SetDefault(KeyRemoveOutliers, preset.RemoveOutliers)
	v.SetDefault(KeyOutlierWindow, preset.OutlierWindow)
	v.SetDefault(KeyOutlierSigma, preset.OutlierSigma)

	if err := readFile(v); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(v *viper.Viper) error {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	path := DefaultPath()
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	errs := []error{c.Config.Validate()}
	switch c.Format {
	case FormatTable, FormatCSV:
	default:
		errs = append(errs, fmt.Errorf("format %q must be %q or %q", c.Format, FormatTable, FormatCSV))
	}
	if c.Timespan <= 0 {
		errs = append(errs, fmt.Errorf("timespan %s must be positive", c.Timespan))
	}
	if c.Resolution == 0 {
		errs = append(errs, errors.New("resolution must be positive"))
	}
	if c.Width < 0 {
		errs = append(errs, fmt.Errorf("width %s must not be negative", c.Width))
	}
	if c.MaxSamples < 0 {
		errs = append(errs, fmt.Errorf("max-samples %d must not be negative", c.MaxSamples))
	}
	return errors.Join(errs...)
}
