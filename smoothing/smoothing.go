// Package smoothing cleans and smooths battery series for graphing.
package smoothing

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/sartorproj/gopowerstats/floatseries"
	"github.com/sartorproj/gopowerstats/timeseries"
)

// DefaultKernelLength is the Gaussian kernel length used for every graph.
const DefaultKernelLength = 15

// Config controls the outlier pass and the Gaussian kernel.
type Config struct {
	KernelLength   int     `mapstructure:"kernel-length"`
	Sigma          float32 `mapstructure:"sigma"`
	RemoveOutliers bool    `mapstructure:"remove-outliers"`
	OutlierWindow  int     `mapstructure:"outlier-window"`
	OutlierSigma   float32 `mapstructure:"outlier-sigma"`
}

// HistoryConfig returns the settings used for history graphs.
func HistoryConfig() Config {
	return Config{
		KernelLength:   DefaultKernelLength,
		Sigma:          2.0,
		RemoveOutliers: true,
		OutlierWindow:  3,
		OutlierSigma:   10.0,
	}
}

// StatisticsConfig returns the settings used for charge and discharge profiles.
func StatisticsConfig() Config {
	cfg := HistoryConfig()
	cfg.Sigma = 1.1
	return cfg
}

// Validate checks the outlier settings. Kernel settings are not checked
// here: a kernel that cannot be built makes Smooth return the raw data.
func (c Config) Validate() error {
	var errs []error
	if c.RemoveOutliers {
		if c.OutlierWindow <= 0 || c.OutlierWindow%2 == 0 {
			errs = append(errs, fmt.Errorf("outlier-window %d must be a positive odd number", c.OutlierWindow))
		}
		if c.OutlierSigma < 0 {
			errs = append(errs, fmt.Errorf("outlier-sigma %v must not be negative", c.OutlierSigma))
		}
	}
	return errors.Join(errs...)
}

// Result is the outcome of smoothing one series.
type Result struct {
	Values          *floatseries.Series
	Smoothed        bool  // false when Values is the unsmoothed input
	OutliersRemoved bool  // true when the outlier pass ran
	Err             error // why smoothing or the outlier pass was skipped
}

// Smoother applies a fixed kernel to any number of series.
type Smoother struct {
	cfg       Config
	kernel    *floatseries.Series
	kernelErr error
	logger    *log.Logger
}

// New builds the kernel for cfg. A nil logger discards output.
func New(cfg Config, logger *log.Logger) *Smoother {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Smoother{cfg: cfg, logger: logger}
	s.kernel, s.kernelErr = floatseries.ComputeGaussian(cfg.KernelLength, cfg.Sigma)
	if s.kernelErr != nil {
		logger.Warn("cannot build kernel, graphs will not be smoothed", "err", s.kernelErr)
	} else {
		logger.Debug("built kernel", "length", cfg.KernelLength, "sigma", cfg.Sigma, "sum", s.kernel.Sum())
	}
	return s
}

// Config returns the smoother's settings.
func (s *Smoother) Config() Config {
	return s.cfg
}

// Kernel returns the Gaussian kernel, or the error that prevented building it.
func (s *Smoother) Kernel() (*floatseries.Series, error) {
	if s.kernelErr != nil {
		return nil, s.kernelErr
	}
	return floatseries.FromValues(s.kernel.Values()), nil
}

// Smooth removes outliers (when enabled) and convolves data with the
// kernel. data is never modified. If the kernel is unavailable the
// returned values are the input, or its outlier-cleaned copy.
func (s *Smoother) Smooth(data *floatseries.Series) Result {
	res := Result{Values: floatseries.FromValues(data.Values())}
	if data.Len() == 0 {
		return res
	}

	if s.cfg.RemoveOutliers {
		cleaned, err := floatseries.RemoveOutliers(res.Values, s.cfg.OutlierWindow, s.cfg.OutlierSigma)
		if err != nil {
			s.logger.Warn("skipping outlier removal", "err", err)
			res.Err = err
		} else {
			res.Values = cleaned
			res.OutliersRemoved = true
		}
	}

	if s.kernelErr != nil {
		res.Err = errors.Join(res.Err, s.kernelErr)
		return res
	}

	smoothed, err := floatseries.Convolve(res.Values, s.kernel)
	if err != nil {
		res.Err = errors.Join(res.Err, err)
		return res
	}
	res.Values = smoothed
	res.Smoothed = true
	return res
}

// SmoothSeries smooths a timestamped series, keeping its times and states.
func (s *Smoother) SmoothSeries(series *timeseries.Series) (*timeseries.Series, Result) {
	res := s.Smooth(series.Float32())
	out, err := series.WithFloat32(res.Values, "_smoothed")
	if err != nil {
		res.Smoothed = false
		res.Err = errors.Join(res.Err, err)
		out = series.Copy()
	}
	s.logger.Debug("smoothed series", "name", series.Name, "samples", series.Len(), "smoothed", res.Smoothed)
	return out, res
}

// Summary holds the aggregate values shown beside a graph.
type Summary struct {
	Samples  int
	Sum      float32
	Average  float32 // NaN when there are no samples
	Integral float32
}

// Summarize computes the sum, average and full-range integral of data.
func Summarize(data *floatseries.Series) Summary {
	sum := Summary{
		Samples: data.Len(),
		Sum:     data.Sum(),
		Average: data.Average(),
	}
	if data.Len() > 1 {
		sum.Integral, _ = data.ComputeIntegral(0, data.Len()-1)
	}
	return sum
}
