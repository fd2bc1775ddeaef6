// Package gopowerstats smooths battery history and statistics for graphing.
//
// The core is a fixed-length float32 series with the numeric operations
// a power statistics viewer needs before it draws a graph: a Gaussian
// kernel, edge-clamped convolution, glitch removal, sums, averages and
// inclusive integrals.
//
// # Quick Start
//
// Smooth a series with the history preset:
//
//	series, _ := timeseries.LoadCSV("charge.csv", nil)
//	smoothed, res := smoothing.New(smoothing.HistoryConfig(), nil).SmoothSeries(series)
//	if !res.Smoothed {
//		log.Warn("showing raw data", "err", res.Err)
//	}
//
// Build the kernel directly:
//
//	kernel, err := floatseries.ComputeGaussian(15, 2.0)
//	out, err := floatseries.Convolve(floatseries.FromFloat64(values), kernel)
//
// # Packages
//
//   - floatseries: fixed-length float32 series, Gaussian kernel, convolution, outlier removal
//   - timeseries: timestamped battery series, CSV load/save, resampling helpers
//   - history: UPower device history and statistics over D-Bus
//   - smoothing: outlier pass plus Gaussian smoothing with graceful fallback
//   - cmd/gpm-statistics: command line front end
package gopowerstats
