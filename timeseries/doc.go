// Package timeseries provides battery history series and utilities.
//
// A Series holds one value per sample (charge percentage, discharge rate,
// time to full or empty) with optional timestamps and device states, and
// converts to and from floatseries.Series for smoothing.
//
// # Creating a Series
//
//	values := []float64{98, 97, 97, 95, 94}
//	series := timeseries.New(values)
//
//	series, err := timeseries.NewWithTimestamps(times, values)
//
// # Loading from CSV
//
// The default layout is a header of time,value,state with unix-second
// or RFC 3339 times:
//
//	series, err := timeseries.LoadCSV("charge.csv", nil)
//
//	opts := timeseries.DefaultCSVOptions()
//	opts.ValueColumn = "rate"
//	series, err := timeseries.LoadCSVFromReader(reader, opts)
//
// Raw and smoothed series can be written side by side:
//
//	err := timeseries.WriteCSV(os.Stdout, raw, smoothed)
//
// # Smoothing
//
//	fs := series.Float32()
//	// ... floatseries.Convolve(fs, kernel) ...
//	smoothed, err := series.WithFloat32(result, "_smoothed")
//
// # Trimming
//
// Keep a graph's worth of data:
//
//	recent, err := series.LimitWidth(6 * time.Hour)
//	thinned := recent.LimitSize(120)
//	v, err := thinned.Interpolate(at)
package timeseries
