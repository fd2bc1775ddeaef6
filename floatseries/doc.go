// Package floatseries provides a fixed-length float32 series and the
// signal processing used to smooth battery history graphs.
//
// # Creating a Series
//
// A series is allocated zero-filled and mutated in place:
//
//	s := floatseries.New(10)
//	_ = s.Set(4, 100.0)
//	v, err := s.Get(4)
//
// Every index must satisfy 0 <= i < s.Len(); anything else returns an
// error wrapping ErrIndexOutOfRange.
//
// # Aggregates
//
//	total := s.Sum()
//	mean := s.Average()              // NaN for an empty series
//	area, err := s.ComputeIntegral(0, 9)
//
// # Smoothing
//
// Build a Gaussian kernel and convolve the data with it. Edges are
// extended with the nearest sample:
//
//	kernel, err := floatseries.ComputeGaussian(15, 2.0)
//	if err != nil {
//	    // length/sigma pair truncates the curve; plot the raw data
//	}
//	smoothed, err := floatseries.Convolve(data, kernel)
//
// Single-sample glitches can be dropped first:
//
//	cleaned, err := floatseries.RemoveOutliers(data, 3, 10.0)
//
// All transforms allocate a new series and never modify their inputs.
package floatseries
