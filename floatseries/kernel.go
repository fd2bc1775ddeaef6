package floatseries

import (
	"fmt"
	"math"
)

// KernelTolerance is the allowed deviation of a Gaussian kernel's sum from 1.0.
const KernelTolerance = 0.01

// GaussianValue returns the normal probability density at x for the given sigma.
func GaussianValue(x, sigma float32) float32 {
	xf, sf := float64(x), float64(sigma)
	return float32((1.0 / (math.Sqrt(2.0*math.Pi) * sf)) * math.Exp(-(xf*xf)/(2.0*sf*sf)))
}

// ComputeGaussian creates a symmetric Gaussian kernel of odd length.
// The kernel is not renormalised: if too much of the curve is truncated
// for the requested sigma, ErrPrecision is returned instead.
func ComputeGaussian(length int, sigma float32) (*Series, error) {
	if length <= 0 || length%2 == 0 {
		return nil, fmt.Errorf("gaussian length %d must be odd: %w", length, ErrInvalidArgument)
	}
	if !(sigma > 0) || math.IsInf(float64(sigma), 0) {
		return nil, fmt.Errorf("gaussian sigma %v must be positive: %w", sigma, ErrInvalidArgument)
	}

	kernel := New(length)

	// left half up to and including the centre
	half := length/2 + 1
	for i := 0; i < half; i++ {
		distance := float32(half - (i + 1))
		kernel.values[i] = GaussianValue(distance, sigma)
	}

	// mirror
	for i := half; i < length; i++ {
		kernel.values[i] = kernel.values[length-(i+1)]
	}

	sum := kernel.Sum()
	if math.Abs(float64(sum)-1.0) > KernelTolerance {
		return nil, fmt.Errorf("gaussian length %d sigma %v sums to %f: %w", length, sigma, sum, ErrPrecision)
	}
	return kernel, nil
}

// Convolve convolves data with kernel and returns a series the same length
// as data. Indices that fall off either end are clamped to the nearest edge
// sample rather than treated as zero.
func Convolve(data, kernel *Series) (*Series, error) {
	if kernel.Len() == 0 {
		return nil, fmt.Errorf("convolve with empty kernel: %w", ErrInvalidArgument)
	}

	lengthData := data.Len()
	lengthKernel := kernel.Len()
	result := New(lengthData)

	for i := 0; i < lengthData; i++ {
		var value float32
		for j := 0; j < lengthKernel; j++ {
			index := i + j - lengthKernel/2
			if index < 0 {
				index = 0
			} else if index >= lengthData {
				index = lengthData - 1
			}
			value += data.values[index] * kernel.values[j]
		}
		result.values[i] = value
	}
	return result, nil
}

// RemoveOutliers replaces samples whose surrounding window has a population
// standard deviation of at least sigmaThreshold with the window mean, taken
// without the single sample furthest from that mean. The first and last
// (window-1)/2 samples are copied unchanged.
func RemoveOutliers(data *Series, window int, sigmaThreshold float32) (*Series, error) {
	if window <= 0 || window%2 == 0 {
		return nil, fmt.Errorf("outlier window %d must be odd: %w", window, ErrInvalidArgument)
	}

	length := data.Len()
	result := New(length)
	if length == 0 {
		return result, nil
	}
	copy(result.values, data.values)

	// a single sample is its own mean
	if window == 1 {
		return result, nil
	}

	half := (window - 1) / 2
	n := float32(window)
	for i := half; i < length-half; i++ {
		samples := data.values[i-half : i+half+1]

		var mean float32
		for _, v := range samples {
			mean += v
		}
		mean /= n

		var sumSq float32
		for _, v := range samples {
			diff := v - mean
			sumSq += diff * diff
		}
		stddev := float32(math.Sqrt(float64(sumSq / n)))
		if stddev < sigmaThreshold {
			continue
		}

		worst := samples[0]
		worstDiff := float32(math.Abs(float64(worst - mean)))
		for _, v := range samples[1:] {
			if d := float32(math.Abs(float64(v - mean))); d > worstDiff {
				worst, worstDiff = v, d
			}
		}
		result.values[i] = (mean*n - worst) / (n - 1)
	}
	return result, nil
}
