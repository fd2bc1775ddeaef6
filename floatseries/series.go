// Package floatseries provides a fixed-length float32 series with smoothing operations.
package floatseries

import (
	"errors"
	"fmt"
	"math"

	"github.com/charmbracelet/log"
)

var (
	// ErrIndexOutOfRange is returned when an index falls outside [0, Len()).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrInvalidArgument is returned for odd/even length violations and reversed ranges.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPrecision is returned when a generated Gaussian kernel does not sum to 1.0 within tolerance.
	ErrPrecision = errors.New("kernel precision out of tolerance")
)

// Series is an owned, fixed-length sequence of 32-bit floats.
// The length is set at construction and never changes.
type Series struct {
	values []float32
}

// New creates a zero-filled series of the given length.
func New(length int) *Series {
	if length < 0 {
		length = 0
	}
	return &Series{values: make([]float32, length)}
}

// FromValues creates a series holding a copy of values.
func FromValues(values []float32) *Series {
	s := New(len(values))
	copy(s.values, values)
	return s
}

// FromFloat64 creates a series from float64 samples, narrowing each to float32.
func FromFloat64(values []float64) *Series {
	s := New(len(values))
	for i, v := range values {
		s.values[i] = float32(v)
	}
	return s
}

// Len returns the length of the series. A nil or freed series has length 0.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Get returns the value at index i.
func (s *Series) Get(i int) (float32, error) {
	if i < 0 || i >= s.Len() {
		return 0, fmt.Errorf("get %d of %d: %w", i, s.Len(), ErrIndexOutOfRange)
	}
	return s.values[i], nil
}

// Set writes value at index i.
func (s *Series) Set(i int, value float32) error {
	if i < 0 || i >= s.Len() {
		return fmt.Errorf("set %d of %d: %w", i, s.Len(), ErrIndexOutOfRange)
	}
	s.values[i] = value
	return nil
}

// Values returns a copy of the samples.
func (s *Series) Values() []float32 {
	out := make([]float32, s.Len())
	if s != nil {
		copy(out, s.values)
	}
	return out
}

// Float64 returns a copy of the samples widened to float64.
func (s *Series) Float64() []float64 {
	out := make([]float64, s.Len())
	for i := range out {
		out[i] = float64(s.values[i])
	}
	return out
}

// Free releases the backing storage. Calling Free on a nil or already
// freed series is a no-op.
func (s *Series) Free() {
	if s == nil {
		return
	}
	s.values = nil
}

// Sum returns the sum of all elements, 0 for an empty series.
func (s *Series) Sum() float32 {
	var total float32
	for i := 0; i < s.Len(); i++ {
		total += s.values[i]
	}
	return total
}

// Average returns Sum()/Len(). An empty series has no average and
// returns NaN; callers are expected to guard against it.
func (s *Series) Average() float32 {
	if s.Len() == 0 {
		return float32(math.NaN())
	}
	return s.Sum() / float32(s.Len())
}

// ComputeIntegral sums values[x1..x2] inclusive, assuming a step size of one.
// A single point has no area, so x1 == x2 returns 0 for any x, even
// one outside the series.
func (s *Series) ComputeIntegral(x1, x2 int) (float32, error) {
	if x1 == x2 {
		return 0, nil
	}
	if x2 < x1 {
		return 0, fmt.Errorf("integral [%d, %d]: %w", x1, x2, ErrInvalidArgument)
	}
	if x1 < 0 || x2 >= s.Len() {
		return 0, fmt.Errorf("integral [%d, %d] of %d: %w", x1, x2, s.Len(), ErrIndexOutOfRange)
	}

	var value float32
	for i := x1; i <= x2; i++ {
		value += s.values[i]
	}
	return value, nil
}

// Log writes every element to logger at debug level.
func (s *Series) Log(logger *log.Logger) {
	if logger == nil {
		return
	}
	for i := 0; i < s.Len(); i++ {
		logger.Debug("series", "index", i, "val", s.values[i])
	}
}
