// Package timeseries provides timestamped battery history series and operations.
package timeseries

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sartorproj/gopowerstats/floatseries"
)

var (
	// ErrNoTimestamps is returned by time based operations on a series without timestamps.
	ErrNoTimestamps = errors.New("series has no timestamps")

	// ErrLengthMismatch is returned when parallel slices differ in length.
	ErrLengthMismatch = errors.New("length mismatch")

	// ErrOutOfRange is returned when a time lies outside the series.
	ErrOutOfRange = errors.New("time outside series")
)

// Series represents a battery history series: one value per sample, an
// optional timestamp per sample and an optional device state per sample.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	States     []string
	Name       string
}

// New creates a series from values with no timestamps.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewWithTimestamps creates a series with explicit timestamps.
func NewWithTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, fmt.Errorf("%d timestamps for %d values: %w", len(timestamps), len(values), ErrLengthMismatch)
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
	}, nil
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Values)
}

// HasTimestamps reports whether every sample carries a timestamp.
func (s *Series) HasTimestamps() bool {
	return len(s.Values) > 0 && len(s.Timestamps) == len(s.Values)
}

func (s *Series) hasStates() bool {
	return len(s.Values) > 0 && len(s.States) == len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// pick builds a new series from the samples at the given indices.
func (s *Series) pick(indices []int) *Series {
	out := &Series{
		Values: make([]float64, len(indices)),
		Name:   s.Name,
	}
	withTime, withState := s.HasTimestamps(), s.hasStates()
	if withTime {
		out.Timestamps = make([]time.Time, len(indices))
	}
	if withState {
		out.States = make([]string, len(indices))
	}
	for i, idx := range indices {
		out.Values[i] = s.Values[idx]
		if withTime {
			out.Timestamps[i] = s.Timestamps[idx]
		}
		if withState {
			out.States[i] = s.States[idx]
		}
	}
	return out
}

func span(start, end int) []int {
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return indices
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Values: []float64{}, Name: s.Name}
	}
	return s.pick(span(start, end))
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.pick(span(0, len(s.Values)))
}

// Float32 returns the values as a floatseries.Series for smoothing.
func (s *Series) Float32() *floatseries.Series {
	return floatseries.FromFloat64(s.Values)
}

// WithFloat32 returns a copy of the series with its values replaced by fs.
// The timestamps and states are kept, so fs must be the same length.
func (s *Series) WithFloat32(fs *floatseries.Series, suffix string) (*Series, error) {
	if fs.Len() != s.Len() {
		return nil, fmt.Errorf("%d values for a series of %d: %w", fs.Len(), s.Len(), ErrLengthMismatch)
	}
	out := s.Copy()
	out.Values = fs.Float64()
	out.Name = s.Name + suffix
	return out, nil
}

// SortByTime orders the samples by ascending timestamp in place.
func (s *Series) SortByTime() error {
	if !s.HasTimestamps() {
		if s.Len() == 0 {
			return nil
		}
		return ErrNoTimestamps
	}
	indices := span(0, s.Len())
	sort.SliceStable(indices, func(a, b int) bool {
		return s.Timestamps[indices[a]].Before(s.Timestamps[indices[b]])
	})
	*s = *s.pick(indices)
	return nil
}

// LimitWidth drops samples older than width before the newest sample.
func (s *Series) LimitWidth(width time.Duration) (*Series, error) {
	if !s.HasTimestamps() {
		if s.Len() == 0 {
			return s.Copy(), nil
		}
		return nil, ErrNoTimestamps
	}

	newest := s.Timestamps[0]
	for _, ts := range s.Timestamps[1:] {
		if ts.After(newest) {
			newest = ts
		}
	}
	cutoff := newest.Add(-width)

	var keep []int
	for i, ts := range s.Timestamps {
		if !ts.Before(cutoff) {
			keep = append(keep, i)
		}
	}
	return s.pick(keep), nil
}

// LimitSize reduces the series to at most max samples by dropping evenly
// spaced samples. The first and last samples are always kept.
func (s *Series) LimitSize(max int) *Series {
	n := s.Len()
	switch {
	case max <= 0:
		return s.Slice(0, 0)
	case n <= max:
		return s.Copy()
	case max == 1:
		return s.Slice(n-1, n)
	}

	indices := make([]int, max)
	for i := range indices {
		indices[i] = int(math.Round(float64(i) * float64(n-1) / float64(max-1)))
	}
	return s.pick(indices)
}

// Interpolate returns the value at t, linearly interpolated between the
// samples either side. The series must be sorted by time.
func (s *Series) Interpolate(t time.Time) (float64, error) {
	if !s.HasTimestamps() {
		return 0, ErrNoTimestamps
	}
	n := s.Len()
	if t.Before(s.Timestamps[0]) || t.After(s.Timestamps[n-1]) {
		return 0, fmt.Errorf("%s not in [%s, %s]: %w", t.Format(time.RFC3339),
			s.Timestamps[0].Format(time.RFC3339), s.Timestamps[n-1].Format(time.RFC3339), ErrOutOfRange)
	}

	// first sample at or after t
	i := sort.Search(n, func(i int) bool { return !s.Timestamps[i].Before(t) })
	if s.Timestamps[i].Equal(t) || i == 0 {
		return s.Values[i], nil
	}

	t0, t1 := s.Timestamps[i-1], s.Timestamps[i]
	v0, v1 := s.Values[i-1], s.Values[i]
	frac := float64(t.Sub(t0)) / float64(t1.Sub(t0))
	return v0 + (v1-v0)*frac, nil
}
