package history

import (
	"github.com/sartorproj/gopowerstats/timeseries"
)

// DeviceState is the UPower battery state.
type DeviceState uint32

const (
	StateUnknown DeviceState = iota
	StateCharging
	StateDischarging
	StateEmpty
	StateFullyCharged
	StatePendingCharge
	StatePendingDischarge
)

var stateNames = map[DeviceState]string{
	StateUnknown:          "unknown",
	StateCharging:         "charging",
	StateDischarging:      "discharging",
	StateEmpty:            "empty",
	StateFullyCharged:     "fully-charged",
	StatePendingCharge:    "pending-charge",
	StatePendingDischarge: "pending-discharge",
}

func (s DeviceState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseDeviceState maps a state name back to its value; unrecognised
// names are StateUnknown.
func ParseDeviceState(text string) DeviceState {
	for state, name := range stateNames {
		if name == text {
			return state
		}
	}
	return StateUnknown
}

// ToSeries converts history samples into a time-ordered series.
func ToSeries(name string, points []Point) *timeseries.Series {
	s := &timeseries.Series{Name: name}
	for _, p := range points {
		s.Timestamps = append(s.Timestamps, p.Time)
		s.Values = append(s.Values, p.Value)
		s.States = append(s.States, p.State.String())
	}
	// every point carries a time, so this cannot fail
	_ = s.SortByTime()
	return s
}

// StatsToSeries converts statistics samples into a series. The index of
// each sample is its position in the profile, one per percent of charge.
func StatsToSeries(name string, points []StatsPoint) *timeseries.Series {
	s := &timeseries.Series{Name: name, Values: make([]float64, len(points))}
	for i, p := range points {
		s.Values[i] = p.Value
	}
	return s
}
