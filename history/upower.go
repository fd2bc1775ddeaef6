// Package history reads battery history and statistics from UPower over D-Bus.
package history

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	upowerDest  = "org.freedesktop.UPower"
	upowerPath  = dbus.ObjectPath("/org/freedesktop/UPower")
	upowerIface = upowerDest
	deviceIface = upowerDest + ".Device"
)

// ErrNoData is returned when a device has no samples of the requested type.
var ErrNoData = errors.New("no data")

// HistoryType selects the metric returned by GetHistory.
type HistoryType string

const (
	HistoryCharge    HistoryType = "charge"
	HistoryRate      HistoryType = "rate"
	HistoryTimeFull  HistoryType = "time-full"
	HistoryTimeEmpty HistoryType = "time-empty"
)

// StatsType selects the profile returned by GetStatistics.
type StatsType string

const (
	StatsCharging    StatsType = "charging"
	StatsDischarging StatsType = "discharging"
)

// ParseHistoryType validates a history type name.
func ParseHistoryType(name string) (HistoryType, error) {
	switch t := HistoryType(name); t {
	case HistoryCharge, HistoryRate, HistoryTimeFull, HistoryTimeEmpty:
		return t, nil
	}
	return "", fmt.Errorf("unknown history type %q", name)
}

// ParseStatsType validates a statistics type name.
func ParseStatsType(name string) (StatsType, error) {
	switch t := StatsType(name); t {
	case StatsCharging, StatsDischarging:
		return t, nil
	}
	return "", fmt.Errorf("unknown statistics type %q", name)
}

// Point is one GetHistory sample.
type Point struct {
	Time  time.Time
	Value float64
	State DeviceState
}

// StatsPoint is one GetStatistics sample.
type StatsPoint struct {
	Value    float64
	Accuracy float64
}

// wire layouts: a(udu) and a(dd)
type historyRecord struct {
	Time  uint32
	Value float64
	State uint32
}

type statsRecord struct {
	Value    float64
	Accuracy float64
}

// Connect opens a connection to the system bus.
func Connect() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("system bus: %w", err)
	}
	return conn, nil
}

// Bus resolves remote objects. *dbus.Conn implements it.
type Bus interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
}

// Manager returns the UPower daemon object.
func Manager(bus Bus) dbus.BusObject {
	return bus.Object(upowerDest, upowerPath)
}

// EnumerateDevices lists the power device object paths known to UPower.
func EnumerateDevices(ctx context.Context, manager dbus.BusObject) ([]dbus.ObjectPath, error) {
	var paths []dbus.ObjectPath
	call := manager.CallWithContext(ctx, upowerIface+".EnumerateDevices", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("EnumerateDevices: %w", call.Err)
	}
	if err := call.Store(&paths); err != nil {
		return nil, fmt.Errorf("EnumerateDevices reply: %w", err)
	}
	return paths, nil
}

// Client queries a single UPower device.
type Client struct {
	obj dbus.BusObject
}

// NewClient wraps a device object.
func NewClient(obj dbus.BusObject) *Client {
	return &Client{obj: obj}
}

// Device returns a client for the device at path on bus.
func Device(bus Bus, path dbus.ObjectPath) *Client {
	return NewClient(bus.Object(upowerDest, path))
}

// FindBattery returns the first battery among paths.
func FindBattery(paths []dbus.ObjectPath) (dbus.ObjectPath, error) {
	for _, p := range paths {
		if strings.Contains(path.Base(string(p)), "battery") {
			return p, nil
		}
	}
	return "", fmt.Errorf("no battery among %d devices: %w", len(paths), ErrNoData)
}

// Path returns the device object path.
func (c *Client) Path() dbus.ObjectPath {
	return c.obj.Path()
}

// GetHistory returns up to resolution samples of kind covering the last timespan.
func (c *Client) GetHistory(ctx context.Context, kind HistoryType, timespan time.Duration, resolution uint32) ([]Point, error) {
	var records []historyRecord
	call := c.obj.CallWithContext(ctx, deviceIface+".GetHistory", 0,
		string(kind), uint32(timespan/time.Second), resolution)
	if call.Err != nil {
		return nil, fmt.Errorf("GetHistory(%s, %s) on %s: %w", kind, timespan, c.obj.Path(), call.Err)
	}
	if err := call.Store(&records); err != nil {
		return nil, fmt.Errorf("GetHistory(%s) reply: %w", kind, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("GetHistory(%s) on %s: %w", kind, c.obj.Path(), ErrNoData)
	}

	points := make([]Point, len(records))
	for i, r := range records {
		points[i] = Point{
			Time:  time.Unix(int64(r.Time), 0).UTC(),
			Value: r.Value,
			State: DeviceState(r.State),
		}
	}
	return points, nil
}

// GetStatistics returns the charge or discharge profile of the device.
func (c *Client) GetStatistics(ctx context.Context, kind StatsType) ([]StatsPoint, error) {
	var records []statsRecord
	call := c.obj.CallWithContext(ctx, deviceIface+".GetStatistics", 0, string(kind))
	if call.Err != nil {
		return nil, fmt.Errorf("GetStatistics(%s) on %s: %w", kind, c.obj.Path(), call.Err)
	}
	if err := call.Store(&records); err != nil {
		return nil, fmt.Errorf("GetStatistics(%s) reply: %w", kind, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("GetStatistics(%s) on %s: %w", kind, c.obj.Path(), ErrNoData)
	}

	points := make([]StatsPoint, len(records))
	for i, r := range records {
		points[i] = StatsPoint(r)
	}
	return points, nil
}

// Refresh asks the daemon to re-read the device.
func (c *Client) Refresh(ctx context.Context) error {
	if call := c.obj.CallWithContext(ctx, deviceIface+".Refresh", 0); call.Err != nil {
		return fmt.Errorf("Refresh on %s: %w", c.obj.Path(), call.Err)
	}
	return nil
}
