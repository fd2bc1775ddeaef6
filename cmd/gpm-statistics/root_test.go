package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
)

const (
	managerPath = dbus.ObjectPath("/org/freedesktop/UPower")
	batteryPath = dbus.ObjectPath("/org/freedesktop/UPower/devices/battery_BAT0")
	acPath      = dbus.ObjectPath("/org/freedesktop/UPower/devices/line_power_AC")
)

// fakeObject answers UPower calls with canned bodies.
type fakeObject struct {
	dbus.BusObject
	path    dbus.ObjectPath
	replies map[string][]interface{}
	methods []string
	args    [][]interface{}
}

func (f *fakeObject) CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	f.methods = append(f.methods, method)
	f.args = append(f.args, args)
	body, ok := f.replies[method]
	call := &dbus.Call{Path: f.path, Method: method, Args: args, Body: body}
	if !ok {
		call.Err = errors.New("unexpected call " + method)
	}
	return call
}

func (f *fakeObject) Path() dbus.ObjectPath {
	return f.path
}

type fakeBus struct {
	objects map[dbus.ObjectPath]*fakeObject
	closed  bool
}

func (b *fakeBus) Object(dest string, path dbus.ObjectPath) dbus.BusObject {
	if obj, ok := b.objects[path]; ok {
		return obj
	}
	return &fakeObject{path: path}
}

func (b *fakeBus) Close() error {
	b.closed = true
	return nil
}

func newFakeBus() *fakeBus {
	history := make([]struct {
		Time  uint32
		Value float64
		State uint32
	}, 30)
	for i := range history {
		history[i].Time = uint32(1200000000 + 60*i)
		history[i].Value = float64(90 - i)
		history[i].State = 2
	}
	history[12].Value = 5 // glitch

	stats := make([]struct{ Value, Accuracy float64 }, 101)
	for i := range stats {
		stats[i].Value = 1.0
		stats[i].Accuracy = 80
	}

	return &fakeBus{objects: map[dbus.ObjectPath]*fakeObject{
		managerPath: {
			path: managerPath,
			replies: map[string][]interface{}{
				"org.freedesktop.UPower.EnumerateDevices": {[]dbus.ObjectPath{acPath, batteryPath}},
			},
		},
		batteryPath: {
			path: batteryPath,
			replies: map[string][]interface{}{
				"org.freedesktop.UPower.Device.GetHistory":    {history},
				"org.freedesktop.UPower.Device.GetStatistics": {stats},
			},
		},
	}}
}

// isolate keeps the user's config file out of the test.
func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return dir
}

func execute(t *testing.T, bus *fakeBus, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(&out, &errOut)
	a.connect = func() (busConn, error) {
		if bus == nil {
			return nil, errors.New("no bus in test")
		}
		return bus, nil
	}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetErr(&errOut)
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	rows := make([]string, 20)
	for i := range rows {
		rows[i] = fmt.Sprintf("%d,50,charging", 1200000000+30*i)
	}
	return writeRows(t, dir, rows)
}

func writeRows(t *testing.T, dir string, rows []string) string {
	t.Helper()
	data := "time,value,state\n" + strings.Join(rows, "\n") + "\n"
	path := filepath.Join(dir, "charge.csv")
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// csvColumn parses column col of every data row.
func csvColumn(t *testing.T, out string, col int) []float64 {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	values := make([]float64, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Split(line, ",")
		v, err := strconv.ParseFloat(fields[col], 64)
		if err != nil {
			t.Fatalf("Bad row %q: %v", line, err)
		}
		values = append(values, v)
	}
	return values
}

func TestRoot_SubcommandsPresent(t *testing.T) {
	root := newRootCmd(newApp(&bytes.Buffer{}, &bytes.Buffer{}))
	have := map[string]bool{}
	for _, c := range root.Commands() {
		have[c.Name()] = true
	}
	for _, want := range []string{"smooth", "history", "stats", "devices", "kernel", "version"} {
		if !have[want] {
			t.Fatalf("missing subcommand %s", want)
		}
	}
}

func TestCommands_HaveDescriptions(t *testing.T) {
	var check func(*cobra.Command)
	check = func(cmd *cobra.Command) {
		if cmd.Short == "" || cmd.Long == "" {
			t.Fatalf("command %s missing Short/Long", cmd.Name())
		}
		for _, sc := range cmd.Commands() {
			check(sc)
		}
	}
	check(newRootCmd(newApp(&bytes.Buffer{}, &bytes.Buffer{})))
}

func TestSmooth(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)

	out, _, err := execute(t, nil, "smooth", path)
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	for _, want := range []string{"value_smoothed", "50.00", "charging", "samples 20"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestSmoothCSV(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)

	out, _, err := execute(t, nil, "smooth", path, "--format", "csv")
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 21 {
		t.Fatalf("Expected header and 20 rows, got %d lines", len(lines))
	}
	if lines[0] != "time,value,value_smoothed,state" {
		t.Errorf("Unexpected header %q", lines[0])
	}
	fields := strings.Split(lines[1], ",")
	if len(fields) != 4 || fields[0] != "1200000000" || fields[1] != "50" || fields[3] != "charging" {
		t.Fatalf("Unexpected first row %q", lines[1])
	}
	smoothed, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || math.Abs(smoothed-50) > 0.5 {
		t.Errorf("Expected smoothed value near 50, got %q", fields[2])
	}
}

func TestSmoothConfigFile(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)
	cfgPath := filepath.Join(dir, "gpm.yaml")
	if err := os.WriteFile(cfgPath, []byte("format: csv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, nil, "--config", cfgPath, "smooth", path)
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	if !strings.HasPrefix(out, "time,value,value_smoothed,state\n") {
		t.Errorf("Expected CSV output from config file, got:\n%s", out)
	}
}

func TestSmoothErrors(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"smooth", filepath.Join(dir, "nope.csv")}},
		{"no file", []string{"smooth"}},
		{"bad format", []string{"smooth", path, "--format", "xml"}},
		{"even outlier window", []string{"smooth", path, "--outlier-window", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := execute(t, nil, tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestSmoothSortsRows(t *testing.T) {
	dir := isolate(t)

	// a step from 0 to 100, written out of time order
	rows := make([]string, 20)
	for i := range rows {
		j := (i * 7) % 20
		value := 0
		if j >= 10 {
			value = 100
		}
		rows[i] = fmt.Sprintf("%d,%d,charging", 1200000000+60*j, value)
	}
	path := writeRows(t, dir, rows)

	out, _, err := execute(t, nil, "smooth", path, "--format", "csv", "--remove-outliers=false")
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}

	times := csvColumn(t, out, 0)
	smoothed := csvColumn(t, out, 2)
	if len(times) != 20 {
		t.Fatalf("Expected 20 rows, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			t.Fatalf("Rows not in time order at %d: %v", i, times)
		}
		if smoothed[i] < smoothed[i-1]-1e-3 {
			t.Errorf("Smoothed step not monotonic at %d: %f < %f", i, smoothed[i], smoothed[i-1])
		}
	}
	if smoothed[0] > 5 || smoothed[19] < 95 {
		t.Errorf("Expected a step from about 0 to about 100, got %f .. %f", smoothed[0], smoothed[19])
	}
	t.Logf("smoothed step: %v", smoothed)
}

func TestSmoothLimits(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)

	tests := []struct {
		name  string
		args  []string
		rows  int
		first float64
		last  float64
	}{
		{"width", []string{"--width", "4m30s"}, 10, 1200000300, 1200000570},
		{"max samples", []string{"--max-samples", "4"}, 4, 1200000000, 1200000570},
		{"both", []string{"--width", "4m30s", "--max-samples", "4"}, 4, 1200000300, 1200000570},
		{"limits above size", []string{"--width", "24h", "--max-samples", "100"}, 20, 1200000000, 1200000570},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"smooth", path, "--format", "csv"}, tt.args...)
			out, _, err := execute(t, nil, args...)
			if err != nil {
				t.Fatalf("smooth failed: %v", err)
			}
			times := csvColumn(t, out, 0)
			if len(times) != tt.rows {
				t.Fatalf("Expected %d rows, got %d:\n%s", tt.rows, len(times), out)
			}
			if times[0] != tt.first || times[len(times)-1] != tt.last {
				t.Errorf("Expected rows %v..%v, got %v..%v", tt.first, tt.last, times[0], times[len(times)-1])
			}
		})
	}
}

func TestSmoothAt(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)

	out, _, err := execute(t, nil, "smooth", path, "--at", "1200000015")
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	idx := strings.Index(out, "value_smoothed at 2008-01-10T21:20:15Z: ")
	if idx < 0 {
		t.Fatalf("Expected interpolated value in output:\n%s", out)
	}
	field := strings.TrimSpace(out[idx+len("value_smoothed at 2008-01-10T21:20:15Z: "):])
	if v, err := strconv.ParseFloat(field, 64); err != nil || math.Abs(v-50) > 0.5 {
		t.Errorf("Expected a value near 50, got %q", field)
	}

	if _, _, err := execute(t, nil, "smooth", path, "--at", "1100000000"); err == nil {
		t.Errorf("Expected error for a time before the first sample")
	}
}

func TestTypesFromConfigFile(t *testing.T) {
	dir := isolate(t)
	cfgPath := filepath.Join(dir, "gpm.yaml")
	if err := os.WriteFile(cfgPath, []byte("history-type: rate\nstats-type: discharging\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	bus := newFakeBus()
	if _, _, err := execute(t, bus, "--config", cfgPath, "stats", "--format", "csv"); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if _, _, err := execute(t, bus, "--config", cfgPath, "history", "--format", "csv"); err != nil {
		t.Fatalf("history failed: %v", err)
	}

	battery := bus.objects[batteryPath]
	if len(battery.args) != 2 {
		t.Fatalf("Expected two device calls, got %v", battery.methods)
	}
	if kind := battery.args[0][0]; kind != "discharging" {
		t.Errorf("Expected stats-type from file, got %v", kind)
	}
	if kind := battery.args[1][0]; kind != "rate" {
		t.Errorf("Expected history-type from file, got %v", kind)
	}

	// --type still wins over the file
	bus = newFakeBus()
	if _, _, err := execute(t, bus, "--config", cfgPath, "stats", "--type", "charging"); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if kind := bus.objects[batteryPath].args[0][0]; kind != "charging" {
		t.Errorf("Expected --type to override the file, got %v", kind)
	}
}

func TestKernel(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, nil, "kernel", "--kernel-length", "9", "--sigma", "1.1")
	if err != nil {
		t.Fatalf("kernel failed: %v", err)
	}
	if !strings.Contains(out, "length 9") {
		t.Errorf("Unexpected output:\n%s", out)
	}

	if _, _, err := execute(t, nil, "kernel", "--kernel-length", "5", "--sigma", "2"); err == nil {
		t.Errorf("Expected precision error for a truncated kernel")
	}
}

func TestHistory(t *testing.T) {
	isolate(t)
	bus := newFakeBus()

	out, _, err := execute(t, bus, "history", "--type", "charge", "--format", "csv")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !bus.closed {
		t.Errorf("Expected the bus connection to be closed")
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 31 || lines[0] != "time,charge,charge_smoothed,state" {
		t.Fatalf("Unexpected CSV:\n%s", out)
	}
	if !strings.HasSuffix(lines[1], ",discharging") {
		t.Errorf("Expected state column, got %q", lines[1])
	}

	// the glitch at row 13 is raw 5 and smoothed back near the trend
	fields := strings.Split(lines[13], ",")
	if fields[1] != "5" || fields[2] == "5" {
		t.Errorf("Expected glitch to be smoothed, got %q", lines[13])
	}

	battery := bus.objects[batteryPath]
	if len(battery.methods) != 1 || battery.methods[0] != "org.freedesktop.UPower.Device.GetHistory" {
		t.Errorf("Unexpected device calls: %v", battery.methods)
	}
}

func TestHistoryBadType(t *testing.T) {
	isolate(t)
	if _, _, err := execute(t, newFakeBus(), "history", "--type", "voltage"); err == nil {
		t.Errorf("Expected error for an unknown history type")
	}
}

func TestStats(t *testing.T) {
	isolate(t)
	bus := newFakeBus()

	out, _, err := execute(t, bus, "stats", "--device", string(batteryPath))
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	for _, want := range []string{"charging_smoothed", "samples 101"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
	if calls := bus.objects[managerPath].methods; len(calls) != 0 {
		t.Errorf("Expected no enumeration with --device, got %v", calls)
	}
}

func TestDevices(t *testing.T) {
	isolate(t)

	out, _, err := execute(t, newFakeBus(), "devices")
	if err != nil {
		t.Fatalf("devices failed: %v", err)
	}
	if out != string(acPath)+"\n"+string(batteryPath)+"\n" {
		t.Errorf("Unexpected output: %q", out)
	}

	if _, _, err := execute(t, nil, "devices"); err == nil {
		t.Errorf("Expected error without a bus")
	}
}

func TestVerbose(t *testing.T) {
	dir := isolate(t)
	path := writeCSV(t, dir)

	_, errOut, err := execute(t, nil, "smooth", path, "--verbose")
	if err != nil {
		t.Fatalf("smooth failed: %v", err)
	}
	if !strings.Contains(errOut, "KernelLength") {
		t.Errorf("Expected config dump on stderr, got:\n%s", errOut)
	}
	if !strings.Contains(errOut, "loaded samples") {
		t.Errorf("Expected debug logs on stderr, got:\n%s", errOut)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "gpm-statistics ") {
		t.Errorf("Unexpected output: %q", out)
	}
}

func TestRunExitCode(t *testing.T) {
	isolate(t)
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"kernel", "--kernel-length", "4"}, &out, &errOut); code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
	if errOut.Len() == 0 {
		t.Errorf("Expected the error to be logged")
	}
}
