package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	TimeColumn  string // Column name for sample times (default: "time")
	ValueColumn string // Column name for values (default: "value")
	StateColumn string // Column name for device states (optional)
	TimeFormat  string // Layout for times; empty means unix seconds or RFC 3339
	HasHeader   bool   // Whether CSV has header row (default: true)
	Delimiter   rune   // Field delimiter (default: ',')
	SkipRows    int    // Number of rows to skip at start
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		TimeColumn:  "time",
		ValueColumn: "value",
		StateColumn: "state",
		HasHeader:   true,
		Delimiter:   ',',
	}
}

func clean(field string) string {
	return strings.TrimSpace(strings.Trim(field, "\""))
}

// ParseTime parses a sample time as unix seconds, fractional unix seconds,
// or RFC 3339 when layout is empty, and with layout otherwise.
func ParseTime(field, layout string) (time.Time, error) {
	if layout != "" {
		return time.Parse(layout, field)
	}
	if secs, err := strconv.ParseInt(field, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	if secs, err := strconv.ParseFloat(field, 64); err == nil {
		whole := int64(secs)
		return time.Unix(whole, int64((secs-float64(whole))*1e9)).UTC(), nil
	}
	return time.Parse(time.RFC3339, field)
}

// LoadCSV loads a battery history series from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader loads a battery history series from an io.Reader.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Series, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	valueIdx, timeIdx, stateIdx := 1, 0, 2
	name := ""
	if opts.HasHeader {
		header, err := reader.Read()
		if err != nil {
			return nil, err
		}

		valueIdx, timeIdx, stateIdx = -1, -1, -1
		for i, h := range header {
			switch clean(h) {
			case opts.ValueColumn:
				valueIdx = i
			case opts.TimeColumn:
				timeIdx = i
			case opts.StateColumn:
				stateIdx = i
			}
		}

		// fall back to the first column that is neither time nor state
		if valueIdx == -1 {
			for i := range header {
				if i != timeIdx && i != stateIdx {
					valueIdx = i
					break
				}
			}
		}
		if valueIdx == -1 {
			return nil, fmt.Errorf("no value column %q in header", opts.ValueColumn)
		}
		name = clean(header[valueIdx])
	}

	series := &Series{Name: name}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if valueIdx >= len(record) {
			continue
		}
		valStr := clean(record[valueIdx])
		if valStr == "" || valStr == "NA" || valStr == "NaN" || valStr == "null" {
			continue
		}
		val, err := strconv.ParseFloat(valStr, 64)
		if err != nil {
			continue // Skip invalid values
		}
		series.Values = append(series.Values, val)

		if timeIdx >= 0 && timeIdx < len(record) {
			if ts, err := ParseTime(clean(record[timeIdx]), opts.TimeFormat); err == nil {
				series.Timestamps = append(series.Timestamps, ts)
			}
		}
		if stateIdx >= 0 && stateIdx < len(record) {
			series.States = append(series.States, clean(record[stateIdx]))
		}
	}

	if len(series.Values) == 0 {
		return nil, errors.New("no valid data found in CSV")
	}

	// partial columns are dropped rather than misaligned
	if len(series.Timestamps) != len(series.Values) {
		series.Timestamps = nil
	}
	if len(series.States) != len(series.Values) {
		series.States = nil
	}
	return series, nil
}

// WriteCSV writes one or more aligned series as columns. The time and
// state columns are taken from the first series; without timestamps a
// 1-based index column is written instead.
func WriteCSV(w io.Writer, series ...*Series) error {
	if len(series) == 0 {
		return errors.New("no series to write")
	}
	first := series[0]
	for _, s := range series[1:] {
		if s.Len() != first.Len() {
			return fmt.Errorf("series %q has %d values, %q has %d: %w",
				s.Name, s.Len(), first.Name, first.Len(), ErrLengthMismatch)
		}
	}

	writer := csv.NewWriter(w)

	header := []string{"index"}
	if first.HasTimestamps() {
		header[0] = "time"
	}
	for i, s := range series {
		switch {
		case s.Name != "":
			header = append(header, s.Name)
		case i == 0:
			header = append(header, "value")
		default:
			header = append(header, "value"+strconv.Itoa(i+1))
		}
	}
	if first.hasStates() {
		header = append(header, "state")
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := 0; i < first.Len(); i++ {
		row := make([]string, 0, len(header))
		if first.HasTimestamps() {
			row = append(row, strconv.FormatInt(first.Timestamps[i].Unix(), 10))
		} else {
			row = append(row, strconv.Itoa(i+1))
		}
		for _, s := range series {
			row = append(row, strconv.FormatFloat(s.Values[i], 'f', -1, 64))
		}
		if first.hasStates() {
			row = append(row, first.States[i])
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// SaveCSV saves a series to a CSV file.
func SaveCSV(series *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := WriteCSV(file, series); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
