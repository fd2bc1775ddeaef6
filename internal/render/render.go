// Package render prints series, kernels and device lists as tables or CSV.
package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sartorproj/gopowerstats/floatseries"
	"github.com/sartorproj/gopowerstats/internal/config"
	"github.com/sartorproj/gopowerstats/smoothing"
	"github.com/sartorproj/gopowerstats/timeseries"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	rawStyle     = cellStyle.Foreground(lipgloss.Color("244"))
	summaryStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Series writes aligned series, the raw data first, in the given format.
func Series(w io.Writer, format string, res smoothing.Result, series ...*timeseries.Series) error {
	if format == config.FormatCSV {
		return timeseries.WriteCSV(w, series...)
	}
	if len(series) == 0 {
		return fmt.Errorf("no series to render")
	}

	first := series[0]
	headers := []string{"#"}
	if first.HasTimestamps() {
		headers[0] = "time"
	}
	for _, s := range series {
		name := s.Name
		if name == "" {
			name = "value"
		}
		headers = append(headers, name)
	}
	withStates := len(first.States) == first.Len() && first.Len() > 0
	if withStates {
		headers = append(headers, "state")
	}

	rows := make([][]string, first.Len())
	for i := range rows {
		row := make([]string, 0, len(headers))
		if first.HasTimestamps() {
			row = append(row, first.Timestamps[i].Local().Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, strconv.Itoa(i+1))
		}
		for _, s := range series {
			if i < s.Len() {
				row = append(row, formatValue(s.Values[i]))
			} else {
				row = append(row, "-")
			}
		}
		if withStates {
			row = append(row, first.States[i])
		}
		rows[i] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1 && len(series) > 1:
				return rawStyle
			default:
				return cellStyle
			}
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")

	sum := smoothing.Summarize(res.Values)
	b.WriteString(summaryStyle.Render(fmt.Sprintf("samples %d  average %s  integral %s",
		sum.Samples, formatValue(float64(sum.Average)), formatValue(float64(sum.Integral)))))
	b.WriteString("\n")
	if !res.Smoothed && res.Err != nil {
		b.WriteString(warnStyle.Render("not smoothed: " + res.Err.Error()))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Kernel writes the kernel weights and their sum.
func Kernel(w io.Writer, format string, kernel *floatseries.Series) error {
	values := kernel.Values()
	if format == config.FormatCSV {
		var b strings.Builder
		b.WriteString("index,weight\n")
		for i, v := range values {
			fmt.Fprintf(&b, "%d,%s\n", i, strconv.FormatFloat(float64(v), 'f', -1, 32))
		}
		_, err := io.WriteString(w, b.String())
		return err
	}

	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{strconv.Itoa(i), strconv.FormatFloat(float64(v), 'f', 6, 32)}
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("index", "weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	_, err := fmt.Fprintf(w, "%s\n%s\n", t.Render(),
		summaryStyle.Render(fmt.Sprintf("length %d  sum %.6f", kernel.Len(), kernel.Sum())))
	return err
}

// Devices writes one device path per line.
func Devices(w io.Writer, paths []string) error {
	if len(paths) == 0 {
		_, err := fmt.Fprintln(w, warnStyle.Render("no power devices found"))
		return err
	}
	_, err := fmt.Fprintln(w, strings.Join(paths, "\n"))
	return err
}
