// Package compare shows how one calibration table differs between two
// binary dumps.
package compare

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"

	"github.com/tosih/a2l2ecu/pkg/reader"
)

// Result holds the per-cell difference (second minus first) and its summary
type Result struct {
	Diff    [][]float64
	Changed int
	Cells   int
	Average float64
	MaxUp   float64
	MaxDown float64
}

// Maps compares two decodings of the same table
func Maps(first, second *reader.Map) (*Result, error) {
	if len(first.Data) != len(second.Data) {
		return nil, errors.Errorf("row count differs: %d vs %d", len(first.Data), len(second.Data))
	}
	res := &Result{Diff: make([][]float64, len(first.Data))}
	var total float64
	for i := range first.Data {
		if len(first.Data[i]) != len(second.Data[i]) {
			return nil, errors.Errorf("row %d length differs", i)
		}
		res.Diff[i] = make([]float64, len(first.Data[i]))
		for j := range first.Data[i] {
			d := second.Data[i][j] - first.Data[i][j]
			res.Diff[i][j] = d
			res.Cells++
			if d == 0 {
				continue
			}
			res.Changed++
			total += d
			if d > res.MaxUp {
				res.MaxUp = d
			}
			if d < res.MaxDown {
				res.MaxDown = d
			}
		}
	}
	if res.Changed > 0 {
		res.Average = total / float64(res.Changed)
	}
	return res, nil
}

// Display prints the statistics and a difference map
func Display(first *reader.Map, res *Result) {
	unit := first.Table.Z.Units
	pterm.DefaultSection.Printf("Comparing: %s\n", first.Table.Name)

	percent := 0.0
	if res.Cells > 0 {
		percent = float64(res.Changed) / float64(res.Cells) * 100
	}
	pterm.Info.Printf("Changed cells: %d / %d (%.1f%%)\n", res.Changed, res.Cells, percent)
	if res.Changed == 0 {
		return
	}
	pterm.Info.Printf("Average change: %.2f %s\n", res.Average, unit)
	pterm.Info.Printf("Max increase: %.2f %s\n", res.MaxUp, unit)
	pterm.Info.Printf("Max decrease: %.2f %s\n", res.MaxDown, unit)

	pterm.Println("\nDifference Map (second - first):")
	pterm.DefaultBox.Println(visualizeDifferences(first, res.Diff))
}

func visualizeDifferences(m *reader.Map, diff [][]float64) string {
	var result strings.Builder

	// Find max absolute difference for scaling
	maxAbs := 0.0
	for _, row := range diff {
		for _, d := range row {
			if d < 0 {
				d = -d
			}
			if d > maxAbs {
				maxAbs = d
			}
		}
	}

	cols := 0
	if len(diff) > 0 {
		cols = len(diff[0])
	}
	result.WriteString(fmt.Sprintf("%8s |", axisName(m.X)))
	for j := 0; j < cols; j++ {
		result.WriteString(fmt.Sprintf("%-6s", point(m.X, j)))
	}
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("%8s |", axisName(m.Y)) + strings.Repeat("-", cols*6) + "\n")

	for i, row := range diff {
		result.WriteString(fmt.Sprintf("%8s |", point(m.Y, i)))
		for _, val := range row {
			result.WriteString(getDiffSymbol(val, maxAbs) + "   ")
		}
		result.WriteString("\n")
	}

	// Legend
	result.WriteString("\nLegend: ")
	result.WriteString(pterm.FgBlue.Sprint("▼▼") + " Large Decrease  ")
	result.WriteString(pterm.FgCyan.Sprint("▼ ") + " Small Decrease  ")
	result.WriteString(pterm.FgGray.Sprint("··") + " No Change  ")
	result.WriteString(pterm.FgYellow.Sprint("▲ ") + " Small Increase  ")
	result.WriteString(pterm.FgRed.Sprint("▲▲") + " Large Increase")

	return result.String()
}

func axisName(a *reader.Axis) string {
	if a == nil {
		return ""
	}
	return a.Name
}

func point(a *reader.Axis, i int) string {
	switch {
	case a == nil || i >= len(a.Values):
		return ""
	case i < len(a.Labels):
		return a.Labels[i]
	}
	return fmt.Sprintf("%.5g", a.Values[i])
}

func getDiffSymbol(val, maxAbs float64) string {
	if val == 0 {
		return pterm.FgGray.Sprint("··")
	}

	normalized := val / maxAbs

	if normalized < -0.5 {
		return pterm.FgBlue.Sprint("▼▼")
	} else if normalized < -0.1 {
		return pterm.FgCyan.Sprint("▼ ")
	} else if normalized > 0.5 {
		return pterm.FgRed.Sprint("▲▲")
	} else if normalized > 0.1 {
		return pterm.FgYellow.Sprint("▲ ")
	}

	return pterm.FgGray.Sprint("· ")
}
