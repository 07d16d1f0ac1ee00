package renderer

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/tosih/a2l2ecu/pkg/reader"
)

// Display modes
const (
	ModeValues  = "values"
	ModeHeatmap = "heatmap"
	ModeSymbols = "symbols"
)

// RenderMap displays a decoded map in a box titled with its location
func RenderMap(m *reader.Map, displayMode string, min, max float64) {
	t := m.Table
	title := fmt.Sprintf("%s | Offset: 0x%X | %dx%d | Range: %.2f-%.2f %s",
		t.Name, t.Z.Address, t.Z.Rows, t.Z.Length, min, max, t.Z.Units)

	pterm.Info.Println(t.Title)
	pterm.DefaultBox.WithTitle(title).WithTitleTopLeft().Println(BuildMapString(m, displayMode, min, max))
}

// BuildMapString creates a formatted string representation of the map
func BuildMapString(m *reader.Map, displayMode string, min, max float64) string {
	var result strings.Builder

	cols := m.Table.Z.Length
	width := 4
	if displayMode == ModeValues {
		width = 8
	}

	// Header
	result.WriteString(fmt.Sprintf("%8s |", axisName(m.X)))
	for j := 0; j < cols; j++ {
		result.WriteString(fmt.Sprintf("%*s", width, axisLabel(m.X, j, width)))
	}
	result.WriteString("\n")
	result.WriteString(fmt.Sprintf("%8s |", axisName(m.Y)) + strings.Repeat("-", cols*width) + "\n")

	// Data rows
	for i, row := range m.Data {
		result.WriteString(fmt.Sprintf("%8s |", axisLabel(m.Y, i, 8)))
		for _, value := range row {
			switch displayMode {
			case ModeValues:
				color := getColorStyle(value, min, max)
				result.WriteString(color.Sprintf("%8.2f", value))
			case ModeHeatmap:
				result.WriteString(getHeatmapBlock(value, min, max) + "  ")
			default:
				symbol := getSymbolForValue(value, min, max)
				result.WriteString(symbol + symbol + symbol + symbol)
			}
		}
		result.WriteString("\n")
	}

	// Legend
	if displayMode == ModeHeatmap {
		result.WriteString("\n" + getHeatmapLegend())
	} else if displayMode == ModeSymbols {
		result.WriteString("\nLegend: ")
		result.WriteString(pterm.FgCyan.Sprint("░") + " Low  ")
		result.WriteString(pterm.FgGreen.Sprint("▒") + " Med  ")
		result.WriteString(pterm.FgYellow.Sprint("▓") + " High  ")
		result.WriteString(pterm.FgRed.Sprint("█") + " Max")
	}

	return result.String()
}

func axisName(a *reader.Axis) string {
	if a == nil {
		return ""
	}
	return truncate(a.Name, 8)
}

// axisLabel is the verbal label or the physical value of point i
func axisLabel(a *reader.Axis, i, width int) string {
	if a == nil || i >= len(a.Values) {
		return ""
	}
	if i < len(a.Labels) {
		return truncate(a.Labels[i], width-1)
	}
	return truncate(fmt.Sprintf("%.6g", a.Values[i]), width-1)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func getHeatmapBlock(value, min, max float64) string {
	if max == min {
		return pterm.BgGray.Sprint("  ")
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.2:
		return pterm.NewStyle(pterm.BgBlue, pterm.FgWhite).Sprint("▄▄")
	case normalized < 0.4:
		return pterm.NewStyle(pterm.BgCyan, pterm.FgBlack).Sprint("▄▄")
	case normalized < 0.6:
		return pterm.NewStyle(pterm.BgGreen, pterm.FgBlack).Sprint("▄▄")
	case normalized < 0.8:
		return pterm.NewStyle(pterm.BgYellow, pterm.FgBlack).Sprint("▄▄")
	default:
		return pterm.NewStyle(pterm.BgRed, pterm.FgWhite).Sprint("▄▄")
	}
}

func getHeatmapLegend() string {
	var result strings.Builder
	result.WriteString("Heatmap: ")
	result.WriteString(pterm.NewStyle(pterm.BgBlue, pterm.FgWhite).Sprint("▄▄") + " Very Low  ")
	result.WriteString(pterm.NewStyle(pterm.BgCyan, pterm.FgBlack).Sprint("▄▄") + " Low  ")
	result.WriteString(pterm.NewStyle(pterm.BgGreen, pterm.FgBlack).Sprint("▄▄") + " Medium  ")
	result.WriteString(pterm.NewStyle(pterm.BgYellow, pterm.FgBlack).Sprint("▄▄") + " High  ")
	result.WriteString(pterm.NewStyle(pterm.BgRed, pterm.FgWhite).Sprint("▄▄") + " Very High")
	return result.String()
}

func getSymbolForValue(value, min, max float64) string {
	if max == min {
		return pterm.FgGray.Sprint("·")
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.25:
		return pterm.FgCyan.Sprint("░")
	case normalized < 0.5:
		return pterm.FgGreen.Sprint("▒")
	case normalized < 0.75:
		return pterm.FgYellow.Sprint("▓")
	default:
		return pterm.FgRed.Sprint("█")
	}
}

func getColorStyle(value, min, max float64) *pterm.Style {
	if max == min {
		return pterm.NewStyle(pterm.FgGray)
	}

	normalized := (value - min) / (max - min)

	switch {
	case normalized < 0.25:
		return pterm.NewStyle(pterm.FgCyan)
	case normalized < 0.5:
		return pterm.NewStyle(pterm.FgGreen)
	case normalized < 0.75:
		return pterm.NewStyle(pterm.FgYellow)
	default:
		return pterm.NewStyle(pterm.FgRed)
	}
}

// RenderConstants lists scalar values in a table
func RenderConstants(values []reader.Constant) {
	data := [][]string{
		{"Name", "Offset", "Raw", "Value", "Unit", "Description"},
	}
	for _, c := range values {
		data = append(data, []string{
			c.Table.Name,
			fmt.Sprintf("0x%X", c.Table.Z.Address),
			fmt.Sprintf("%g", c.Raw),
			fmt.Sprintf("%.4g", c.Value),
			c.Table.Z.Units,
			c.Table.Title,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
