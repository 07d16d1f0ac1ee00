package renderer

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/tosih/a2l2ecu/pkg/address"
	"github.com/tosih/a2l2ecu/pkg/models"
	"github.com/tosih/a2l2ecu/pkg/pipeline"
)

var listHeader = []string{"Name", "Type", "Offset", "Size", "Axes", "Unit", "Description"}

// ListRows builds the listing rows, header first
func ListRows(items []*models.CalibrationItem, calc address.Calculator) [][]string {
	data := [][]string{listHeader}
	for _, item := range items {
		offset := "?"
		if z, err := calc.Value(item); err == nil {
			offset = fmt.Sprintf("0x%X", z)
		}

		dims := []string{}
		kinds := []string{}
		for _, ax := range item.Axes {
			dims = append(dims, fmt.Sprint(ax.MaxAxisPoints))
			kinds = append(kinds, fmt.Sprintf("%s %s", ax.Kind, ax.Name()))
		}
		size := "1"
		if len(dims) > 0 {
			size = strings.Join(dims, "x")
		}

		data = append(data, []string{
			item.Name,
			item.Type,
			offset,
			size,
			strings.Join(kinds, ", "),
			item.Compu.Units(),
			item.LongIdentifier,
		})
	}
	return data
}

// ListCharacteristics displays calibration items in a table
func ListCharacteristics(title string, items []*models.CalibrationItem, calc address.Calculator) {
	pterm.DefaultHeader.WithFullWidth().Println(title)
	pterm.DefaultTable.WithHasHeader().WithData(ListRows(items, calc)).Render()
}

// RenderSummary shows the outcome of a conversion run
func RenderSummary(stats pipeline.Stats, output string) {
	data := [][]string{
		{"Requested", "Tables", "Constants", "Axis tables", "Scalars omitted", "Not found", "Skipped"},
		{
			fmt.Sprint(stats.Requested),
			fmt.Sprint(stats.Tables),
			fmt.Sprint(stats.Constants),
			fmt.Sprint(stats.AxisTables),
			fmt.Sprint(stats.Scalars),
			fmt.Sprint(stats.Missing),
			fmt.Sprint(stats.Skipped),
		},
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	pterm.Success.Printf("Written %s\n", output)
}
