package export

import (
	"os"
	"strings"
	"testing"

	"github.com/tosih/a2l2ecu/pkg/models"
	"github.com/tosih/a2l2ecu/pkg/reader"
)

func TestMapToCSV(t *testing.T) {
	m := &reader.Map{
		Table: &models.TableDescription{
			Name:  "KFZW",
			Title: "ignition map",
			Z:     models.AxisOutput{Address: 0x20000, Length: 2, Rows: 2, Units: "°KW"},
		},
		X:    &reader.Axis{Name: "nmot", Values: []float64{800, 1200}},
		Y:    &reader.Axis{Name: "gang", Values: []float64{0, 1}, Labels: []string{"N", "1st"}},
		Data: [][]float64{{1, 2}, {3.333, 4}},
	}
	var sb strings.Builder
	if err := MapToCSV(&sb, m); err != nil {
		t.Fatal(err)
	}
	want := strings.Join([]string{
		"# ignition map",
		"# Name: KFZW",
		"# Offset: 0x20000",
		"# Size: 2x2",
		"# Unit: °KW",
		"",
		`gang\nmot,800,1200`,
		"N,1.00,2.00",
		"1st,3.33,4.00",
		"",
	}, "\n")
	if sb.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", sb.String(), want)
	}
}

func TestWriteMapCSVReportsFailure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	m := &reader.Map{
		Table: &models.TableDescription{Name: "KF", Z: models.AxisOutput{Length: 1, Rows: 1}},
		Data:  [][]float64{{1}},
	}
	if err := WriteMapCSV("/dev/full", m); err == nil {
		t.Error("expected an error when the device is full")
	}
}
