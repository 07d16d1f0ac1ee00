package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/reader"
)

// WriteMapCSV exports a decoded map to a CSV file
func WriteMapCSV(filename string, m *reader.Map) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "failed to create csv")
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", filename)
		}
	}()

	return MapToCSV(file, m)
}

// MapToCSV writes metadata comments, an x axis header and one line per row
func MapToCSV(w io.Writer, m *reader.Map) error {
	writer := csv.NewWriter(w)
	t := m.Table

	// Write metadata as comments
	writer.Write([]string{fmt.Sprintf("# %s", t.Title)})
	writer.Write([]string{fmt.Sprintf("# Name: %s", t.Name)})
	writer.Write([]string{fmt.Sprintf("# Offset: 0x%04X", t.Z.Address)})
	writer.Write([]string{fmt.Sprintf("# Size: %dx%d", t.Z.Rows, t.Z.Length)})
	writer.Write([]string{fmt.Sprintf("# Unit: %s", t.Z.Units)})
	writer.Write([]string{""})

	header := []string{fmt.Sprintf("%s\\%s", axisName(m.Y), axisName(m.X))}
	for j := 0; j < t.Z.Length; j++ {
		header = append(header, point(m.X, j))
	}
	writer.Write(header)

	for i, values := range m.Data {
		row := []string{point(m.Y, i)}
		for _, v := range values {
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		writer.Write(row)
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to write csv")
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
		return fmt.Sprint(i)
	case i < len(a.Labels):
		return a.Labels[i]
	}
	return fmt.Sprintf("%g", a.Values[i])
}
