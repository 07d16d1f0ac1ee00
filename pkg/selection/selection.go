// Package selection reads and writes the CSV list of tables to convert.
package selection

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/assembler"
)

// All selects every item of the description instead of a list
const All = "ALL"

const (
	colName        = "Table Name"
	colCategory    = "Category 1"
	colSubCategory = "Category 2"
	colSubSub      = "Category 3"
	colCustomName  = "Custom Name"
)

// Header is the column layout of a selection file
var Header = []string{colName, colCategory, colSubCategory, colSubSub, colCustomName}

var bom = []byte("\xef\xbb\xbf")

// IsAll reports whether a selection argument means every item
func IsAll(arg string) bool {
	return arg == All
}

// Read parses a selection list. Columns are matched by header name, rows
// without a table name are ignored.
func Read(r io.Reader) ([]assembler.Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read selection")
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, bom)))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse selection")
	}
	if len(records) == 0 {
		return nil, errors.New("selection is empty")
	}

	cols := make(map[string]int)
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, errors.Errorf("selection has no %q column", colName)
	}
	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var reqs []assembler.Request
	for _, rec := range records[1:] {
		req := assembler.Request{
			Name:           field(rec, colName),
			Category:       field(rec, colCategory),
			SubCategory:    field(rec, colSubCategory),
			SubSubCategory: field(rec, colSubSub),
			CustomName:     field(rec, colCustomName),
		}
		if req.Name == "" {
			continue
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// ReadFile reads a selection list from path
func ReadFile(path string) ([]assembler.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open selection")
	}
	defer f.Close()
	return Read(f)
}

// Write produces a selection list that Read accepts
func Write(w io.Writer, reqs []assembler.Request) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "failed to write selection header")
	}
	for _, req := range reqs {
		row := []string{req.Name, req.Category, req.SubCategory, req.SubSubCategory, req.CustomName}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "failed to write %s", req.Name)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to write selection")
}

// WriteFile writes a selection list to path
func WriteFile(path string, reqs []assembler.Request) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create selection")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()
	return Write(f, reqs)
}
