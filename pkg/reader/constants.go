package reader

import (
	"os"

	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/models"
)

// Constant is a scalar read from the binary
type Constant struct {
	Table *models.TableDescription
	Raw   float64
	Value float64
}

// ReadConstants reads all constant tables from the binary file in one pass
func ReadConstants(filename string, tables []*models.TableDescription) ([]Constant, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open binary")
	}
	defer f.Close()

	values := make([]Constant, 0, len(tables))
	for _, t := range tables {
		raw, err := readValues(f, t.Z.Address, t.Z.Datatype, 1)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", t.Name)
		}
		conv, err := NewConverter(t.Z.Math)
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", t.Name)
		}
		value, err := conv.Convert(raw[0])
		if err != nil {
			return nil, errors.Wrapf(err, "constant %s", t.Name)
		}
		values = append(values, Constant{Table: t, Raw: raw[0], Value: value})
	}
	return values, nil
}
