package reader

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/models"
)

// Axis is one decoded axis. Axes without data in the binary are indexed
// 0..n-1 and carry their labels, if any.
type Axis struct {
	Name   string
	Units  string
	Values []float64
	Labels []string
}

// Map is a table read back from a binary dump in physical units
type Map struct {
	Table *models.TableDescription
	X     *Axis
	Y     *Axis
	// Data is indexed [row][col], rows follow the y axis
	Data [][]float64
}

// ReadMap reads the value array and axes of a table from the binary file
func ReadMap(filename string, t *models.TableDescription) (*Map, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open binary")
	}
	defer f.Close()
	return Decode(f, t)
}

// Decode reads a table from r. Values are stored little endian with the
// x index varying fastest.
func Decode(r io.ReaderAt, t *models.TableDescription) (*Map, error) {
	m := &Map{Table: t}
	var err error
	if t.X != nil {
		if m.X, err = readAxis(r, t.X); err != nil {
			return nil, errors.Wrapf(err, "%s x axis", t.Name)
		}
	}
	if t.Y != nil {
		if m.Y, err = readAxis(r, t.Y); err != nil {
			return nil, errors.Wrapf(err, "%s y axis", t.Name)
		}
	}

	conv, err := NewConverter(t.Z.Math)
	if err != nil {
		return nil, errors.Wrapf(err, "%s values", t.Name)
	}
	raw, err := readValues(r, t.Z.Address, t.Z.Datatype, t.Z.Length*t.Z.Rows)
	if err != nil {
		return nil, errors.Wrapf(err, "%s values", t.Name)
	}

	m.Data = make([][]float64, t.Z.Rows)
	for i := 0; i < t.Z.Rows; i++ {
		m.Data[i] = make([]float64, t.Z.Length)
		for j := 0; j < t.Z.Length; j++ {
			if m.Data[i][j], err = conv.Convert(raw[i*t.Z.Length+j]); err != nil {
				return nil, errors.Wrapf(err, "%s values", t.Name)
			}
		}
	}
	return m, nil
}

func readAxis(r io.ReaderAt, a *models.AxisOutput) (*Axis, error) {
	axis := &Axis{Name: a.Name, Units: a.Units, Labels: a.Labels}
	if !a.HasAddress {
		axis.Values = make([]float64, a.Length)
		for i := range axis.Values {
			axis.Values[i] = float64(i)
		}
		return axis, nil
	}

	conv, err := NewConverter(a.Math)
	if err != nil {
		return nil, err
	}
	raw, err := readValues(r, a.Address, a.Datatype, a.Length)
	if err != nil {
		return nil, err
	}
	axis.Values = make([]float64, len(raw))
	for i, v := range raw {
		if axis.Values[i], err = conv.Convert(v); err != nil {
			return nil, err
		}
	}
	return axis, nil
}

func readValues(r io.ReaderAt, offset int64, dt models.Datatype, n int) ([]float64, error) {
	if !dt.Known() {
		return nil, errors.Wrapf(models.ErrUnknownDatatype, "%q", string(dt))
	}
	if offset < 0 {
		return nil, errors.Errorf("negative offset %#x", offset)
	}
	sr := io.NewSectionReader(r, offset, int64(n*dt.Size()))
	values := make([]float64, n)
	for i := range values {
		v, err := readValue(sr, dt)
		if err != nil {
			return nil, errors.Wrapf(err, "read at %#x", offset+int64(i*dt.Size()))
		}
		values[i] = v
	}
	return values, nil
}

func readValue(r io.Reader, dt models.Datatype) (float64, error) {
	var err error
	switch dt {
	case models.UByte:
		var v uint8
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.SByte:
		var v int8
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.UWord:
		var v uint16
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.SWord:
		var v int16
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.ULong:
		var v uint32
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.SLong:
		var v int32
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.UInt64:
		var v uint64
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.Int64:
		var v int64
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.Float32:
		var v float32
		err = binary.Read(r, binary.LittleEndian, &v)
		return float64(v), err
	case models.Float64:
		var v float64
		err = binary.Read(r, binary.LittleEndian, &v)
		return v, err
	}
	return 0, errors.Wrapf(models.ErrUnknownDatatype, "%q", string(dt))
}

// FindMinMax finds the minimum and maximum values in map data
func FindMinMax(data [][]float64) (float64, float64) {
	if len(data) == 0 || len(data[0]) == 0 {
		return 0, 0
	}
	min := data[0][0]
	max := data[0][0]

	for _, row := range data {
		for _, val := range row {
			if val < min {
				min = val
			}
			if val > max {
				max = val
			}
		}
	}

	return min, max
}
