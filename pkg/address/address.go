// Package address computes where value arrays and axes of a calibration
// item live in the flashed binary.
package address

import (
	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/models"
)

// ValueArray selects the value array instead of an axis in Resolve
const ValueArray = -1

// ErrNoAddress is returned for axes that occupy no memory (fixed axes).
// Callers must not use the returned offset in that case.
var ErrNoAddress = errors.New("axis has no address")

// ErrNegativeAddress is returned when the base and user offsets move an
// address in front of the start of the binary
var ErrNegativeAddress = errors.New("address lies before the start of the binary")

// Calculator maps ECU addresses onto offsets in a binary dump.
// BaseOffset is the family constant, UserOffset aligns to a specific dump.
type Calculator struct {
	BaseOffset int64
	UserOffset int64
	// SharedAxisLengthPrefix skips the point count stored in front of
	// shared axis values
	SharedAxisLengthPrefix bool
	// InlineValueShift moves the value array behind inline axis data
	InlineValueShift bool
}

// NewCalculator builds a calculator from a family policy
func NewCalculator(family models.Family, base uint64, userOffset int64) Calculator {
	return Calculator{
		BaseOffset:             int64(base),
		UserOffset:             userOffset,
		SharedAxisLengthPrefix: family.SharedAxisLengthPrefix,
		InlineValueShift:       family.InlineValueShift,
	}
}

// Adjust converts a raw ECU address into a binary offset
func (c Calculator) Adjust(raw uint64) int64 {
	return int64(raw) - c.BaseOffset + c.UserOffset
}

// Resolve returns the offset of the value array (axis == ValueArray) or
// of the given axis
func (c Calculator) Resolve(item *models.CalibrationItem, axis int) (int64, error) {
	if axis == ValueArray {
		return c.Value(item)
	}
	return c.Axis(item, axis)
}

// Value returns the offset of the value array. Standard axes are stored
// (count field, then points) in front of the values, so the array moves
// behind them when InlineValueShift is set.
func (c Calculator) Value(item *models.CalibrationItem) (int64, error) {
	addr := c.Adjust(item.Address)
	if !c.InlineValueShift {
		return checked(item, addr)
	}
	for i := range item.Axes {
		if item.Axes[i].Kind != models.AxisStandard {
			continue
		}
		n, err := inlineBlock(item, i)
		if err != nil {
			return 0, err
		}
		addr += n
	}
	return checked(item, addr)
}

// Axis returns the offset of the values of axis i
func (c Calculator) Axis(item *models.CalibrationItem, i int) (int64, error) {
	if i < 0 || i >= len(item.Axes) {
		return 0, errors.Errorf("%s has no axis %d", item.Name, i)
	}
	axis := item.Axes[i]
	switch axis.Kind {
	case models.AxisShared:
		if axis.Ref == nil {
			return 0, errors.Errorf("%s axis %d has no axis points reference", item.Name, i)
		}
		addr := c.Adjust(axis.Ref.Address)
		if c.SharedAxisLengthPrefix {
			size, err := datatypeSize(axis.Ref.Datatype)
			if err != nil {
				return 0, errors.Wrapf(err, "%s axis points %s", item.Name, axis.Ref.Name)
			}
			addr += size
		}
		return checked(item, addr)
	case models.AxisFixed:
		return 0, ErrNoAddress
	case models.AxisStandard:
		addr := c.Adjust(item.Address)
		for j := 0; j < i; j++ {
			if item.Axes[j].Kind != models.AxisStandard {
				continue
			}
			n, err := inlineBlock(item, j)
			if err != nil {
				return 0, err
			}
			addr += n
		}
		size, err := datatypeSize(axis.Datatype)
		if err != nil {
			return 0, errors.Wrapf(err, "%s axis %d", item.Name, i)
		}
		return checked(item, addr+size)
	}
	return 0, errors.Errorf("%s axis %d has unknown kind %d", item.Name, i, axis.Kind)
}

// inlineBlock is the number of bytes standard axis i occupies: its count
// field followed by its points
func inlineBlock(item *models.CalibrationItem, i int) (int64, error) {
	axis := item.Axes[i]
	size, err := datatypeSize(axis.Datatype)
	if err != nil {
		return 0, errors.Wrapf(err, "%s axis %d", item.Name, i)
	}
	return size + int64(axis.MemSize()), nil
}

func checked(item *models.CalibrationItem, addr int64) (int64, error) {
	if addr < 0 {
		return 0, errors.Wrapf(ErrNegativeAddress, "%s at -%#x", item.Name, -addr)
	}
	return addr, nil
}

func datatypeSize(dt models.Datatype) (int64, error) {
	if !dt.Known() {
		return 0, errors.Wrapf(models.ErrUnknownDatatype, "%q", string(dt))
	}
	return int64(dt.Size()), nil
}

// MapSize is the number of bytes the value array occupies
func MapSize(item *models.CalibrationItem) (int, error) {
	size, err := datatypeSize(item.Datatype)
	if err != nil {
		return 0, errors.Wrap(err, item.Name)
	}
	n := int(size)
	for _, axis := range item.Axes {
		n *= axis.MaxAxisPoints
	}
	return n, nil
}
