package models

import (
	"errors"
	"strings"
)

var (
	// ErrUnknownDatatype is returned when a record layout names a datatype
	// the tool has no size for.
	ErrUnknownDatatype = errors.New("unknown datatype")

	// ErrNotFound is returned when a name does not resolve to a calibration object.
	ErrNotFound = errors.New("calibration object not found")
)

// Datatype is an ASAP2 deposit datatype such as UWORD or FLOAT32_IEEE
type Datatype string

const (
	UByte   Datatype = "UBYTE"
	SByte   Datatype = "SBYTE"
	UWord   Datatype = "UWORD"
	SWord   Datatype = "SWORD"
	ULong   Datatype = "ULONG"
	SLong   Datatype = "SLONG"
	UInt64  Datatype = "A_UINT64"
	Int64   Datatype = "A_INT64"
	Float32 Datatype = "FLOAT32_IEEE"
	Float64 Datatype = "FLOAT64_IEEE"
)

type datatypeInfo struct {
	size    int
	signed  bool
	float   bool
	storage string
}

var datatypes = map[Datatype]datatypeInfo{
	UByte:   {1, false, false, "uint8"},
	SByte:   {1, true, false, "int8"},
	UWord:   {2, false, false, "uint16"},
	SWord:   {2, true, false, "int16"},
	ULong:   {4, false, false, "uint32"},
	SLong:   {4, true, false, "int32"},
	UInt64:  {8, false, false, "uint64"},
	Int64:   {8, true, false, "int64"},
	Float32: {4, true, true, "float"},
	Float64: {8, true, true, "double"},
}

// Known reports whether the datatype has a defined size
func (d Datatype) Known() bool {
	_, ok := datatypes[d]
	return ok
}

// Size returns the element size in bytes, or 0 for unknown datatypes
func (d Datatype) Size() int {
	return datatypes[d].size
}

func (d Datatype) Signed() bool {
	return datatypes[d].signed
}

func (d Datatype) Float() bool {
	return datatypes[d].float
}

// StorageType returns the storagetype token used by ECU XML definitions
func (d Datatype) StorageType() string {
	return datatypes[d].storage
}

// AxisKind selects the address rule that applies to an axis
type AxisKind int

const (
	// AxisShared axes live in a separate AXIS_PTS object (COM_AXIS, RES_AXIS)
	AxisShared AxisKind = iota
	// AxisFixed axes are computed from parameters and occupy no memory
	AxisFixed
	// AxisStandard axes are stored inline in front of the value array
	AxisStandard
)

func (k AxisKind) String() string {
	switch k {
	case AxisShared:
		return "shared"
	case AxisFixed:
		return "fixed"
	case AxisStandard:
		return "standard"
	}
	return "unknown"
}

// CompuKind describes how raw values convert to physical values
type CompuKind int

const (
	CompuNone CompuKind = iota
	CompuIdentity
	CompuRational
	CompuVerbal
)

// Coefficients are the six RAT_FUNC coefficients:
// raw = (a*phys^2 + b*phys + c) / (d*phys^2 + e*phys + f)
type Coefficients struct {
	A, B, C, D, E, F float64
}

// CompuMethod is a resolved conversion method
type CompuMethod struct {
	Name   string
	Kind   CompuKind
	Unit   string
	Coeffs Coefficients
	Labels []string
}

// HasCoefficients reports whether the method carries RAT_FUNC coefficients
func (c CompuMethod) HasCoefficients() bool {
	return c.Kind == CompuRational
}

// Units returns the display unit with the replacement character mapped back to a degree sign
func (c CompuMethod) Units() string {
	if c.Kind == CompuNone {
		return ""
	}
	return FixDegree(c.Unit)
}

// FixDegree replaces the unicode replacement character, which is what a
// latin-1 degree sign decodes to, with a real degree sign
func FixDegree(s string) string {
	return strings.ReplaceAll(s, "\uFFFD", "\u00B0")
}

// AxisPointsRef is the separate memory object holding a shared axis
type AxisPointsRef struct {
	Name     string
	Address  uint64
	Datatype Datatype
	Compu    CompuMethod
}

// AxisDescriptor describes one axis of a curve or map
type AxisDescriptor struct {
	Kind          AxisKind
	InputQuantity string
	MaxAxisPoints int
	Datatype      Datatype
	Compu         CompuMethod
	Lower         float64
	Upper         float64
	Ref           *AxisPointsRef
}

// MemSize is the number of bytes the axis values occupy
func (a AxisDescriptor) MemSize() int {
	return a.MaxAxisPoints * a.Datatype.Size()
}

// Name returns the referenced axis points name for shared axes and the
// input quantity otherwise
func (a AxisDescriptor) Name() string {
	if a.Kind == AxisShared && a.Ref != nil {
		return a.Ref.Name
	}
	return a.InputQuantity
}

// CalibrationItem is a characteristic as seen by the converter
type CalibrationItem struct {
	Name              string
	LongIdentifier    string
	DisplayIdentifier string
	Type              string
	Address           uint64
	Datatype          Datatype
	Lower             float64
	Upper             float64
	Compu             CompuMethod
	Axes              []AxisDescriptor
}

// Scalar reports whether the item has no axes
func (c *CalibrationItem) Scalar() bool {
	return len(c.Axes) == 0
}

// Resolved is what a name lookup yields: either a value characteristic or
// an axis points object, which has no table of its own
type Resolved interface {
	resolved()
	ItemName() string
}

// ValueCharacteristic wraps a characteristic that owns a value array
type ValueCharacteristic struct {
	Item *CalibrationItem
}

func (*ValueCharacteristic) resolved() {}

func (v *ValueCharacteristic) ItemName() string { return v.Item.Name }

// AxisPointsOnly is returned when the name belongs to an AXIS_PTS object
type AxisPointsOnly struct {
	Name string
	Ref  AxisPointsRef
}

func (*AxisPointsOnly) resolved() {}

func (a *AxisPointsOnly) ItemName() string { return a.Name }
