package models

import "strings"

// Iteration selects how "ALL" walks the description
type Iteration string

const (
	IterateGroups    Iteration = "groups"
	IterateFunctions Iteration = "functions"
)

// Family defines the per-ECU policies that change addresses and output
type Family struct {
	Name string `yaml:"name"`
	// BaseOffset is subtracted from every raw address
	BaseOffset uint64 `yaml:"base_offset"`
	// BaseSegment, when set, names the memory segment whose address
	// replaces BaseOffset
	BaseSegment string    `yaml:"base_segment"`
	Iterate     Iteration `yaml:"iterate"`
	// DescSize is the ECU XML desc_size attribute
	DescSize string `yaml:"desc_size"`
	// RegionSize is the XDF binary region size
	RegionSize uint64 `yaml:"region_size"`
	// SharedAxisLengthPrefix skips the count field stored in front of
	// shared axis points
	SharedAxisLengthPrefix bool `yaml:"shared_axis_length_prefix"`
	// InlineValueShift moves the value array behind standard axes
	InlineValueShift bool `yaml:"inline_value_shift"`
	// RowOrder is the ECU XML data order attribute, empty for none
	RowOrder string `yaml:"row_order"`
	// DisplayDescription uses the display identifier instead of the
	// name as ECU XML description
	DisplayDescription bool `yaml:"display_description"`
}

// Built-in ECU families
var Families = []Family{
	{
		Name:             "DQ250",
		BaseOffset:       0x80000000,
		Iterate:          IterateGroups,
		DescSize:         "#140000",
		RegionSize:       0x180000,
		InlineValueShift: true,
	},
	{
		Name:                   "Simos18",
		BaseOffset:             0x80000000,
		BaseSegment:            "_ROM",
		Iterate:                IterateFunctions,
		DescSize:               "#400000",
		RegionSize:             0x400000,
		SharedAxisLengthPrefix: true,
		InlineValueShift:       true,
		RowOrder:               "rc",
		DisplayDescription:     true,
	},
}

// FindFamily looks a family up by name, ignoring case
func FindFamily(families []Family, name string) (Family, bool) {
	for _, f := range families {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Family{}, false
}
