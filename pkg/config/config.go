// Package config loads ECU family profiles and resolves the values that
// depend on the description being converted.
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tosih/a2l2ecu/pkg/models"
)

// File is the layout of a families file:
//
//	families:
//	  - name: Simos18.10
//	    base_segment: _ROM
//	    iterate: functions
//	    desc_size: "#400000"
//	    region_size: 0x400000
type File struct {
	Families []models.Family `yaml:"families"`
}

// SegmentSource looks up memory segment start addresses
type SegmentSource interface {
	SegmentAddress(name string) (uint64, bool)
}

// Parse decodes and validates a families file. Unknown keys are rejected.
func Parse(r io.Reader) ([]models.Family, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "failed to decode families")
	}
	for i := range f.Families {
		if err := Validate(&f.Families[i]); err != nil {
			return nil, err
		}
	}
	return f.Families, nil
}

// Load returns the built-in families merged with the ones in path. An
// empty path yields the built-ins.
func Load(path string) ([]models.Family, error) {
	families := append([]models.Family(nil), models.Families...)
	if path == "" {
		return families, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	extra, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid families file %s", path)
	}
	return Merge(families, extra), nil
}

// Merge replaces families of the same name (ignoring case) and appends new ones
func Merge(base, extra []models.Family) []models.Family {
	out := append([]models.Family(nil), base...)
	for _, f := range extra {
		replaced := false
		for i := range out {
			if strings.EqualFold(out[i].Name, f.Name) {
				out[i] = f
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks a family and fills defaults
func Validate(f *models.Family) error {
	if f.Name == "" {
		return errors.New("family without name")
	}
	switch f.Iterate {
	case "":
		f.Iterate = models.IterateGroups
	case models.IterateGroups, models.IterateFunctions:
	default:
		return errors.Errorf("family %s: unknown iterate %q", f.Name, f.Iterate)
	}
	if f.BaseOffset == 0 && f.BaseSegment == "" {
		return errors.Errorf("family %s: base_offset or base_segment is required", f.Name)
	}
	if f.DescSize != "" && !strings.HasPrefix(f.DescSize, "#") {
		return errors.Errorf("family %s: desc_size %q must start with #", f.Name, f.DescSize)
	}
	return nil
}

// BaseOffset returns the address subtracted from every raw address: the
// family's segment when the description has it, the constant otherwise.
// The second result reports whether the segment was used.
func BaseOffset(f models.Family, src SegmentSource) (uint64, bool) {
	if f.BaseSegment != "" && src != nil {
		if addr, ok := src.SegmentAddress(f.BaseSegment); ok {
			return addr, true
		}
	}
	return f.BaseOffset, false
}
