// Package assembler combines addresses, units and formulas of a
// calibration item into the table description the emitters consume.
package assembler

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/address"
	"github.com/tosih/a2l2ecu/pkg/equation"
	"github.com/tosih/a2l2ecu/pkg/models"
)

// AxisCategory holds the standalone tables generated for shared axes
const AxisCategory = "Axis"

// Style selects how titles and descriptions are composed
type Style int

const (
	// StyleDescriptionLines keeps the long identifier as title and adds
	// extra information as description lines
	StyleDescriptionLines Style = iota
	// StyleInlineTitle appends the identifier to the title and joins
	// description parts with "|"
	StyleInlineTitle
)

// Target captures everything about an output format the assembler cares about
type Target struct {
	Name    string
	Dialect equation.Dialect
	Style   Style
	// AxisTables emits a standalone table for every distinct shared axis
	AxisTables bool
	// DisplayDescription describes tables by display identifier instead of name
	DisplayDescription bool
}

// XDFTarget is the tuning definition format
func XDFTarget() Target {
	return Target{
		Name:       "xdf",
		Dialect:    equation.XDF,
		Style:      StyleDescriptionLines,
		AxisTables: true,
	}
}

// ECUXMLTarget is the ECU map XML format for the given family
func ECUXMLTarget(family models.Family) Target {
	return Target{
		Name:               "xml",
		Dialect:            equation.ECUXML,
		Style:              StyleInlineTitle,
		DisplayDescription: family.DisplayDescription,
	}
}

// Request is one row of work: which item and where it goes
type Request struct {
	Name           string
	Category       string
	SubCategory    string
	SubSubCategory string
	CustomName     string
}

// Path returns the category path, skipping empty optional levels
func (r Request) Path() []string {
	path := []string{r.Category}
	for _, c := range []string{r.SubCategory, r.SubSubCategory} {
		if c != "" {
			path = append(path, c)
		}
	}
	return path
}

// Result is what one item turns into. Table is nil when the item is
// not emitted (scalars with constants disabled).
type Result struct {
	Table      *models.TableDescription
	AxisTables []*models.TableDescription
}

// Assembler builds table descriptions. The category registry and the axis
// tracker live as long as the assembler, one per output document.
type Assembler struct {
	Calc          address.Calculator
	Target        Target
	EmitConstants bool
	Categories    *CategoryRegistry
	Axes          *AxisTracker
}

func New(calc address.Calculator, target Target, emitConstants bool) *Assembler {
	a := &Assembler{
		Calc:          calc,
		Target:        target,
		EmitConstants: emitConstants,
		Categories:    NewCategoryRegistry(),
		Axes:          NewAxisTracker(),
	}
	if target.AxisTables {
		a.Categories.Add(AxisCategory)
	}
	return a
}

// Assemble turns one calibration item into its table description
func (a *Assembler) Assemble(item *models.CalibrationItem, req Request) (*Result, error) {
	if item.Scalar() && !a.EmitConstants {
		return &Result{}, nil
	}
	if !item.Datatype.Known() {
		return nil, pkgerrors.Wrapf(models.ErrUnknownDatatype, "%s value datatype %q", item.Name, string(item.Datatype))
	}
	zAddr, err := a.Calc.Value(item)
	if err != nil {
		return nil, err
	}

	d := a.Target.Dialect
	fwd, inv := d.Pair(item.Compu, item.Datatype)
	table := &models.TableDescription{
		Name: item.Name,
		Z: models.AxisOutput{
			Name:       item.Name,
			Address:    zAddr,
			HasAddress: true,
			Datatype:   item.Datatype,
			Length:     1,
			Rows:       1,
			Min:        item.Lower,
			Max:        item.Upper,
			Units:      item.Compu.Units(),
			Math:       fwd,
			MathInv:    inv,
		},
		Constant: item.Scalar(),
	}
	setLabels(&table.Z, item.Compu)
	a.describe(table, item, req)

	// registries must not change for an item that fails
	n := len(item.Axes)
	if n > 2 {
		n = 2
	}
	axes := make([]*models.AxisOutput, n)
	for i := range axes {
		out, err := a.axis(item, i)
		if err != nil {
			return nil, err
		}
		axes[i] = out
	}

	for _, name := range req.Path() {
		a.Categories.Add(name)
	}
	table.Categories = req.Path()

	res := &Result{Table: table}
	for i, out := range axes {
		slot := "x"
		if i == 0 {
			table.X = out
			table.Z.Length = out.Length
		} else {
			slot = "y"
			table.Y = out
			table.Z.Rows = out.Length
		}
		table.Description += fmt.Sprintf("%s%s: %s", a.separator(item.Axes[i].Kind), "XY"[i:i+1], out.Name)

		if item.Axes[i].Kind == models.AxisShared && a.Target.AxisTables &&
			a.Axes.FirstSeen(AxisKey{Address: out.Address, Kind: models.AxisShared}) {
			res.AxisTables = append(res.AxisTables, a.axisTable(table.Title, slot, out))
		}
	}
	return res, nil
}

// separator precedes each axis line of the description. ECU XML keeps
// shared axes on the title line.
func (a *Assembler) separator(kind models.AxisKind) string {
	if a.Target.Style == StyleInlineTitle && kind == models.AxisShared {
		return "|"
	}
	return "\n"
}

func (a *Assembler) describe(table *models.TableDescription, item *models.CalibrationItem, req Request) {
	switch a.Target.Style {
	case StyleInlineTitle:
		desc := item.Name
		if a.Target.DisplayDescription && item.DisplayIdentifier != "" {
			desc = item.DisplayIdentifier
		}
		title := item.LongIdentifier
		if req.CustomName != "" {
			title = req.CustomName
		}
		table.Title = fmt.Sprintf("%s (%s)", title, desc)
		table.Description = desc
	default:
		table.Title = item.LongIdentifier
		table.Description = item.Name
		if req.CustomName != "" {
			table.Description += "\nOriginal Name: " + item.LongIdentifier
			table.Title = req.CustomName
		}
	}
}

func (a *Assembler) axis(item *models.CalibrationItem, i int) (*models.AxisOutput, error) {
	ax := item.Axes[i]
	addr, err := a.Calc.Axis(item, i)
	hasAddr := true
	if errors.Is(err, address.ErrNoAddress) {
		addr, hasAddr = 0, false
	} else if err != nil {
		return nil, err
	}
	if hasAddr && !ax.Datatype.Known() {
		return nil, pkgerrors.Wrapf(models.ErrUnknownDatatype, "%s axis %d datatype %q", item.Name, i, string(ax.Datatype))
	}

	units := ax.Compu.Units()
	if ax.Kind == models.AxisShared && ax.Ref != nil {
		units = ax.Ref.Compu.Units()
	}
	fwd, inv := a.Target.Dialect.Pair(ax.Compu, "")
	out := &models.AxisOutput{
		Name:       ax.Name(),
		Address:    addr,
		HasAddress: hasAddr,
		Datatype:   ax.Datatype,
		Length:     ax.MaxAxisPoints,
		Rows:       1,
		Min:        ax.Lower,
		Max:        ax.Upper,
		Units:      units,
		Math:       fwd,
		MathInv:    inv,
	}
	setLabels(out, ax.Compu)
	return out, nil
}

// axisTable exposes a shared axis as a single row table so it can be
// edited on its own
func (a *Assembler) axisTable(title, slot string, axis *models.AxisOutput) *models.TableDescription {
	z := *axis
	z.Rows = 1
	return &models.TableDescription{
		Name:        axis.Name,
		Title:       fmt.Sprintf("%s : %s axis : %s", title, slot, axis.Name),
		Description: axis.Name,
		Categories:  []string{AxisCategory},
		Z:           z,
		X: &models.AxisOutput{
			Name:   axis.Name,
			Length: axis.Length,
			Rows:   1,
			Math:   a.Target.Dialect.Identity(),
		},
		Synthetic: true,
	}
}

func setLabels(out *models.AxisOutput, cm models.CompuMethod) {
	if cm.Kind != models.CompuVerbal {
		return
	}
	out.Verbal = true
	out.Labels = append([]string(nil), cm.Labels...)
}
