// Package xdf writes XDFFORMAT 1.60 definition files for tuning editors.
package xdf

import (
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/assembler"
	"github.com/tosih/a2l2ecu/pkg/equation"
	"github.com/tosih/a2l2ecu/pkg/models"
)

const (
	tableFlags = "0x30"

	typeLSBFirst = 0x02
	typeSigned   = 0x01
	typeFloat    = 0x10000
)

// Document is an XDF tree built table by table. Categories are taken from
// the registry the tables were assembled with.
type Document struct {
	doc        *etree.Document
	root       *etree.Element
	header     *etree.Element
	categories *assembler.CategoryRegistry
	synced     int
	tables     int
}

// New creates the document root and header
func New(title string, regionSize uint64, categories *assembler.CategoryRegistry) *Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("XDFFORMAT")
	root.CreateAttr("version", "1.60")

	header := root.CreateElement("XDFHEADER")
	header.CreateElement("flags").SetText("0x1")
	header.CreateElement("deftitle").SetText(title)
	header.CreateElement("description").SetText("Auto-generated by a2l2ecu")

	base := header.CreateElement("BASEOFFSET")
	base.CreateAttr("offset", "0")
	base.CreateAttr("subtract", "0")

	defaults := header.CreateElement("DEFAULTS")
	defaults.CreateAttr("datasizeinbits", "8")
	defaults.CreateAttr("sigdigits", "4")
	defaults.CreateAttr("outputtype", "1")
	defaults.CreateAttr("signed", "0")
	defaults.CreateAttr("lsbfirst", "1")
	defaults.CreateAttr("float", "0")

	region := header.CreateElement("REGION")
	region.CreateAttr("type", "0xFFFFFFFF")
	region.CreateAttr("startaddress", "0x0")
	region.CreateAttr("size", fmt.Sprintf("%#x", regionSize))
	region.CreateAttr("regionflags", "0x0")
	region.CreateAttr("name", "Binary")
	region.CreateAttr("desc", "BIN for the XDF")

	d := &Document{doc: doc, root: root, header: header, categories: categories}
	d.sync()
	return d
}

// Tables is the number of table and constant elements written so far
func (d *Document) Tables() int {
	return d.tables
}

// Table appends one table description
func (d *Document) Table(t *models.TableDescription) error {
	d.sync()
	if t.Constant {
		return d.constant(t)
	}

	table := d.root.CreateElement("XDFTABLE")
	table.CreateAttr("uniqueid", hex(t.Z.Address))
	table.CreateAttr("flags", tableFlags)
	table.CreateElement("title").SetText(t.Title)
	table.CreateElement("description").SetText(t.Description)
	if err := d.categoryMembers(table, t.Categories); err != nil {
		return errors.Wrapf(err, "table %s", t.Name)
	}

	for _, slot := range []struct {
		id   string
		axis *models.AxisOutput
	}{{"x", t.X}, {"y", t.Y}} {
		switch {
		case slot.axis == nil:
			labelAxis(table, slot.id, 1, nil)
		case slot.axis.HasAddress:
			dataAxis(table, slot.id, slot.axis)
		default:
			labelAxis(table, slot.id, slot.axis.Length, slot.axis.Labels)
		}
	}
	dataAxis(table, "z", &t.Z)
	d.tables++
	return nil
}

func (d *Document) constant(t *models.TableDescription) error {
	c := d.root.CreateElement("XDFCONSTANT")
	c.CreateAttr("uniqueid", hex(t.Z.Address))
	c.CreateElement("title").SetText(t.Title)
	c.CreateElement("description").SetText(t.Description)
	if err := d.categoryMembers(c, t.Categories); err != nil {
		return errors.Wrapf(err, "constant %s", t.Name)
	}
	embeddedData(c, "z", &t.Z)
	math(c, t.Z.Math)
	d.tables++
	return nil
}

func (d *Document) categoryMembers(el *etree.Element, names []string) error {
	for i, name := range names {
		index, ok := d.categories.Index(name)
		if !ok {
			return errors.Errorf("category %q is not registered", name)
		}
		mem := el.CreateElement("CATEGORYMEM")
		mem.CreateAttr("index", fmt.Sprint(i))
		mem.CreateAttr("category", fmt.Sprint(index))
	}
	return nil
}

// sync copies newly registered categories into the header
func (d *Document) sync() {
	names := d.categories.Names()
	for ; d.synced < len(names); d.synced++ {
		c := d.header.CreateElement("CATEGORY")
		c.CreateAttr("index", fmt.Sprintf("%#x", d.synced))
		c.CreateAttr("name", names[d.synced])
	}
}

func dataAxis(table *etree.Element, id string, a *models.AxisOutput) {
	axis := table.CreateElement("XDFAXIS")
	axis.CreateAttr("uniqueid", "0x0")
	axis.CreateAttr("id", id)
	embeddedData(axis, id, a)
	axis.CreateElement("indexcount").SetText(fmt.Sprint(a.Length))
	axis.CreateElement("min").SetText(equation.Format(a.Min))
	axis.CreateElement("max").SetText(equation.Format(a.Max))
	axis.CreateElement("units").SetText(a.Units)

	// linked, scale
	info := axis.CreateElement("embedinfo")
	info.CreateAttr("type", "3")
	info.CreateAttr("linkobjid", hex(a.Address))

	axis.CreateElement("DALINK").CreateAttr("index", "0")
	math(axis, a.Math)
}

// labelAxis is an axis without data in the binary, labelled with the
// verbal values when known
func labelAxis(table *etree.Element, id string, size int, labels []string) {
	axis := table.CreateElement("XDFAXIS")
	axis.CreateAttr("uniqueid", "0x0")
	axis.CreateAttr("id", id)
	axis.CreateElement("indexcount").SetText(fmt.Sprint(size))
	axis.CreateElement("outputtype").SetText("4")
	axis.CreateElement("DALINK").CreateAttr("index", "0")
	math(axis, equation.XDF.Identity())
	for i := 0; i < size; i++ {
		value := "-"
		if i < len(labels) {
			value = labels[i]
		}
		label := axis.CreateElement("LABEL")
		label.CreateAttr("index", fmt.Sprint(i))
		label.CreateAttr("value", value)
	}
}

func embeddedData(el *etree.Element, id string, a *models.AxisOutput) {
	flags := typeLSBFirst
	switch {
	case a.Datatype.Float():
		flags |= typeFloat
	case a.Datatype.Signed():
		flags |= typeSigned
	}
	bits := fmt.Sprint(a.Datatype.Size() * 8)

	data := el.CreateElement("EMBEDDEDDATA")
	data.CreateAttr("mmedtypeflags", fmt.Sprintf("%#x", flags))
	data.CreateAttr("mmedaddress", hex(a.Address))
	data.CreateAttr("mmedelementsizebits", bits)
	data.CreateAttr("mmedcolcount", fmt.Sprint(a.Length))
	if id == "z" {
		data.CreateAttr("mmedrowcount", fmt.Sprint(a.Rows))
	}
	data.CreateAttr("mmedmajorstridebits", bits)
	data.CreateAttr("mmedminorstridebits", "0")
}

func math(el *etree.Element, eq string) {
	m := el.CreateElement("MATH")
	m.CreateAttr("equation", eq)
	m.CreateElement("VAR").CreateAttr("id", "X")
}

func hex(v int64) string {
	return fmt.Sprintf("%#x", v)
}

// WriteTo serializes the document with two-space indentation
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.sync()
	d.doc.Indent(2)
	return d.doc.WriteTo(w)
}

// WriteFile writes the document to path
func (d *Document) WriteFile(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "failed to close %s", path)
		}
	}()

	if _, err := d.WriteTo(f); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
