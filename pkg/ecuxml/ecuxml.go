// Package ecuxml writes map definitions in the ecus/ecu_struct XML layout
// read by flashing tools.
package ecuxml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/equation"
	"github.com/tosih/a2l2ecu/pkg/models"
)

const valueFormat = "%0.2f"

// Document holds the ecus tree of one run
type Document struct {
	doc    *etree.Document
	ecu    *etree.Element
	order  string
	tables int
}

// New creates the ecu_struct element. name is used as its id and type.
func New(name string, family models.Family) *Document {
	doc := etree.NewDocument()
	root := doc.CreateElement("ecus")

	ecu := root.CreateElement("ecu_struct")
	ecu.CreateAttr("id", name)
	ecu.CreateAttr("type", name)
	ecu.CreateAttr("include", "")
	ecu.CreateAttr("desc_size", family.DescSize)
	ecu.CreateAttr("reverse_bytes", "False")
	ecu.CreateAttr("ecu_type", "vag")
	ecu.CreateAttr("flash_template", "")
	ecu.CreateAttr("checksum", "")

	return &Document{doc: doc, ecu: ecu, order: family.RowOrder}
}

func (d *Document) Tables() int {
	return d.tables
}

// Table appends one map element
func (d *Document) Table(t *models.TableDescription) error {
	if !t.Z.Datatype.Known() {
		return errors.Wrapf(models.ErrUnknownDatatype, "map %s", t.Name)
	}

	m := d.ecu.CreateElement("map")
	m.CreateAttr("name", t.Title)
	m.CreateAttr("type", fmt.Sprint(t.AxisCount()))
	m.CreateAttr("help", t.Description)
	m.CreateAttr("class", strings.Join(t.Categories, "|"))

	data := m.CreateElement("data")
	conversion(data, &t.Z)
	data.CreateAttr("min", equation.Format(t.Z.Min))
	data.CreateAttr("max", equation.Format(t.Z.Max))
	if d.order != "" {
		data.CreateAttr("order", d.order)
	}

	if t.X != nil {
		axis(m, "cols", t.X)
	}
	if t.Y != nil {
		axis(m, "rows", t.Y)
	}
	d.tables++
	return nil
}

func axis(m *etree.Element, tag string, a *models.AxisOutput) {
	el := m.CreateElement(tag)
	el.CreateAttr("count", fmt.Sprint(a.Length))
	conversion(el, a)
	if a.Verbal {
		for _, label := range a.Labels {
			el.CreateElement("value").SetText(label)
		}
	}
}

// conversion writes the attributes shared by data, cols and rows
func conversion(el *etree.Element, a *models.AxisOutput) {
	storage := a.Datatype.StorageType()
	if !a.HasAddress {
		storage = models.UByte.StorageType()
	}
	el.CreateAttr("offset", fmt.Sprintf("#%x", a.Address))
	el.CreateAttr("storagetype", storage)
	el.CreateAttr("func_2val", a.Math)
	el.CreateAttr("func_val2", a.MathInv)
	el.CreateAttr("format", valueFormat)
	el.CreateAttr("metric", a.Units)
}

// WriteTo serializes the document indented with tabs
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.doc.IndentTabs()
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
