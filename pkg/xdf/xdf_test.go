package xdf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"

	"github.com/tosih/a2l2ecu/pkg/address"
	"github.com/tosih/a2l2ecu/pkg/assembler"
	"github.com/tosih/a2l2ecu/pkg/models"
)

var rpm = models.CompuMethod{
	Kind:   models.CompuRational,
	Unit:   "1/min",
	Coeffs: models.Coefficients{B: 1, F: 1},
}

func ignitionMap(name string, addr uint64) *models.CalibrationItem {
	ref := &models.AxisPointsRef{Name: "SNM", Address: 0x80010000, Datatype: models.UWord, Compu: rpm}
	return &models.CalibrationItem{
		Name:           name,
		LongIdentifier: "Ignition angle",
		Address:        addr,
		Datatype:       models.SWord,
		Lower:          -20,
		Upper:          60,
		Compu:          models.CompuMethod{Kind: models.CompuRational, Unit: "\uFFFDKW", Coeffs: models.Coefficients{B: 1, C: 48, F: 0.75}},
		Axes: []models.AxisDescriptor{
			{Kind: models.AxisShared, MaxAxisPoints: 16, Datatype: models.UWord, Compu: rpm, Upper: 7000, Ref: ref},
		},
	}
}

func build(t *testing.T, items []*models.CalibrationItem, reqs []assembler.Request, constants bool) *etree.Document {
	t.Helper()
	asm := assembler.New(address.Calculator{BaseOffset: 0x80000000, InlineValueShift: true}, assembler.XDFTarget(), constants)
	doc := New("sample.a2l", 0x180000, asm.Categories)
	for i, item := range items {
		res, err := asm.Assemble(item, reqs[i])
		if err != nil {
			t.Fatal(err)
		}
		if res.Table == nil {
			continue
		}
		if err := doc.Table(res.Table); err != nil {
			t.Fatal(err)
		}
		for _, at := range res.AxisTables {
			if err := doc.Table(at); err != nil {
				t.Fatal(err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	out := etree.NewDocument()
	if err := out.ReadFromBytes(buf.Bytes()); err != nil {
		t.Fatalf("output is not XML: %v\n%s", err, buf.String())
	}
	return out
}

func TestHeader(t *testing.T) {
	doc := build(t, nil, nil, false)
	root := doc.Root()
	if root.Tag != "XDFFORMAT" || root.SelectAttrValue("version", "") != "1.60" {
		t.Fatalf("root = %s %v", root.Tag, root.Attr)
	}
	region := doc.FindElement("//XDFHEADER/REGION")
	if region.SelectAttrValue("size", "") != "0x180000" {
		t.Errorf("region size = %s", region.SelectAttrValue("size", ""))
	}
	cats := doc.FindElements("//XDFHEADER/CATEGORY")
	if len(cats) != 1 || cats[0].SelectAttrValue("name", "") != "Axis" || cats[0].SelectAttrValue("index", "") != "0x0" {
		t.Errorf("expected only the Axis category, got %d", len(cats))
	}
}

func TestTableWithSharedAxis(t *testing.T) {
	items := []*models.CalibrationItem{ignitionMap("KFZW", 0x80020000), ignitionMap("KFZW2", 0x80021000)}
	reqs := []assembler.Request{
		{Category: "Ignition", SubCategory: "Base"},
		{Category: "Ignition", CustomName: "Second ignition"},
	}
	doc := build(t, items, reqs, false)

	var names []string
	for _, c := range doc.FindElements("//XDFHEADER/CATEGORY") {
		names = append(names, c.SelectAttrValue("index", "")+"="+c.SelectAttrValue("name", ""))
	}
	if diff := cmp.Diff([]string{"0x0=Axis", "0x1=Ignition", "0x2=Base"}, names); diff != "" {
		t.Errorf("categories (-want +got):\n%s", diff)
	}

	tables := doc.FindElements("/XDFFORMAT/XDFTABLE")
	if len(tables) != 3 {
		t.Fatalf("got %d tables, want 2 maps and 1 axis table", len(tables))
	}
	kfzw, axis, second := tables[0], tables[1], tables[2]

	if kfzw.SelectAttrValue("uniqueid", "") != "0x20000" || kfzw.SelectAttrValue("flags", "") != "0x30" {
		t.Errorf("table attributes %v", kfzw.Attr)
	}
	var mems []string
	for _, m := range kfzw.SelectElements("CATEGORYMEM") {
		mems = append(mems, m.SelectAttrValue("index", "")+":"+m.SelectAttrValue("category", ""))
	}
	if diff := cmp.Diff([]string{"0:2", "1:3"}, mems); diff != "" {
		t.Errorf("category members (-want +got):\n%s", diff)
	}

	z := kfzw.FindElement("XDFAXIS[@id='z']")
	if got := z.FindElement("units").Text(); got != "°KW" {
		t.Errorf("units = %q", got)
	}
	if got := z.FindElement("MATH").SelectAttrValue("equation", ""); got != "((0.75 * X) - 48.0) / 1.0" {
		t.Errorf("z math = %q", got)
	}
	data := z.FindElement("EMBEDDEDDATA")
	if data.SelectAttrValue("mmedtypeflags", "") != "0x3" || data.SelectAttrValue("mmedcolcount", "") != "16" ||
		data.SelectAttrValue("mmedrowcount", "") != "1" || data.SelectAttrValue("mmedelementsizebits", "") != "16" {
		t.Errorf("z data %v", data.Attr)
	}
	if got := z.FindElement("min").Text(); got != "-20.0" {
		t.Errorf("min = %q", got)
	}

	x := kfzw.FindElement("XDFAXIS[@id='x']/EMBEDDEDDATA")
	if x.SelectAttrValue("mmedaddress", "") != "0x10000" || x.SelectAttrValue("mmedrowcount", "none") != "none" {
		t.Errorf("x data %v", x.Attr)
	}
	if labels := kfzw.FindElements("XDFAXIS[@id='y']/LABEL"); len(labels) != 1 {
		t.Errorf("placeholder y axis has %d labels", len(labels))
	}

	if got := axis.FindElement("title").Text(); got != "Ignition angle : x axis : SNM" {
		t.Errorf("axis table title = %q", got)
	}
	if got := axis.FindElement("CATEGORYMEM").SelectAttrValue("category", ""); got != "1" {
		t.Errorf("axis table category = %s", got)
	}
	if got := len(axis.FindElements("XDFAXIS[@id='x']/LABEL")); got != 16 {
		t.Errorf("axis table x labels = %d", got)
	}

	if got := second.FindElement("title").Text(); got != "Second ignition" {
		t.Errorf("custom title = %q", got)
	}
	if got := second.FindElement("description").Text(); !strings.Contains(got, "Original Name: Ignition angle") {
		t.Errorf("description = %q", got)
	}
}

func TestConstant(t *testing.T) {
	item := &models.CalibrationItem{
		Name:           "CWKONST",
		LongIdentifier: "coding",
		Address:        0x80050000,
		Datatype:       models.Float32,
		Compu:          rpm,
	}
	doc := build(t, []*models.CalibrationItem{item}, []assembler.Request{{Category: "Basics"}}, true)
	c := doc.FindElement("//XDFCONSTANT")
	if c == nil {
		t.Fatal("no constant element")
	}
	if c.SelectAttrValue("uniqueid", "") != "0x50000" {
		t.Errorf("uniqueid = %s", c.SelectAttrValue("uniqueid", ""))
	}
	if got := c.FindElement("EMBEDDEDDATA").SelectAttrValue("mmedtypeflags", ""); got != "0x10002" {
		t.Errorf("float flags = %s", got)
	}
	if got := c.FindElement("MATH").SelectAttrValue("equation", ""); got != "X" {
		t.Errorf("float constant math = %q", got)
	}
	if len(doc.FindElements("//XDFTABLE")) != 0 {
		t.Error("constant also emitted as table")
	}

	doc = build(t, []*models.CalibrationItem{item}, []assembler.Request{{Category: "Basics"}}, false)
	if len(doc.FindElements("//XDFCONSTANT")) != 0 || len(doc.FindElements("//XDFHEADER/CATEGORY")) != 1 {
		t.Error("scalar emitted with constants disabled")
	}
}

func TestVerbalFixedAxis(t *testing.T) {
	item := &models.CalibrationItem{
		Name:           "KLGEAR",
		LongIdentifier: "gear curve",
		Address:        0x80040000,
		Datatype:       models.UWord,
		Axes: []models.AxisDescriptor{{
			Kind:          models.AxisFixed,
			MaxAxisPoints: 3,
			Datatype:      models.UByte,
			Compu:         models.CompuMethod{Kind: models.CompuVerbal, Labels: []string{"N", "1st"}},
		}},
	}
	doc := build(t, []*models.CalibrationItem{item}, []assembler.Request{{Category: "Gear"}}, false)
	var got []string
	for _, l := range doc.FindElements("//XDFTABLE/XDFAXIS[@id='x']/LABEL") {
		got = append(got, l.SelectAttrValue("value", ""))
	}
	if diff := cmp.Diff([]string{"N", "1st", "-"}, got); diff != "" {
		t.Errorf("labels (-want +got):\n%s", diff)
	}
}

func TestUnregisteredCategory(t *testing.T) {
	doc := New("x", 0x1000, assembler.NewCategoryRegistry())
	err := doc.Table(&models.TableDescription{Name: "T", Categories: []string{"nope"}, Z: models.AxisOutput{Datatype: models.UByte}})
	if err == nil {
		t.Error("expected an error for an unknown category")
	}
}

func TestWriteFile(t *testing.T) {
	doc := New("sample.a2l", 0x180000, assembler.NewCategoryRegistry())
	path := filepath.Join(t.TempDir(), "out.xdf")
	if err := doc.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<XDFFORMAT")) {
		t.Errorf("file content:\n%s", data)
	}

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	if err := doc.WriteFile("/dev/full"); err == nil {
		t.Error("expected an error when the device is full")
	}
}
