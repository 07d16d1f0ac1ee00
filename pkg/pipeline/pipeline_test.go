package pipeline

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/tosih/a2l2ecu/pkg/a2l"
	"github.com/tosih/a2l2ecu/pkg/address"
	"github.com/tosih/a2l2ecu/pkg/assembler"
	"github.com/tosih/a2l2ecu/pkg/models"
	"github.com/tosih/a2l2ecu/pkg/xdf"
)

type fakeSource struct {
	items     map[string]models.Resolved
	groups    []*a2l.Group
	functions []*a2l.Function
}

func (s *fakeSource) Lookup(name string) (models.Resolved, error) {
	r, ok := s.items[name]
	if !ok {
		return nil, pkgerrors.Wrap(models.ErrNotFound, name)
	}
	return r, nil
}

func (s *fakeSource) Groups() []*a2l.Group { return s.groups }
func (s *fakeSource) Functions() []*a2l.Function { return s.functions }

type recorder struct {
	tables []*models.TableDescription
}

func (r *recorder) Table(t *models.TableDescription) error {
	r.tables = append(r.tables, t)
	return nil
}

func (r *recorder) Tables() int { return len(r.tables) }
func (r *recorder) WriteTo(io.Writer) (int64, error) { return 0, nil }
func (r *recorder) WriteFile(string) error { return nil }

func curve(name string, addr uint64) *models.ValueCharacteristic {
	return &models.ValueCharacteristic{Item: &models.CalibrationItem{
		Name:           name,
		LongIdentifier: name,
		Address:        addr,
		Datatype:       models.UWord,
		Axes: []models.AxisDescriptor{
			{Kind: models.AxisStandard, InputQuantity: "nmot", Datatype: models.UWord, MaxAxisPoints: 4},
		},
	}}
}

func newPipeline(src Source, emitter Emitter, log logrus.FieldLogger) *Pipeline {
	calc := address.Calculator{BaseOffset: 0x80000000, InlineValueShift: true}
	return &Pipeline{
		Source:    src,
		Assembler: assembler.New(calc, assembler.XDFTarget(), false),
		Emitter:   emitter,
		Log:       log,
	}
}

func TestMissingItemIsSkipped(t *testing.T) {
	src := &fakeSource{items: map[string]models.Resolved{
		"KLA": curve("KLA", 0x80001000),
		"KLB": curve("KLB", 0x80002000),
		"SNM": &models.AxisPointsOnly{Name: "SNM"},
	}}
	logger, hook := test.NewNullLogger()
	rec := &recorder{}

	var seen []string
	p := newPipeline(src, rec, logger)
	p.Progress = func(_, _ int, req assembler.Request) { seen = append(seen, req.Name) }

	reqs := []assembler.Request{
		{Name: "KLA", Category: "Maps"},
		{Name: "NOPE", Category: "Maps"},
		{Name: "SNM", Category: "Maps"},
		{Name: "KLB", Category: "Maps"},
	}
	stats, err := p.Run(reqs)
	if err != nil {
		t.Fatal(err)
	}

	want := Stats{Requested: 4, Tables: 2, Missing: 1, Skipped: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if len(rec.tables) != 2 || rec.tables[1].Name != "KLB" {
		t.Errorf("emitted %d tables", len(rec.tables))
	}
	if diff := cmp.Diff([]string{"KLA", "NOPE", "SNM", "KLB"}, seen); diff != "" {
		t.Errorf("progress (-want +got):\n%s", diff)
	}

	var warnings []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e.Data["table"].(string)+": "+e.Data["reason"].(string))
		}
	}
	if diff := cmp.Diff([]string{"NOPE: not found", "SNM: axis points"}, warnings); diff != "" {
		t.Errorf("warnings (-want +got):\n%s", diff)
	}
}

func TestUnbuildableItemIsSkipped(t *testing.T) {
	bad := curve("KLBAD", 0x80001000)
	bad.Item.Datatype = "A_BIT"
	src := &fakeSource{items: map[string]models.Resolved{"KLBAD": bad, "KLA": curve("KLA", 0x80002000)}}
	logger, hook := test.NewNullLogger()

	stats, err := newPipeline(src, &recorder{}, logger).Run([]assembler.Request{
		{Name: "KLBAD", Category: "Maps"},
		{Name: "KLA", Category: "Maps"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 || stats.Tables != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if e := hook.Entries[0]; e.Level != logrus.WarnLevel || e.Data["table"] != "KLBAD" {
		t.Errorf("first entry = %v %v", e.Level, e.Data)
	}
}

func TestAll(t *testing.T) {
	src := &fakeSource{
		groups: []*a2l.Group{
			{Name: "Basics", Refs: []string{"CWKONST", "KFSTD"}},
			{Name: "Ignition", Refs: []string{"KFZW"}},
		},
		functions: []*a2l.Function{
			{Name: "FN_IGN", Defs: []string{"KFZW", "KLGEAR"}, Refs: []string{"nmot"}},
		},
	}
	groups := All(src, models.IterateGroups)
	want := []assembler.Request{
		{Name: "CWKONST", Category: "Basics"},
		{Name: "KFSTD", Category: "Basics"},
		{Name: "KFZW", Category: "Ignition"},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}

	functions := All(src, models.IterateFunctions)
	want = []assembler.Request{
		{Name: "KFZW", Category: "FN_IGN"},
		{Name: "KLGEAR", Category: "FN_IGN"},
	}
	if diff := cmp.Diff(want, functions); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
}

func TestSampleDescription(t *testing.T) {
	db, err := a2l.Open("../a2l/testdata/sample.a2l")
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := test.NewNullLogger()
	calc := address.Calculator{BaseOffset: 0x80000000, InlineValueShift: true}
	asm := assembler.New(calc, assembler.XDFTarget(), false)
	doc := xdf.New("sample.a2l", 0x180000, asm.Categories)
	p := &Pipeline{Source: db, Assembler: asm, Emitter: doc, Log: logger}

	stats, err := p.Run(All(db, models.IterateGroups))
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Requested: 4, Tables: 2, AxisTables: 1, Scalars: 1, Skipped: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	if doc.Tables() != 3 {
		t.Errorf("document holds %d tables", doc.Tables())
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`<XDFTABLE uniqueid="0x20000" flags="0x30">`)) {
		t.Errorf("KFZW table missing from output:\n%s", buf.String())
	}
}
