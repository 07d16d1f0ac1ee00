package a2l

import (
	"os"
	"sort"

	"github.com/pkg/errors"
)

// Characteristic is a raw CHARACTERISTIC block
type Characteristic struct {
	Name              string
	LongIdentifier    string
	Type              string
	Address           uint64
	Deposit           string
	Conversion        string
	Lower             float64
	Upper             float64
	DisplayIdentifier string
	Axes              []AxisDescr
}

// AxisDescr is a raw AXIS_DESCR block
type AxisDescr struct {
	Attribute     string
	InputQuantity string
	Conversion    string
	MaxAxisPoints int
	Lower         float64
	Upper         float64
	AxisPtsRef    string
	// FixCount is the point count from FIX_AXIS_PAR(_DIST), 0 when absent
	FixCount int
}

// AxisPts is a raw AXIS_PTS block
type AxisPts struct {
	Name           string
	LongIdentifier string
	Address        uint64
	InputQuantity  string
	Deposit        string
	Conversion     string
	MaxAxisPoints  int
	Lower          float64
	Upper          float64
}

// RecordLayout keeps the datatypes of a RECORD_LAYOUT block
type RecordLayout struct {
	Name      string
	FncValues string
	// AxisPts maps "X", "Y", "Z" to the AXIS_PTS_<n> datatype
	AxisPts map[string]string
	// NoAxisPts maps "X", "Y", "Z" to the NO_AXIS_PTS_<n> datatype
	NoAxisPts map[string]string
}

// CompuMethod is a raw COMPU_METHOD block
type CompuMethod struct {
	Name           string
	ConversionType string
	Format         string
	Unit           string
	Coeffs         []float64
	CoeffsLinear   []float64
	TabRef         string
}

// CompuVTab is a raw COMPU_VTAB or COMPU_VTAB_RANGE block
type CompuVTab struct {
	Name   string
	Labels []string
}

// Group is a raw GROUP block
type Group struct {
	Name           string
	LongIdentifier string
	Root           bool
	Refs           []string
}

// Function is a raw FUNCTION block
type Function struct {
	Name           string
	LongIdentifier string
	Defs           []string
	Refs           []string
}

// Database indexes the blocks of one A2L file by name
type Database struct {
	Characteristics map[string]*Characteristic
	AxisPts         map[string]*AxisPts
	RecordLayouts   map[string]*RecordLayout
	CompuMethods    map[string]*CompuMethod
	CompuVTabs      map[string]*CompuVTab
	Segments        map[string]uint64

	groups    []*Group
	functions []*Function
	order     []string

	// broken holds the conversion error of characteristics and axis
	// points objects that could not be indexed, brokenCompu that of
	// compu methods
	broken      map[string]error
	brokenCompu map[string]error
	issues      []error
}

// Open reads and indexes an A2L file
func Open(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	db, err := Load(decode(data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	return db, nil
}

// Load parses and indexes A2L source text. Only syntax errors fail the
// load; objects whose values cannot be converted are listed by Issues
// and fail their own Lookup.
func Load(src string) (*Database, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	db := &Database{
		Characteristics: make(map[string]*Characteristic),
		AxisPts:         make(map[string]*AxisPts),
		RecordLayouts:   make(map[string]*RecordLayout),
		CompuMethods:    make(map[string]*CompuMethod),
		CompuVTabs:      make(map[string]*CompuVTab),
		Segments:        make(map[string]uint64),
		broken:          make(map[string]error),
		brokenCompu:     make(map[string]error),
	}

	root.Walk(func(n *Node) {
		var err error
		switch n.Kind {
		case "CHARACTERISTIC":
			err = db.addCharacteristic(n)
		case "AXIS_PTS":
			err = db.addAxisPts(n)
		case "RECORD_LAYOUT":
			db.addRecordLayout(n)
		case "COMPU_METHOD":
			err = db.addCompuMethod(n)
		case "COMPU_VTAB":
			db.addCompuVTab(n, 2)
		case "COMPU_VTAB_RANGE":
			db.addCompuVTab(n, 3)
		case "GROUP":
			db.addGroup(n)
		case "FUNCTION":
			db.addFunction(n)
		case "MEMORY_SEGMENT":
			err = db.addSegment(n)
		}
		db.record(n, err)
	})

	sort.Slice(db.groups, func(i, j int) bool { return db.groups[i].Name < db.groups[j].Name })
	sort.Slice(db.functions, func(i, j int) bool { return db.functions[i].Name < db.functions[j].Name })
	return db, nil
}

// record keeps the outcome of indexing one object. A failed object stays
// reachable by name so that looking it up reports why it was dropped.
func (db *Database) record(n *Node, err error) {
	name := n.Arg(0)
	switch n.Kind {
	case "CHARACTERISTIC", "AXIS_PTS":
		if err == nil {
			delete(db.broken, name)
			return
		}
		if n.Kind == "CHARACTERISTIC" && !db.known(name) {
			db.order = append(db.order, name)
		}
	case "COMPU_METHOD":
		if err == nil {
			delete(db.brokenCompu, name)
			return
		}
	}
	if err == nil {
		return
	}
	err = errors.Wrapf(err, "line %d: %s %s", n.Line, n.Kind, name)
	db.issues = append(db.issues, err)
	switch n.Kind {
	case "CHARACTERISTIC", "AXIS_PTS":
		db.broken[name] = err
	case "COMPU_METHOD":
		db.brokenCompu[name] = err
	}
}

func (db *Database) known(name string) bool {
	if _, ok := db.Characteristics[name]; ok {
		return true
	}
	_, ok := db.broken[name]
	return ok
}

// Issues returns the objects that could not be indexed, in file order
func (db *Database) Issues() []error {
	return db.issues
}

// args is a small cursor that remembers the first conversion error
type args struct {
	n   *Node
	err error
}

func (a *args) uint(i int) uint64 {
	v, err := ParseUint(a.n.Arg(i))
	if err != nil && a.err == nil {
		a.err = errors.Wrapf(err, "argument %d", i+1)
	}
	return v
}

func (a *args) float(i int) float64 {
	v, err := ParseFloat(a.n.Arg(i))
	if err != nil && a.err == nil {
		a.err = errors.Wrapf(err, "argument %d", i+1)
	}
	return v
}

func (db *Database) addCharacteristic(n *Node) error {
	a := &args{n: n}
	c := &Characteristic{
		Name:           n.Arg(0),
		LongIdentifier: n.Arg(1),
		Type:           n.Arg(2),
		Address:        a.uint(3),
		Deposit:        n.Arg(4),
		Conversion:     n.Arg(6),
		Lower:          a.float(7),
		Upper:          a.float(8),
	}
	if kw, ok := n.Keyword("DISPLAY_IDENTIFIER"); ok && len(kw.Args) > 0 {
		c.DisplayIdentifier = kw.Args[0]
	}
	for _, ad := range n.ChildrenOf("AXIS_DESCR") {
		axis, err := parseAxisDescr(ad)
		if err != nil {
			return errors.Wrapf(err, "axis %d", len(c.Axes))
		}
		c.Axes = append(c.Axes, axis)
	}
	if a.err != nil {
		return a.err
	}
	if !db.known(c.Name) {
		db.order = append(db.order, c.Name)
	}
	db.Characteristics[c.Name] = c
	return nil
}

func parseAxisDescr(n *Node) (AxisDescr, error) {
	a := &args{n: n}
	ad := AxisDescr{
		Attribute:     n.Arg(0),
		InputQuantity: n.Arg(1),
		Conversion:    n.Arg(2),
		MaxAxisPoints: int(a.uint(3)),
		Lower:         a.float(4),
		Upper:         a.float(5),
	}
	if kw, ok := n.Keyword("AXIS_PTS_REF"); ok && len(kw.Args) > 0 {
		ad.AxisPtsRef = kw.Args[0]
	}
	for _, name := range []string{"FIX_AXIS_PAR", "FIX_AXIS_PAR_DIST"} {
		if kw, ok := n.Keyword(name); ok && len(kw.Args) >= 3 {
			count, err := ParseUint(kw.Args[2])
			if err != nil {
				return ad, errors.Wrap(err, name)
			}
			ad.FixCount = int(count)
		}
	}
	return ad, a.err
}

func (db *Database) addAxisPts(n *Node) error {
	a := &args{n: n}
	ap := &AxisPts{
		Name:           n.Arg(0),
		LongIdentifier: n.Arg(1),
		Address:        a.uint(2),
		InputQuantity:  n.Arg(3),
		Deposit:        n.Arg(4),
		Conversion:     n.Arg(6),
		MaxAxisPoints:  int(a.uint(7)),
		Lower:          a.float(8),
		Upper:          a.float(9),
	}
	if a.err != nil {
		return a.err
	}
	db.AxisPts[ap.Name] = ap
	return nil
}

func (db *Database) addRecordLayout(n *Node) {
	rl := &RecordLayout{
		Name:      n.Arg(0),
		AxisPts:   make(map[string]string),
		NoAxisPts: make(map[string]string),
	}
	for _, kw := range n.Keywords {
		if len(kw.Args) < 2 {
			continue
		}
		switch kw.Name {
		case "FNC_VALUES":
			rl.FncValues = kw.Args[1]
		case "AXIS_PTS_X", "AXIS_PTS_Y", "AXIS_PTS_Z":
			rl.AxisPts[kw.Name[len(kw.Name)-1:]] = kw.Args[1]
		case "NO_AXIS_PTS_X", "NO_AXIS_PTS_Y", "NO_AXIS_PTS_Z":
			rl.NoAxisPts[kw.Name[len(kw.Name)-1:]] = kw.Args[1]
		}
	}
	db.RecordLayouts[rl.Name] = rl
}

func (db *Database) addCompuMethod(n *Node) error {
	cm := &CompuMethod{
		Name:           n.Arg(0),
		ConversionType: n.Arg(2),
		Format:         n.Arg(3),
		Unit:           n.Arg(4),
	}
	parseAll := func(values []string) ([]float64, error) {
		out := make([]float64, len(values))
		for i, s := range values {
			v, err := ParseFloat(s)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	if kw, ok := n.Keyword("COEFFS"); ok {
		coeffs, err := parseAll(kw.Args)
		if err != nil || len(coeffs) != 6 {
			return errors.Errorf("COEFFS needs six numbers, got %v", kw.Args)
		}
		cm.Coeffs = coeffs
	}
	if kw, ok := n.Keyword("COEFFS_LINEAR"); ok {
		coeffs, err := parseAll(kw.Args)
		if err != nil || len(coeffs) != 2 {
			return errors.Errorf("COEFFS_LINEAR needs two numbers, got %v", kw.Args)
		}
		cm.CoeffsLinear = coeffs
	}
	if kw, ok := n.Keyword("COMPU_TAB_REF"); ok && len(kw.Args) > 0 {
		cm.TabRef = kw.Args[0]
	}
	db.CompuMethods[cm.Name] = cm
	return nil
}

// addCompuVTab keeps the text of each entry in file order. stride is the
// number of values per entry, the text always being the last one.
func (db *Database) addCompuVTab(n *Node, stride int) {
	fixed := 4
	if stride == 3 {
		fixed = 3
	}
	vt := &CompuVTab{Name: n.Arg(0)}
	rest := n.Args
	if len(rest) > fixed {
		rest = rest[fixed:]
	} else {
		rest = nil
	}
	for i := stride - 1; i < len(rest); i += stride {
		vt.Labels = append(vt.Labels, rest[i])
	}
	db.CompuVTabs[vt.Name] = vt
}

func (db *Database) addGroup(n *Node) {
	g := &Group{Name: n.Arg(0), LongIdentifier: n.Arg(1)}
	_, g.Root = n.Keyword("ROOT")
	for _, ref := range n.ChildrenOf("REF_CHARACTERISTIC") {
		g.Refs = append(g.Refs, ref.Args...)
	}
	db.groups = append(db.groups, g)
}

func (db *Database) addFunction(n *Node) {
	f := &Function{Name: n.Arg(0), LongIdentifier: n.Arg(1)}
	for _, def := range n.ChildrenOf("DEF_CHARACTERISTIC") {
		f.Defs = append(f.Defs, def.Args...)
	}
	for _, ref := range n.ChildrenOf("REF_CHARACTERISTIC") {
		f.Refs = append(f.Refs, ref.Args...)
	}
	db.functions = append(db.functions, f)
}

func (db *Database) addSegment(n *Node) error {
	a := &args{n: n}
	addr := a.uint(5)
	if a.err != nil {
		return a.err
	}
	db.Segments[n.Arg(0)] = addr
	return nil
}

// Groups returns all groups ordered by name
func (db *Database) Groups() []*Group {
	return db.groups
}

// Functions returns all functions ordered by name
func (db *Database) Functions() []*Function {
	return db.functions
}

// CharacteristicNames returns characteristic names in file order
func (db *Database) CharacteristicNames() []string {
	return db.order
}

// SegmentAddress returns the start address of a memory segment
func (db *Database) SegmentAddress(name string) (uint64, bool) {
	addr, ok := db.Segments[name]
	return addr, ok
}
