package models

// AxisOutput is one resolved axis (or the value array) of a table
type AxisOutput struct {
	Name       string
	Address    int64
	HasAddress bool
	Datatype   Datatype
	Length     int
	Rows       int
	Min        float64
	Max        float64
	Units      string
	Math       string
	MathInv    string
	Verbal     bool
	Labels     []string
}

// TableDescription is the normalized unit handed to the document emitters
type TableDescription struct {
	Name        string
	Title       string
	Description string
	Categories  []string
	Z           AxisOutput
	X           *AxisOutput
	Y           *AxisOutput

	// Constant tables have no axes and are emitted as scalars
	Constant bool
	// Synthetic tables expose a shared axis as its own editable curve
	Synthetic bool
}

// AxisCount is the number of present axes plus the value array
func (t *TableDescription) AxisCount() int {
	n := 1
	if t.X != nil {
		n++
	}
	if t.Y != nil {
		n++
	}
	return n
}
