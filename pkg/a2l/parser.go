package a2l

import (
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Node is a /begin ... /end block
type Node struct {
	Kind     string
	Line     int
	Args     []string
	Keywords []Keyword
	Children []*Node
}

// Keyword is an optional keyword line inside a block
type Keyword struct {
	Name string
	Line int
	Args []string
}

// Keyword returns the first keyword with the given name
func (n *Node) Keyword(name string) (Keyword, bool) {
	for _, kw := range n.Keywords {
		if kw.Name == name {
			return kw, true
		}
	}
	return Keyword{}, false
}

// Arg returns positional argument i or "" when it is missing
func (n *Node) Arg(i int) string {
	if i < len(n.Args) {
		return n.Args[i]
	}
	return ""
}

// ChildrenOf returns the direct children of the given kind
func (n *Node) ChildrenOf(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and every block below it depth first
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

const allPositional = math.MaxInt

// positional argument count per block, blocks not listed take their
// leading values until the first keyword
var arity = map[string]int{
	"PROJECT":                  2,
	"MODULE":                   2,
	"HEADER":                   1,
	"MOD_PAR":                  1,
	"MOD_COMMON":               1,
	"MEMORY_SEGMENT":           12,
	"MEMORY_LAYOUT":            8,
	"CHARACTERISTIC":           9,
	"AXIS_DESCR":               6,
	"AXIS_PTS":                 10,
	"RECORD_LAYOUT":            1,
	"COMPU_METHOD":             5,
	"COMPU_TAB":                4,
	"COMPU_VTAB":               4,
	"COMPU_VTAB_RANGE":         3,
	"MEASUREMENT":              8,
	"GROUP":                    2,
	"FUNCTION":                 2,
	"UNIT":                     4,
	"FORMULA":                  1,
	"TYPEDEF_AXIS":             8,
	"ANNOTATION":               0,
	"ANNOTATION_TEXT":          allPositional,
	"IF_DATA":                  allPositional,
	"REF_CHARACTERISTIC":       allPositional,
	"DEF_CHARACTERISTIC":       allPositional,
	"REF_MEASUREMENT":          allPositional,
	"IN_MEASUREMENT":           allPositional,
	"OUT_MEASUREMENT":          allPositional,
	"LOC_MEASUREMENT":          allPositional,
	"SUB_GROUP":                allPositional,
	"SUB_FUNCTION":             allPositional,
	"FUNCTION_LIST":            allPositional,
	"REF_GROUP":                allPositional,
	"VIRTUAL":                  allPositional,
	"DEPENDENT_CHARACTERISTIC": 1,
	"VIRTUAL_CHARACTERISTIC":   1,
}

// keywords that open an optional keyword line
var keywords = map[string]bool{}

func init() {
	for _, kw := range strings.Fields(`
		ADDR_EPK ALIGNMENT_BYTE ALIGNMENT_FLOAT32_IEEE ALIGNMENT_FLOAT64_IEEE
		ALIGNMENT_INT64 ALIGNMENT_LONG ALIGNMENT_WORD ARRAY_SIZE ASAP2_VERSION
		AXIS_PTS_REF AXIS_PTS_X AXIS_PTS_Y AXIS_PTS_Z AXIS_PTS_4 AXIS_PTS_5
		AXIS_RESCALE_X AXIS_RESCALE_Y AXIS_RESCALE_Z BIT_MASK BYTE_ORDER
		CALIBRATION_ACCESS COEFFS COEFFS_LINEAR COMPARISON_QUANTITY
		COMPU_TAB_REF CPU_TYPE CURVE_AXIS_REF CUSTOMER CUSTOMER_NO
		DATA_SIZE DEFAULT_VALUE DEFAULT_VALUE_NUMERIC DEPOSIT DISCRETE
		DISPLAY_IDENTIFIER DIST_OP_X DIST_OP_Y DIST_OP_Z ECU ECU_ADDRESS
		ECU_ADDRESS_EXTENSION ECU_CALIBRATION_OFFSET EPK ERROR_MASK
		EXTENDED_LIMITS FIX_AXIS_PAR FIX_AXIS_PAR_DIST FIX_NO_AXIS_PTS_X
		FIX_NO_AXIS_PTS_Y FIX_NO_AXIS_PTS_Z FNC_VALUES FORMAT FORMULA_INV
		FUNCTION_VERSION GUARD_RAILS IDENTIFICATION LAYOUT MATRIX_DIM
		MAX_GRAD MAX_REFRESH MODEL_LINK MONOTONY NO_AXIS_PTS_X NO_AXIS_PTS_Y
		NO_AXIS_PTS_Z NO_OF_INTERFACES NO_RESCALE_X NO_RESCALE_Y NO_RESCALE_Z
		NUMBER OFFSET_X OFFSET_Y OFFSET_Z PHONE_NO PHYS_UNIT PROJECT_NO
		READ_ONLY READ_WRITE REF_MEMORY_SEGMENT REF_UNIT RESERVED
		RIP_ADDR_W RIP_ADDR_X RIP_ADDR_Y RIP_ADDR_Z ROOT SHIFT_OP_X
		SHIFT_OP_Y SHIFT_OP_Z SI_EXPONENTS SRC_ADDR_X SRC_ADDR_Y SRC_ADDR_Z
		STATIC_RECORD_LAYOUT STATUS_STRING_REF STEP_SIZE SUPPLIER
		SYMBOL_LINK SYSTEM_CONSTANT UNIT_CONVERSION USER VERSION
	`) {
		keywords[kw] = true
	}
}

type parser struct {
	tokens []token
	pos    int
}

// Parse turns A2L source text into a block tree rooted at a synthetic
// FILE node
func Parse(src string) (*Node, error) {
	tokens, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	root := &Node{Kind: "FILE", Line: 1}
	if err := p.body(root, 0, true); err != nil {
		return nil, err
	}
	return root, nil
}

func (p *parser) next() (token, bool) {
	if p.pos >= len(p.tokens) {
		return token{}, false
	}
	t := p.tokens[p.pos]
	p.pos++
	return t, true
}

func (p *parser) block(line int) (*Node, error) {
	kind, ok := p.next()
	if !ok || kind.kind != tokWord {
		return nil, errors.Errorf("line %d: /begin without block name", line)
	}
	n := &Node{Kind: kind.text, Line: line}
	if n.Kind == "A2ML" {
		return n, p.skipA2ML(line)
	}
	positional, known := arity[n.Kind]
	if !known {
		positional = 0
	}
	return n, p.body(n, positional, false)
}

// body fills n until the matching /end, or until EOF for the top level
func (p *parser) body(n *Node, positional int, top bool) error {
	var current *Keyword
	flush := func() {
		if current != nil {
			n.Keywords = append(n.Keywords, *current)
			current = nil
		}
	}
	for {
		t, ok := p.next()
		if !ok {
			if top {
				flush()
				return nil
			}
			return errors.Errorf("line %d: block %s is not closed", n.Line, n.Kind)
		}
		switch t.kind {
		case tokBegin:
			flush()
			child, err := p.block(t.line)
			if err != nil {
				return err
			}
			n.Children = append(n.Children, child)
		case tokEnd:
			if top {
				return errors.Errorf("line %d: unexpected /end", t.line)
			}
			name, ok := p.next()
			if !ok || name.text != n.Kind {
				return errors.Errorf("line %d: /end %s does not close %s opened on line %d", t.line, name.text, n.Kind, n.Line)
			}
			flush()
			return nil
		default:
			switch {
			case positional > 0:
				n.Args = append(n.Args, t.text)
				positional--
			case t.kind == tokWord && keywords[t.text]:
				flush()
				current = &Keyword{Name: t.text, Line: t.line}
			case current != nil:
				current.Args = append(current.Args, t.text)
			default:
				n.Args = append(n.Args, t.text)
			}
		}
	}
}

func (p *parser) skipA2ML(line int) error {
	for {
		t, ok := p.next()
		if !ok {
			return errors.Errorf("line %d: A2ML block is not closed", line)
		}
		if t.kind == tokEnd && p.pos < len(p.tokens) && p.tokens[p.pos].text == "A2ML" {
			p.pos++
			return nil
		}
	}
}

// ParseUint parses decimal or 0x-prefixed hexadecimal integers
func ParseUint(s string) (uint64, error) {
	digits, base := splitNumber(strings.TrimPrefix(s, "+"))
	return strconv.ParseUint(digits, base, 64)
}

// ParseFloat parses a numeric A2L value, hexadecimal included
func ParseFloat(s string) (float64, error) {
	sign := 1.0
	rest := s
	switch {
	case strings.HasPrefix(rest, "-"):
		sign, rest = -1, rest[1:]
	case strings.HasPrefix(rest, "+"):
		rest = rest[1:]
	}
	if digits, base := splitNumber(rest); base == 16 {
		v, err := strconv.ParseUint(digits, 16, 64)
		return sign * float64(v), err
	}
	return strconv.ParseFloat(s, 64)
}

// splitNumber strips a hexadecimal prefix and reports the base
func splitNumber(s string) (string, int) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:], 16
	}
	return s, 10
}
