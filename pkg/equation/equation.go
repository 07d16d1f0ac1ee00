// Package equation turns ASAP2 RAT_FUNC coefficients into the textual
// formulas understood by the target editors.
//
// A RAT_FUNC maps physical to raw values:
//
//	raw = (a*phys^2 + b*phys + c) / (d*phys^2 + e*phys + f)
//
// Only the linear case (a = d = 0) can be inverted into a raw-to-physical
// formula. Everything else yields Unsupported, which shows up in the
// editor as an obviously broken formula instead of aborting the run.
package equation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tosih/a2l2ecu/pkg/models"
)

// Unsupported replaces formulas that cannot be inverted
const Unsupported = "Cannot handle polynomial ratfunc because we do not know how to invert!"

// Dialect describes the expression language of one target editor
type Dialect struct {
	// Variable is the raw value placeholder
	Variable string
	// AllowDenominator accepts e != 0 in the forward formula
	AllowDenominator bool
	// FloatIdentity keeps float value arrays untouched, they already
	// hold physical values
	FloatIdentity bool
}

var (
	XDF    = Dialect{Variable: "X", AllowDenominator: true, FloatIdentity: true}
	ECUXML = Dialect{Variable: "[x]"}
)

// Identity returns the formula that leaves the raw value unchanged
func (d Dialect) Identity() string {
	return d.Variable
}

// Linear reports whether the coefficients describe an invertible linear
// scaling in this dialect
func (d Dialect) Linear(c models.Coefficients, inverse bool) bool {
	if c.A != 0 || c.D != 0 || c.F == 0 {
		return false
	}
	if c.E != 0 && (inverse || !d.AllowDenominator) {
		return false
	}
	if c.B == 0 && c.E == 0 {
		return false
	}
	return true
}

// Derive returns the forward (raw to physical) or inverse (physical to
// raw) formula, or Unsupported
func (d Dialect) Derive(c models.Coefficients, inverse bool) string {
	if !d.Linear(c, inverse) {
		return Unsupported
	}
	if inverse {
		return d.inverse(c)
	}
	return d.forward(c)
}

// Forward is Derive(c, false)
func (d Dialect) Forward(c models.Coefficients) string {
	return d.Derive(c, false)
}

// Inverse is Derive(c, true)
func (d Dialect) Inverse(c models.Coefficients) string {
	return d.Derive(c, true)
}

// ((f * X) - c) / b, with the sign of c folded into the operator
func (d Dialect) forward(c models.Coefficients) string {
	op, cText := signed("-", c.C)
	numerator := fmt.Sprintf("((%s * %s) %s %s)", Format(c.F), d.Variable, op, cText)
	if c.E == 0 {
		return fmt.Sprintf("%s / %s", numerator, Format(c.B))
	}
	eOp, eText := signed("-", c.E)
	return fmt.Sprintf("%s / (%s %s (%s * %s))", numerator, Format(c.B), eOp, eText, d.Variable)
}

// (b * (X / f)) + c / f, the algebraic inverse of forward
func (d Dialect) inverse(c models.Coefficients) string {
	op, cText := signed("+", c.C)
	if c.F != 1 {
		cText = fmt.Sprintf("(%s / %s)", cText, Format(c.F))
	}
	return fmt.Sprintf("(%s * (%s / %s)) %s %s", Format(c.B), d.Variable, Format(c.F), op, cText)
}

// signed renders |v| and flips op when v is negative
func signed(op string, v float64) (string, string) {
	if v < 0 {
		if op == "-" {
			op = "+"
		} else {
			op = "-"
		}
		v = -v
	}
	return op, Format(v)
}

// Pair returns forward and inverse formulas for a conversion method. dt
// is the datatype of the values being converted, it may be empty for axes.
func (d Dialect) Pair(cm models.CompuMethod, dt models.Datatype) (string, string) {
	if !cm.HasCoefficients() || (d.FloatIdentity && dt.Float()) {
		return d.Identity(), d.Identity()
	}
	return d.Forward(cm.Coeffs), d.Inverse(cm.Coeffs)
}

// Format renders a coefficient as plain decimal text with the shortest
// digits that round-trip a float64, never in exponent notation. Integral
// values keep a trailing ".0".
func Format(v float64) string {
	switch {
	case v == 0:
		return "0.0"
	case math.IsNaN(v) || math.IsInf(v, 0):
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
