// Package reader reads calibration tables back from binary dumps and
// converts them to physical values with the derived formulas.
package reader

import (
	"github.com/Knetic/govaluate"
	"github.com/pkg/errors"

	"github.com/tosih/a2l2ecu/pkg/equation"
)

// ErrUnsupportedFormula is returned for the non-linear rejection marker
var ErrUnsupportedFormula = errors.New("formula cannot be evaluated")

// Converter evaluates a forward formula of either dialect
type Converter struct {
	expr *govaluate.EvaluableExpression
}

// NewConverter compiles formula. Both "X" and "[x]" refer to the raw value.
func NewConverter(formula string) (*Converter, error) {
	if formula == equation.Unsupported {
		return nil, ErrUnsupportedFormula
	}
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid formula %q", formula)
	}
	return &Converter{expr: expr}, nil
}

// Convert applies the formula to one raw value
func (c *Converter) Convert(raw float64) (float64, error) {
	out, err := c.expr.Evaluate(map[string]interface{}{"X": raw, "x": raw})
	if err != nil {
		return 0, errors.Wrap(err, "evaluation failed")
	}
	v, ok := out.(float64)
	if !ok {
		return 0, errors.Errorf("formula returned %T", out)
	}
	return v, nil
}
