package table

import "fmt"

// Table wraps a sampled 1-D relationship as a continuous function.
// Between samples the value is linearly interpolated; outside the sampled
// domain the boundary value is held.
type Table struct {
	xs []float64
	ys []float64
}

// New builds a table from parallel sample arrays sorted by x.
func New(xs, ys []float64) (*Table, error) {
	if len(xs) == 0 {
		return nil, fmt.Errorf("table requires at least one sample")
	}
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("table sample count mismatch: %d x values, %d y values", len(xs), len(ys))
	}
	return &Table{xs: xs, ys: ys}, nil
}

// Constant returns a table that evaluates to y everywhere.
func Constant(y float64) *Table {
	return &Table{xs: []float64{0}, ys: []float64{y}}
}

func (tb *Table) Evaluate(x float64) float64 {
	if x <= tb.xs[0] {
		return tb.ys[0]
	}

	lastIdx := len(tb.xs) - 1
	if x >= tb.xs[lastIdx] {
		return tb.ys[lastIdx]
	}

	for i := 1; i < len(tb.xs); i++ {
		if x <= tb.xs[i] {
			x1, x2 := tb.xs[i-1], tb.xs[i]
			y1, y2 := tb.ys[i-1], tb.ys[i]
			slope := (y2 - y1) / (x2 - x1)
			return y1 + slope*(x-x1)
		}
	}

	return tb.ys[lastIdx] // Must not reach
}

func (tb *Table) Len() int {
	return len(tb.xs)
}
